package main

import (
	"context"
	"os"

	"github.com/reza-ygb/apex-launcher/internal/app"
)

func main() {
	// fang prints the error itself.
	if err := app.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
