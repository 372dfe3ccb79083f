package output_test

import (
	"fmt"
	"time"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
	"github.com/reza-ygb/apex-launcher/internal/output"
)

func ExampleFormatAge() {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fmt.Println(output.FormatAge(now.Add(-3*time.Minute), now))
	fmt.Println(output.FormatAge(time.Time{}, now))
	// Output:
	// 3 minutes ago
	// never
}

func ExampleRenderRecords() {
	recs := []catalog.Record{
		{Name: "Firefox", Command: "firefox", Origin: catalog.OriginDesktop, Category: "Internet", UsageCount: 3},
	}
	fmt.Print(output.RenderRecords(recs))
}

// Example showing how to use a spinner while a scan runs
func ExampleSpinner() {
	spinner := output.NewSpinner("Scanning applications")
	spinner.WithTimeout(15 * time.Second)
	spinner.Start()

	// ... wait for the scan ...

	spinner.StopWithMessage("Found 42 applications")
}
