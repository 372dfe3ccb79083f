package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
)

var errBudgetReached = errors.New("budget reached")

// AppImageScanner finds executable *.AppImage bundles under a set of roots.
type AppImageScanner struct {
	roots  []string
	limits Limits
	logger *log.Logger
}

// NewAppImage returns a scanner over roots.
func NewAppImage(roots []string, limits Limits, logger *log.Logger) *AppImageScanner {
	return &AppImageScanner{roots: roots, limits: limits, logger: orDefault(logger)}
}

func (s *AppImageScanner) Name() string           { return "appimage" }
func (s *AppImageScanner) Origin() catalog.Origin { return catalog.OriginAppImage }

// Scan walks each root up to AppImageMaxDepth levels deep.
func (s *AppImageScanner) Scan(ctx context.Context) catalog.Set {
	set := catalog.NewSet(catalog.OriginAppImage)
	if s.limits.MaxAppImages <= 0 {
		return set
	}

	for _, root := range s.roots {
		if ctx.Err() != nil || set.Len() >= s.limits.MaxAppImages {
			break
		}
		if _, err := os.Stat(root); err != nil {
			continue
		}

		rootDepth := strings.Count(filepath.Clean(root), string(os.PathSeparator))
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable subtrees are skipped, the walk continues.
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if d.IsDir() {
				if path != root && strings.HasPrefix(d.Name(), ".") {
					return fs.SkipDir
				}
				depth := strings.Count(filepath.Clean(path), string(os.PathSeparator)) - rootDepth
				if s.limits.AppImageMaxDepth > 0 && depth >= s.limits.AppImageMaxDepth {
					return fs.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(d.Name(), ".AppImage") {
				return nil
			}

			info, err := d.Info()
			if err != nil || !info.Mode().IsRegular() || info.Mode().Perm()&0111 == 0 {
				return nil
			}

			stem := strings.TrimSuffix(d.Name(), ".AppImage")
			set.Add(catalog.Record{
				Name:        stem + " (AppImage)",
				Command:     path,
				Description: "AppImage: " + stem,
				Origin:      catalog.OriginAppImage,
			})
			if set.Len() >= s.limits.MaxAppImages {
				return errBudgetReached
			}
			return nil
		})
		if err != nil && !errors.Is(err, errBudgetReached) && ctx.Err() == nil {
			s.logger.Debug("appimage walk stopped", "root", root, "err", err)
		}
	}

	return set
}

// DefaultAppImageDirs returns the per-user locations AppImages are usually
// kept in, plus /opt.
func DefaultAppImageDirs() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs,
			filepath.Join(home, "Applications"),
			filepath.Join(home, "AppImages"),
			filepath.Join(home, "Downloads"),
		)
	}
	return append(dirs, "/opt")
}
