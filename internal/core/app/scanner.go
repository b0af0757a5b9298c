// # internal/core/app/scanner.go
package app

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"depscope/internal/core/errors"
	"depscope/internal/engine/parser"
	"depscope/internal/shared/observability"
	"depscope/internal/shared/util"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

// ScanDirectories lists the files under root that have a front-end, match
// the scan pattern and are not excluded. Paths are root-relative with
// forward slashes, sorted. Unreadable directories are logged and skipped;
// only a failure on root itself is returned.
func (a *App) ScanDirectories(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, a.scanVisitor(root, &files))
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "scan repository"), errors.CtxPath, root)
	}
	sort.Strings(files)
	return files, nil
}

func (a *App) scanVisitor(root string, files *[]string) fs.WalkDirFunc {
	return func(path string, d fs.DirEntry, err error) error {
		rel := util.RelSlash(root, path)
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("skipping unreadable path", "path", rel, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		base := filepath.Base(path)

		if d.IsDir() {
			if path != root && matchAny(a.dirGlobs, base, rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if !a.Parser.IsSupportedPath(path) || !isSourceFile(path, d) {
			return nil
		}
		if len(a.pattern) > 0 && !matchAny(a.pattern, rel) {
			return nil
		}
		if matchAny(a.fileGlobs, base, rel) {
			return nil
		}
		*files = append(*files, rel)
		return nil
	}
}

// isSourceFile accepts regular files and symlinks to them. Symlinked
// directories are not followed. A dangling link is kept so extraction
// records it as a read error.
func isSourceFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return info.Mode().IsRegular()
}

// Extract runs every selected file through its front-end on a bounded worker
// pool. File-level failures are recorded as parse errors and never abort the
// run. On cancellation the files finished so far are returned together with
// the context error.
func (a *App) Extract(ctx context.Context, root string) (*parser.RepositoryExtractionResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "extract")
	defer span.End()
	start := time.Now()

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.AddContext(errors.Wrap(err, errors.CodeIO, "resolve root"), errors.CtxPath, root)
	}
	if info, err := os.Stat(absRoot); err != nil || !info.IsDir() {
		return nil, errors.AddContext(errors.New(errors.CodeNotFound, "repository root is not a directory"), errors.CtxPath, root)
	}

	files, err := a.ScanDirectories(absRoot)
	if err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "scanned repository", "root", absRoot, "files", len(files), "extensions", a.Parser.SupportedExtensions())
	span.SetAttributes(attribute.Int("files", len(files)))

	repo := parser.NewRepositoryResult(absRoot)
	var mu sync.Mutex

	var g errgroup.Group
	if a.Config.Scan.Workers > 0 {
		g.SetLimit(a.Config.Scan.Workers)
	}
	for _, rel := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			res := a.extractFile(ctx, absRoot, rel)
			mu.Lock()
			repo.Files[rel] = res
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	summary := repo.Summary()
	observability.AnalysisDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())
	slog.InfoContext(ctx, "extraction complete",
		"files", summary.TotalFiles,
		"functions", summary.TotalFunctions,
		"classes", summary.TotalClasses,
		"imports", summary.TotalImports,
		"calls", summary.TotalCalls,
		"duration", time.Since(start))

	if err := ctx.Err(); err != nil {
		return repo, err
	}
	return repo, nil
}

func (a *App) extractFile(ctx context.Context, root, rel string) *parser.FileExtractionResult {
	frontend := a.Parser.Frontend(rel)
	path := filepath.Join(root, filepath.FromSlash(rel))

	if info, err := os.Stat(path); err == nil && a.Config.Scan.MaxFileBytes > 0 && info.Size() > a.Config.Scan.MaxFileBytes {
		observability.FilesTotal.WithLabelValues(observability.FileStatusReadError).Inc()
		slog.WarnContext(ctx, "file too large", "path", rel, "bytes", info.Size())
		return parser.FailedResult(rel, frontend, fmt.Sprintf("File too large: %d bytes", info.Size()))
	}

	content, err := os.ReadFile(path)
	if err != nil {
		observability.FilesTotal.WithLabelValues(observability.FileStatusReadError).Inc()
		slog.WarnContext(ctx, "read failed", "path", rel, "error", err)
		return parser.FailedResult(rel, frontend, fmt.Sprintf("Read error: %v", err))
	}

	start := time.Now()
	res := a.Parser.ParseFile(ctx, rel, content)
	observability.ParsingDuration.WithLabelValues(frontend).Observe(time.Since(start).Seconds())

	if res.Failed() {
		observability.FilesTotal.WithLabelValues(observability.FileStatusParseError).Inc()
		slog.WarnContext(ctx, "parse errors", "path", rel, "errors", res.ParseErrors)
		return res
	}
	observability.FilesTotal.WithLabelValues(observability.FileStatusOK).Inc()
	slog.DebugContext(ctx, "extracted file",
		"path", rel,
		"frontend", frontend,
		"functions", len(res.Functions),
		"classes", len(res.Classes),
		"imports", len(res.Imports))
	return res
}
