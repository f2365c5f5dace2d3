package page

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"
)

// DecorateDir decorates every .html/.htm file directly under inDir and writes
// the result under outDir with the same file name.
//
// Behavior:
//   - files are processed in natural file-name order (page2 before page10)
//   - subdirectories and other extensions are ignored
//   - unreadable or unparseable files are skipped with a warning
//   - failing to create outDir or write a result aborts the run
func DecorateDir(inDir, outDir string, opts Options, log *zap.Logger) (Stats, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Fail on a bad selector before touching the file system.
	if _, err := opts.matcher(); err != nil {
		return Stats{}, err
	}

	entries, err := os.ReadDir(inDir)
	if err != nil {
		return Stats{}, fmt.Errorf("read dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && isHTML(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Sort(natural.StringSlice(names))

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("create output dir: %w", err)
	}

	var total Stats
	for _, name := range names {
		src, err := os.ReadFile(filepath.Join(inDir, name))
		if err != nil {
			log.Warn("Skipping unreadable page", zap.String("file", name), zap.Error(err))
			continue
		}

		out, stats, err := DecorateHTML(string(src), opts)
		if err != nil {
			log.Warn("Skipping page", zap.String("file", name), zap.Error(err))
			continue
		}

		dst := filepath.Join(outDir, name)
		if err := os.WriteFile(dst, []byte(out), 0o644); err != nil {
			return total, fmt.Errorf("write %s: %w", dst, err)
		}

		log.Debug("Decorated page",
			zap.String("file", name),
			zap.Int("blocks", stats.Blocks),
			zap.Int("missing", stats.Missing),
		)
		total.Merge(stats)
	}
	return total, nil
}

func isHTML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return true
	}
	return false
}
