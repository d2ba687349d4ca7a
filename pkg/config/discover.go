package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Find walks up from dir looking for .crush/config.yaml and returns its path.
// The search stops at the filesystem root or the user's home directory.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	root, ok := findCrushRoot(abs)
	if !ok {
		return "", ErrNoConfig
	}
	return filepath.Join(root, DirName, FileName), nil
}

// findCrushRoot walks up from dir looking for a .crush/ directory holding a
// config file.
func findCrushRoot(dir string) (string, bool) {
	home, _ := os.UserHomeDir()

	for {
		cfg := filepath.Join(dir, DirName, FileName)
		if info, err := os.Stat(cfg); err == nil && !info.IsDir() {
			return dir, true
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break // Reached filesystem root
		}
		// Don't go above home directory
		if home != "" && dir == home {
			break
		}
		dir = parent
	}
	return "", false
}

// sourceExts are the file extensions ScanSources treats as data sources.
var sourceExts = map[string]bool{
	".db":     true,
	".sqlite": true,
	".json":   true,
	".jsonc":  true,
	".yaml":   true,
	".yml":    true,
}

// ScanSources walks a directory tree up to maxDepth levels deep and returns
// files that look like crush data sources. Hidden directories are skipped.
func ScanSources(root string, maxDepth int) []string {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	root = expandHome(root)
	var results []string

	rootDepth := strings.Count(filepath.Clean(root), string(filepath.Separator))

	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return filepath.SkipDir
		}

		currentDepth := strings.Count(filepath.Clean(path), string(filepath.Separator)) - rootDepth
		if d.IsDir() {
			if currentDepth > maxDepth {
				return filepath.SkipDir
			}
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if sourceExts[strings.ToLower(filepath.Ext(path))] {
			results = append(results, path)
		}
		return nil
	})

	return results
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
