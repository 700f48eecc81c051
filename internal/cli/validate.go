package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolvePaths makes all paths absolute and checks the basic filesystem
// preconditions the engine expects the caller to have validated.
func resolvePaths(sources, destinations []string, createDest bool) ([]string, []string, error) {
	absSources := make([]string, 0, len(sources))
	for _, src := range sources {
		abs, err := filepath.Abs(src)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve source path: %w", err)
		}
		if _, err := os.Stat(abs); os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("source path does not exist: %s", abs)
		}
		absSources = append(absSources, abs)
	}

	absDests := make([]string, 0, len(destinations))
	for _, dest := range destinations {
		abs, err := filepath.Abs(dest)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve destination path: %w", err)
		}

		info, err := os.Stat(abs)
		switch {
		case os.IsNotExist(err):
			if !createDest {
				return nil, nil, fmt.Errorf("destination does not exist: %s (use --create-dest to create it)", abs)
			}
			if err := os.MkdirAll(abs, 0755); err != nil {
				return nil, nil, fmt.Errorf("failed to create destination directory: %w", err)
			}
		case err != nil:
			return nil, nil, fmt.Errorf("failed to access destination path: %w", err)
		case !info.IsDir():
			return nil, nil, fmt.Errorf("destination exists but is not a directory: %s", abs)
		}

		for _, src := range absSources {
			if abs == src {
				return nil, nil, fmt.Errorf("destination cannot equal a source: %s", abs)
			}
			if strings.HasPrefix(abs, src+string(filepath.Separator)) {
				return nil, nil, fmt.Errorf("destination %s cannot be inside source %s", abs, src)
			}
		}
		absDests = append(absDests, abs)
	}

	return absSources, absDests, nil
}
