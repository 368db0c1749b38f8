package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

// ErrNotFound indicates that no configuration file exists.
var ErrNotFound = errors.New("config: no configuration file found")

// SearchDirs returns the directories searched for a default configuration
// file, in order: the working directory, the user configuration directory
// and the executable's directory. Directories that cannot be determined
// are skipped.
func SearchDirs() []string {
	var dirs []string

	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}

	if d, err := os.UserConfigDir(); err == nil {
		dirs = append(dirs, d)
	} else if home, err := homedir.Dir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config"))
	}

	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}

	return dirs
}

// Find returns explicit when it is non-empty and exists. Otherwise it
// looks for name in SearchDirs.
func Find(explicit, name string) (string, error) {
	if explicit != "" {
		p, err := homedir.Expand(explicit)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(p); err != nil {
			return "", err
		}
		return p, nil
	}

	return findIn(SearchDirs(), name)
}

func findIn(dirs []string, name string) (string, error) {
	for _, d := range dirs {
		p := filepath.Join(d, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", ErrNotFound
}
