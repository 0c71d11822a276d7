package util

import (
	"os"
	"os/user"
	"path/filepath"
	"regexp"
	"strings"
)

var extensionPattern = regexp.MustCompile(`^\.[A-Za-z0-9]+$`)

// StringListContains returns true if the list of strings contains item.
func StringListContains(list []string, item string) bool {
	if list != nil {
		for i := range list {
			if list[i] == item {
				return true
			}
		}
	}
	return false
}

// FileExists returns true if the file or directory at path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ExpandTilde expands a leading tilde in filePath to the current
// user's home directory. Paths without a leading tilde are returned
// unchanged.
func ExpandTilde(filePath string) (string, error) {
	if !strings.HasPrefix(filePath, "~") {
		return filePath, nil
	}
	usr, err := user.Current()
	if err != nil {
		return "", err
	}
	return filepath.Join(usr.HomeDir, strings.TrimPrefix(filePath, "~")), nil
}

// LooksSafeToDelete returns true if filePath is at least minLength
// characters long and contains at least minSeparators path separators.
// This keeps us from removing things like "/" or "/usr/local".
func LooksSafeToDelete(filePath string, minLength, minSeparators int) bool {
	separator := string(os.PathSeparator)
	separatorCount := strings.Count(filePath, separator)
	return len(filePath) >= minLength && separatorCount >= minSeparators
}

// SafeExtension returns the extension of filename if it is a short
// alphanumeric extension, or defaultExt otherwise. Declared filenames
// come from callers, so we never let them contribute anything else to
// a storage path.
func SafeExtension(filename, defaultExt string, maxLength int) string {
	ext := filepath.Ext(filepath.Base(filename))
	if len(ext) < 2 || len(ext) > maxLength+1 || !extensionPattern.MatchString(ext) {
		return defaultExt
	}
	return strings.ToLower(ext)
}
