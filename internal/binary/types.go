package binary

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidName is returned for names that would escape the target
	// directory.
	ErrInvalidName = errors.New("invalid package name")

	// ErrNotInstalled is returned when a package file is not in the binary
	// directory.
	ErrNotInstalled = errors.New("package not installed")
)

// StatusError is returned when the file host answers with anything but 200.
type StatusError struct {
	Name       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Failed to download %s. Status code: %d", e.Name, e.StatusCode)
}

// ValidateName rejects names that are empty, "." or "..", or contain a path
// separator.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
