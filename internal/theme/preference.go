package theme

import (
	"fmt"
	"strings"
)

// SchemePreference reports the system color scheme.
type SchemePreference interface {
	PrefersDark() (bool, error)
}

// StaticPreference is a preference fixed at startup ("dark", "light" or
// empty for unknown).
type StaticPreference string

func (p StaticPreference) PrefersDark() (bool, error) {
	switch strings.ToLower(strings.TrimSpace(string(p))) {
	case "dark":
		return true, nil
	case "light":
		return false, nil
	case "":
		return false, fmt.Errorf("system color scheme unknown")
	}
	return false, fmt.Errorf("unsupported color scheme %q", string(p))
}
