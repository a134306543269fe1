package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// Visibility decides who can list a file. It doesn't guard downloads.
type Visibility string

const (
	VisibilityPrivate Visibility = "PRIVATE"
	VisibilityPublic  Visibility = "PUBLIC"
)

// ParseVisibility is case insensitive. Anything unknown, including the empty
// string, is treated as private.
func ParseVisibility(s string) Visibility {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(VisibilityPublic):
		return VisibilityPublic
	default:
		return VisibilityPrivate
	}
}

func (v Visibility) Valid() bool {
	return v == VisibilityPrivate || v == VisibilityPublic
}

func (v Visibility) Value() (driver.Value, error) {
	if !v.Valid() {
		return nil, fmt.Errorf("invalid visibility, %q", string(v))
	}

	return string(v), nil
}

func (v *Visibility) Scan(value any) error {
	switch s := value.(type) {
	case string:
		*v = Visibility(s)
	case []byte:
		*v = Visibility(s)
	default:
		return fmt.Errorf("failed to scan Visibility, %v", value)
	}

	if !v.Valid() {
		return fmt.Errorf("invalid visibility stored, %q", string(*v))
	}

	return nil
}
