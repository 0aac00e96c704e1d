package catway

import (
	"fmt"

	"github.com/port-russell/service-marina/internal/platform/domain"
)

// Kind is the berth length class.
type Kind string

const (
	KindLong  Kind = "long"
	KindShort Kind = "short"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == KindLong || k == KindShort
}

// String returns the string representation of the kind.
func (k Kind) String() string { return string(k) }

// ParseKind converts s to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", domain.NewValidationError(fmt.Sprintf("type must be %q or %q, got %q", KindLong, KindShort, s))
	}
	return k, nil
}
