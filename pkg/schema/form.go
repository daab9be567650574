package schema

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// ParseRole validates a declarative role string and returns the domain role.
func ParseRole(s string) (domain.Role, error) {
	switch role := domain.Role(s); role {
	case domain.RoleSystem, domain.RoleUser, domain.RoleAssistant:
		return role, nil
	default:
		return "", &ValidationError{
			Key:    "role",
			Reason: fmt.Sprintf("must be one of system, user, assistant; got %q", s),
		}
	}
}

// ParseKind validates a declarative kind string. An empty kind is rejected;
// loaders and the compiler infer a kind before parsing.
func ParseKind(s string) (string, error) {
	switch s {
	case domain.KindMessage, domain.KindText, domain.KindFragment, domain.KindComponent:
		return s, nil
	default:
		return "", &ValidationError{
			Key:    "kind",
			Reason: fmt.Sprintf("must be one of message, text, fragment, component; got %q", s),
		}
	}
}

// CheckAttributes validates the sizing attributes a declarative form may set.
// All failures are reported at once.
func CheckAttributes(grow float64, basis int) error {
	var errs []error

	if grow < 0 {
		errs = append(errs, &ValidationError{
			Key:    "grow",
			Reason: fmt.Sprintf("must not be negative; got %v", grow),
		})
	}
	if basis < 0 {
		errs = append(errs, &ValidationError{
			Key:    "basis",
			Reason: fmt.Sprintf("must not be negative; got %d", basis),
		})
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}
