package runtime

import (
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// ValidateTree rejects trees the renderer cannot give a meaning to before any
// tokenizer work happens. Components are opaque here; the subtrees they
// produce are checked again when they are evaluated.
func ValidateTree(root *domain.Element) error {
	if root == nil {
		return fmt.Errorf("%w: nil root", domain.ErrMalformedTree)
	}
	return validateElement(root, "root", false)
}

func validateElement(el *domain.Element, path string, inMessage bool) error {
	if el == nil {
		return fmt.Errorf("%w: nil element at %s", domain.ErrMalformedTree, path)
	}
	if el.Grow < 0 {
		return fmt.Errorf("%w: negative grow weight at %s", domain.ErrMalformedTree, path)
	}
	if el.Basis < 0 {
		return fmt.Errorf("%w: negative basis at %s", domain.ErrMalformedTree, path)
	}

	switch el.Kind {
	case domain.KindText:
		if len(el.Children) > 0 {
			return fmt.Errorf("%w: text leaf with children at %s", domain.ErrMalformedTree, path)
		}
	case domain.KindMessage:
		if inMessage {
			return fmt.Errorf("%w: message nested inside a message at %s", domain.ErrMalformedTree, path)
		}
		switch el.Role {
		case domain.RoleSystem, domain.RoleUser, domain.RoleAssistant:
		default:
			return fmt.Errorf("%w: unknown role %q at %s", domain.ErrMalformedTree, el.Role, path)
		}
	case domain.KindFragment:
	case domain.KindComponent:
		if el.Render == nil {
			return fmt.Errorf("%w: component without a render func at %s", domain.ErrMalformedTree, path)
		}
		if len(el.Children) > 0 {
			return fmt.Errorf("%w: component with static children at %s", domain.ErrMalformedTree, path)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q at %s", domain.ErrMalformedTree, el.Kind, path)
	}

	nested := inMessage || el.Kind == domain.KindMessage
	for i, c := range el.Children {
		if err := validateElement(c, childPath(path, i), nested); err != nil {
			return err
		}
	}
	return nil
}
