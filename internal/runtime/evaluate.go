package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/espalier/pkg/domain"
)

// evaluate turns a single element into pieces under the given sizing.
// Fragments and components may splice several pieces into the parent group,
// which is why the return is a slice.
func (e *Engine) evaluate(ctx context.Context, el *domain.Element, path string, sizing domain.Sizing, round int) ([]*domain.Piece, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch el.Kind {
	case domain.KindText:
		return e.evaluateText(ctx, el, path, sizing, round)
	case domain.KindMessage:
		return e.evaluateMessage(ctx, el, path, sizing, round)
	case domain.KindFragment:
		// A fragment contributes no cost and no priority of its own; its
		// children join the parent group directly.
		return e.evaluateGroup(ctx, el.Children, path, sizing.Budget)
	case domain.KindComponent:
		return e.evaluateComponent(ctx, el, path, sizing, round)
	default:
		return nil, fmt.Errorf("%w: unknown kind %q at %s", domain.ErrMalformedTree, el.Kind, path)
	}
}

func (e *Engine) evaluateText(ctx context.Context, el *domain.Element, path string, sizing domain.Sizing, round int) ([]*domain.Piece, error) {
	cost, err := sizing.CountText(ctx, el.Text)
	if err != nil {
		return nil, err
	}
	e.emitEvaluate(ctx, path, el, sizing.Budget, cost, round)
	return []*domain.Piece{{
		Priority:   el.Priority,
		Prunable:   el.Prunable,
		Text:       el.Text,
		TokenCost:  cost,
		References: el.References,
	}}, nil
}

func (e *Engine) evaluateMessage(ctx context.Context, el *domain.Element, path string, sizing domain.Sizing, round int) ([]*domain.Piece, error) {
	// The role wrapper itself costs tokens. Measure the empty message once
	// and give the children what is left, so a flexible container's content
	// is sized against the budget it can actually spend on text.
	overhead, err := sizing.CountMessage(ctx, domain.Message{Role: el.Role, Name: el.Name})
	if err != nil {
		return nil, err
	}
	children, err := e.evaluateGroup(ctx, el.Children, path, max(sizing.Budget-overhead, 0))
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if child.Role != "" {
			return nil, fmt.Errorf("%w: message nested inside message at %s", domain.ErrMalformedTree, path)
		}
	}

	piece := &domain.Piece{
		Priority:   el.Priority,
		Prunable:   el.Prunable,
		Role:       el.Role,
		Name:       el.Name,
		Children:   children,
		References: el.References,
	}
	cost, err := sizing.CountMessage(ctx, piece.Message())
	if err != nil {
		return nil, err
	}
	piece.TokenCost = cost
	e.emitEvaluate(ctx, path, el, sizing.Budget, cost, round)
	return []*domain.Piece{piece}, nil
}

func (e *Engine) evaluateComponent(ctx context.Context, el *domain.Element, path string, sizing domain.Sizing, round int) ([]*domain.Piece, error) {
	subtree, err := el.Render(ctx, el.Props, sizing)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// No per-node fallback: a broken component poisons the whole render.
		return nil, &domain.EvaluationError{Path: path, Err: err}
	}
	if subtree == nil {
		// A component may legitimately render to nothing.
		e.emitEvaluate(ctx, path, el, sizing.Budget, 0, round)
		return nil, nil
	}

	inheritDefaults(subtree, el)
	pieces, err := e.evaluate(ctx, subtree, path+"/"+componentLabel(el), sizing, round)
	if err != nil {
		return nil, err
	}
	e.emitEvaluate(ctx, path, el, sizing.Budget, totalCost(pieces), round)
	return pieces, nil
}

// inheritDefaults lets a component's own priority and pruning marker cascade
// onto the subtree it returned, unless the subtree set its own.
func inheritDefaults(subtree, el *domain.Element) {
	if subtree.Priority == domain.DefaultPriority {
		subtree.Priority = el.Priority
	}
	if el.Prunable {
		subtree.Prunable = true
	}
	if len(el.References) > 0 {
		subtree.References = append(subtree.References, el.References...)
	}
}

func componentLabel(el *domain.Element) string {
	if el.Name != "" {
		return el.Name
	}
	return "component"
}
