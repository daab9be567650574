package runtime

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// flexChild tracks one flexible sibling across allocation rounds.
type flexChild struct {
	el      *domain.Element
	index   int // declaration position among the siblings
	path    string
	granted int
	used    int
	pieces  []*domain.Piece
}

// evaluateGroup distributes a shared budget among sibling elements and
// evaluates them. Fixed siblings claim space first in declaration order, each
// seeing the remainder left by the ones before it. Flexible siblings then
// share what is left: basis reservations first, the rest proportionally to
// their weights, with unused grants re-offered to the siblings that consumed
// everything until nobody grows.
//
// The returned pieces are in declaration order regardless of which pass
// produced them.
func (e *Engine) evaluateGroup(ctx context.Context, siblings []*domain.Element, parentPath string, budget int) ([]*domain.Piece, error) {
	if len(siblings) == 0 {
		return nil, nil
	}

	slots := make([][]*domain.Piece, len(siblings))
	remaining := budget
	var flexGroup []*flexChild

	// Pass 1: fixed siblings. A zero-weight element with a basis is fixed at
	// that basis; everything else fixed is sized against the running
	// remainder. Costs may overshoot the remainder (the pruner deals with
	// that later), but grants never go negative.
	for i, el := range siblings {
		path := childPath(parentPath, i)
		if el.Flexible() {
			flexGroup = append(flexGroup, &flexChild{el: el, index: i, path: path})
			continue
		}
		grant := remaining
		if el.Basis > 0 {
			grant = min(el.Basis, remaining)
		}
		pieces, err := e.evaluate(ctx, el, path, e.sizing(grant), 0)
		if err != nil {
			return nil, err
		}
		slots[i] = pieces
		remaining = max(remaining-totalCost(pieces), 0)
	}

	if len(flexGroup) > 0 {
		if err := e.allocateFlex(ctx, flexGroup, remaining); err != nil {
			return nil, err
		}
		for _, fc := range flexGroup {
			slots[fc.index] = fc.pieces
		}
	}

	var group []*domain.Piece
	for _, pieces := range slots {
		group = append(group, pieces...)
	}
	return group, nil
}

// allocateFlex runs the cooperative growth protocol over one flexible group.
func (e *Engine) allocateFlex(ctx context.Context, group []*flexChild, budget int) error {
	// Basis reservations come off the top, in declaration order.
	remaining := budget
	for _, fc := range group {
		reserve := min(fc.el.Basis, remaining)
		fc.granted = reserve
		remaining -= reserve
	}

	// Proportional split of the pool, floored. Flooring scraps stay in
	// remaining and are re-offered below.
	var weightSum float64
	for _, fc := range group {
		weightSum += fc.el.Grow
	}
	if remaining > 0 && weightSum > 0 {
		pool := remaining
		for _, fc := range group {
			share := int(float64(pool) * fc.el.Grow / weightSum)
			fc.granted += share
			remaining -= share
		}
	}

	// First evaluation, declaration order.
	for _, fc := range group {
		if err := e.invokeFlex(ctx, fc, 0); err != nil {
			return err
		}
	}

	// Growth rounds: reclaim what went unused, re-offer it to the siblings
	// that consumed their whole grant, stop when nobody grows or nothing is
	// left to offer.
	for round := 1; ; round++ {
		var candidates []*flexChild
		pool := remaining
		for _, fc := range group {
			if fc.used == fc.granted {
				candidates = append(candidates, fc)
				continue
			}
			pool += fc.granted - fc.used
			fc.granted = fc.used
		}
		if pool == 0 || len(candidates) == 0 {
			return nil
		}

		var candidateWeight float64
		for _, fc := range candidates {
			candidateWeight += fc.el.Grow
		}
		extras := make([]int, len(candidates))
		offered := 0
		for i, fc := range candidates {
			extras[i] = int(float64(pool) * fc.el.Grow / candidateWeight)
			offered += extras[i]
		}
		if offered == 0 {
			// The pool floors to nothing under the weight split. Offer it
			// whole to the first candidate in declaration order instead of
			// stranding it.
			extras[0] = pool
			offered = pool
		}
		remaining = pool - offered

		grew := false
		for i, fc := range candidates {
			if extras[i] == 0 {
				continue
			}
			prevUsed := fc.used
			fc.granted += extras[i]
			if err := e.invokeFlex(ctx, fc, round); err != nil {
				return err
			}
			if fc.used > prevUsed {
				grew = true
			}
		}
		if !grew {
			return nil
		}
	}
}

// invokeFlex evaluates one flexible sibling against its current grant.
// A flexible component must fit the budget it was told about; anything it
// reports beyond that is a broken cooperative-sizing contract and aborts the
// render. Measured-only nodes (text, messages) cannot truncate themselves,
// so an overshoot there is left for the pruner.
func (e *Engine) invokeFlex(ctx context.Context, fc *flexChild, round int) error {
	pieces, err := e.evaluate(ctx, fc.el, fc.path, e.sizing(fc.granted), round)
	if err != nil {
		return err
	}
	used := totalCost(pieces)
	if used > fc.granted && fc.el.Kind == domain.KindComponent {
		return &domain.BudgetViolationError{Path: fc.path, Granted: fc.granted, Reported: used}
	}
	if round > 0 && used < fc.used {
		e.logger.Warn("flexible node shrank on a larger grant",
			"path", fc.path,
			"granted", fc.granted,
			"was", fc.used,
			"now", used,
		)
	}
	fc.pieces = pieces
	fc.used = min(used, fc.granted)
	e.emitAllocate(ctx, fc.path, fc.el, fc.granted, used, round)
	return nil
}
