package runtime

import (
	"context"
	"sort"

	"github.com/aretw0/espalier/pkg/domain"
)

// prunableUnit is one whole subtree the pruner may keep or drop. Its cost is
// the subtree cost minus any nested units, which are charged on their own.
type prunableUnit struct {
	piece  *domain.Piece
	path   string
	parent *prunableUnit
	cost   int
	kept   bool
}

// prune selects which units of the evaluated piece tree survive the budget.
// Every top-level message is a unit; nested pieces are units only when marked
// prunable. Units are considered highest priority first, declaration order
// breaking ties, and once one unit does not fit no later unit is accepted.
// Units are kept or dropped whole, never truncated.
//
// The returned pieces are adjusted copies; the evaluated tree is not mutated.
func (e *Engine) prune(ctx context.Context, top []*domain.Piece, budget int) ([]*domain.Piece, int) {
	var units []*prunableUnit
	byPiece := make(map[*domain.Piece]*prunableUnit)

	var collect func(p *domain.Piece, path string, parent *prunableUnit)
	collect = func(p *domain.Piece, path string, parent *prunableUnit) {
		enclosing := parent
		if parent == nil || p.Prunable {
			unit := &prunableUnit{piece: p, path: path, parent: parent, cost: p.TokenCost}
			if parent != nil {
				parent.cost -= p.TokenCost
			}
			units = append(units, unit)
			byPiece[p] = unit
			enclosing = unit
		}
		for i, c := range p.Children {
			collect(c, childPath(path, i), enclosing)
		}
	}
	for i, p := range top {
		collect(p, childPath("root", i), nil)
	}
	for _, u := range units {
		u.cost = max(u.cost, 0)
	}

	sort.SliceStable(units, func(i, j int) bool {
		return units[i].piece.Priority > units[j].piece.Priority
	})

	running := 0
	dropped := 0
	rejecting := false
	for _, u := range units {
		if !rejecting && running+u.cost <= budget {
			u.kept = true
			running += u.cost
		} else {
			rejecting = true
			dropped++
		}
		e.emitPrune(ctx, u.path, u.piece.Priority, u.cost, u.kept)
	}

	// Rebuild the surviving tree in declaration order. A dropped unit takes
	// its whole subtree with it, including any nested unit that was accepted
	// on its own priority, so the final total is recomputed from what is
	// actually left standing.
	var rebuild func(p *domain.Piece) *domain.Piece
	rebuild = func(p *domain.Piece) *domain.Piece {
		if u, ok := byPiece[p]; ok && !u.kept {
			return nil
		}
		clone := *p
		clone.Children = nil
		for _, c := range p.Children {
			kept := rebuild(c)
			if kept == nil {
				clone.TokenCost -= c.TokenCost
				continue
			}
			clone.TokenCost -= c.TokenCost - kept.TokenCost
			clone.Children = append(clone.Children, kept)
		}
		clone.TokenCost = max(clone.TokenCost, 0)
		return &clone
	}

	var survivors []*domain.Piece
	total := 0
	for _, p := range top {
		if kept := rebuild(p); kept != nil {
			survivors = append(survivors, kept)
			total += kept.TokenCost
		}
	}

	if dropped > 0 {
		e.logger.Debug("pruned to fit budget",
			"dropped", dropped,
			"kept", len(units)-dropped,
			"tokens", total,
			"budget", budget,
		)
	}
	return survivors, total
}
