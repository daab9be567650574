package runtime

import "github.com/aretw0/espalier/pkg/domain"

// flatten walks the surviving pieces in declaration order and assembles the
// final message sequence. Text under one message is joined into a single
// content string, and references carried by surviving pieces are collected in
// walk order. Priority decided what survived; the output order is the order
// the tree declared.
func flatten(kept []*domain.Piece, total int) *domain.RenderResult {
	result := &domain.RenderResult{
		Messages:   make([]domain.Message, 0, len(kept)),
		TokenCount: total,
	}
	for _, p := range kept {
		result.Messages = append(result.Messages, p.Message())
		result.References = collectReferences(p, result.References)
	}
	return result
}

func collectReferences(p *domain.Piece, into []any) []any {
	into = append(into, p.References...)
	for _, c := range p.Children {
		into = collectReferences(c, into)
	}
	return into
}
