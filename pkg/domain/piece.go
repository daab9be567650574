package domain

import "strings"

// Piece is the evaluated form of an Element: all components have run, all
// fragments are spliced away, and every node carries a measured token cost.
//
// TokenCost is computed bottom-up exactly once and never invalidated; pieces
// are owned by the render pass that built them and discarded after
// flattening. A text piece costs CountText of its literal; a message piece
// costs CountMessage of its assembled message, so whole-message overhead
// (role markers, separators) is captured where it occurs.
type Piece struct {
	Priority int
	Prunable bool

	// Role is set for message pieces only.
	Role Role
	Name string

	// Text is the literal content of a leaf piece.
	Text string

	// Children holds nested pieces in declaration order.
	Children []*Piece

	// TokenCost is the measured cost of this piece, children included.
	TokenCost int

	References []any
}

// Leaf reports whether the piece carries literal text rather than children.
func (p *Piece) Leaf() bool {
	return len(p.Children) == 0
}

// JoinText concatenates the literal text of the piece and everything beneath
// it, in declaration order. Flattening calls this once per surviving message;
// calling it again yields the same string (pieces hold no hidden state).
func (p *Piece) JoinText() string {
	if p.Leaf() {
		return p.Text
	}
	var b strings.Builder
	p.joinInto(&b)
	return b.String()
}

func (p *Piece) joinInto(b *strings.Builder) {
	if p.Leaf() {
		b.WriteString(p.Text)
		return
	}
	for _, child := range p.Children {
		child.joinInto(b)
	}
}

// Message assembles the piece into its output message. Valid only for pieces
// with a role.
func (p *Piece) Message() Message {
	return Message{Role: p.Role, Content: p.JoinText(), Name: p.Name}
}
