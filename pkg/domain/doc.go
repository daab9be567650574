/*
Package domain contains the core domain models for the Espalier engine.

It defines the fundamental entities of a render pass: the declarative Element
tree handed in by the caller, the evaluated Piece tree the engine builds from
it, the Sizing granted to each node while it renders, and the neutral Message
shape that comes out the other end. This package is kept pure and free of
external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Element: a node in the declarative prompt tree (message, text, fragment or component).
  - Piece: the evaluated form of an Element, carrying a measured token cost.
  - Sizing: the per-node token budget plus bound token counters.
  - Message: a role-tagged chat message in the flattened output.
  - RenderResult: the ordered messages, their total cost and pass-through references.
*/
package domain
