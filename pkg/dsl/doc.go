/*
Package dsl provides a fluent Go builder for constructing prompt trees.

It lets callers declare messages, literal text, flexible components and
priorities in code instead of hand-assembling domain.Element structs. This is
particularly useful for prompts assembled at request time, for unit tests, and
for leveraging IDE autocompletion over raw struct literals.

Example usage:

	tree := dsl.Group(
		dsl.System(dsl.Text("You are a terse assistant.")).Priority(100),
		dsl.History(store, sessionID).Grow(1),
		dsl.User(dsl.Text(question)).Priority(90),
	).Build()

	result, err := engine.Render(ctx, tree, domain.Endpoint{MaxPromptTokens: 4000})
*/
package dsl
