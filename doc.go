/*
Package espalier renders declarative prompt trees into flat, ordered lists of
role-tagged chat messages that always fit a hard token budget.

It implements a "measure, allocate, prune" pipeline: the element tree is
evaluated bottom-up against a tokenizer, cooperative flex sizing splits the
budget between growable siblings, and a priority-ordered pruner drops whole
units (never truncating mid-message) until the survivors fit.

# Concept

Espalier treats a prompt as a tree of elements. Fixed content is measured
as-is; growable components (conversation history, document excerpts) receive
a budget grant and expand to fill it. The engine guarantees the flattened
output never exceeds the endpoint's token limit, degrades by dropping the
lowest-priority units first, and keeps surviving messages in declaration
order. This Hexagonal Architecture keeps the core free of tokenizer
internals and vendor wire formats: both are adapters.

# Key Features

  - Deterministic Rendering: the same tree, tokenizer and budget always
    produce byte-identical output.
  - Hexagonal Architecture: core logic is decoupled from adapters
    (Tokenizers, Packs, Transcript Stores, Target Formats).
  - Cooperative Flex Sizing: growable elements share leftover budget
    proportionally, CSS-flexbox style.
  - Declarative Packs: prompt sections live as Markdown files with YAML
    frontmatter, hot-reloadable in dev mode.

# Usage

Build a tree with the dsl package (or compile one from a pack) and render
it against an endpoint budget:

	package main

	import (
		"context"
		"fmt"
		"log"

		"github.com/aretw0/espalier"
		"github.com/aretw0/espalier/pkg/domain"
		"github.com/aretw0/espalier/pkg/dsl"
	)

	func main() {
		eng, err := espalier.New()
		if err != nil {
			log.Fatal(err)
		}

		tree := dsl.Group(
			dsl.System(dsl.Text("You are a helpful assistant.")).Priority(100),
			dsl.User(dsl.Text("Summarize the landing page.")).Priority(90),
		).Build()

		result, err := eng.Render(context.Background(), tree, domain.Endpoint{
			MaxPromptTokens: 500,
		})
		if err != nil {
			log.Fatal(err)
		}

		for _, msg := range result.Messages {
			fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
		}
	}
*/
package espalier
