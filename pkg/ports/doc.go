/*
Package ports defines the driven ports (interfaces) for the Espalier engine.

These interfaces decouple the rendering core from external implementations,
allowing the engine to work with various tokenizers, transcript backends and
prompt-pack sources.

# Key Interfaces

  - Tokenizer: measures the token cost of text and messages (the capability the engine suspends on).
  - TranscriptStore: persists conversation turns that history components splice into prompts.
  - PackLoader: retrieves declarative prompt sections (e.g., from Loam or Memory).
  - DistributedLocker: coordinates concurrent access to a session across replicas.
*/
package ports
