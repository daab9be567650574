// Package middleware provides composable wrappers around a TranscriptStore:
// encryption at rest and PII redaction. Middlewares nest, so a store can be
// redacted and encrypted at once.
package middleware

import "github.com/aretw0/espalier/pkg/ports"

// Middleware allows wrapping a TranscriptStore to add behavior.
type Middleware func(ports.TranscriptStore) ports.TranscriptStore
