package domain

// DefaultPriority is the priority an element ranks at when Priority is left
// at its zero value. It is a fixed constant so sibling ordering stays
// deterministic when priorities are unspecified.
const DefaultPriority = 0

// Well-known prop keys shared between the compiler, the registry components
// and the serving adapters.
const (
	// KeySession carries the transcript session ID into history components.
	KeySession = "session"
)
