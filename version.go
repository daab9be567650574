package espalier

// Version is the library version, surfaced by the CLI and the server info
// endpoints.
const Version = "0.2.0"
