package ir

// Version constants for the IR schema and toolkit.
const (
	// IRVersion is the canonical circuit schema version. It is part of every
	// content hash, so bumping it invalidates cached results.
	IRVersion = "1"

	// ToolVersion is the qpass release version.
	ToolVersion = "0.1.0"
)
