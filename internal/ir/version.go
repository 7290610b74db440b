package ir

// Version constants for the file format and the editor core.
const (
	// FormatVersion names the baseline file layout. It is not written to
	// disk: field order alone defines the schema and new fields are appended.
	FormatVersion = "1"

	// EngineVersion is the notelog core version.
	EngineVersion = "0.1.0"
)
