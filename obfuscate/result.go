package obfuscate

// MetadataMap arbitrary values a tap attaches to a work unit
type MetadataMap map[string]interface{}

// Result represents the progress details of a Task
type Result struct {
	// Status the status of the operation
	Status Status

	// Error the error details of a failed Task
	Error error

	Metadata MetadataMap
}
