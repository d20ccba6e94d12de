package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// ============================================
// Tracing Fields (Context level)
// Propagated through the call chain of one request
// ============================================

const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldSkillID is the generated skill ID
	FieldSkillID = "skill_id"

	// FieldSlug is the normalized skill name derived from the prompt
	FieldSlug = "slug"

	// FieldClientKey is the voter identifier (already hashed by the caller)
	FieldClientKey = "client_key"
)

// ============================================
// Metric Fields (Entry level)
// Used for aggregation and alerting
// ============================================

const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldSize is the data size in bytes
	FieldSize = "size"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldWordCount is the number of words in generated content
	FieldWordCount = "word_count"
)
