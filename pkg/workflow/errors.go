package workflow

// ValidationError is returned for input rejected before any request is
// made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
