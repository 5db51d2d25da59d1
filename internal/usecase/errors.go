package usecase

// DomainError: the request itself is wrong (validation, business rule).
// Recoverable by the caller fixing its input.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	_, ok := err.(*DomainError)
	return ok
}

// TechnicalError: an infrastructure collaborator failed (database, blob
// store, queue). The action is retryable and must never be swallowed
// silently, that would lose lead data the user believes was saved.
type TechnicalError struct {
	Code    string
	Message string
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func IsTechnicalError(err error) bool {
	_, ok := err.(*TechnicalError)
	return ok
}
