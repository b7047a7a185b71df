package sourcing

import "errors"

// Error kinds. Match them with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrAuth          = errors.New("invalid credentials")
	ErrRateLimit     = errors.New("rate limited")
	ErrEmptyResponse = errors.New("empty response")
	ErrExhausted     = errors.New("no more candidates")
)

const (
	msgEmptyDescription   = "job description is required"
	msgNoKeywords         = "No keywords provided for search"
	msgInvalidAIKey       = "Invalid API key. Please check your configuration."
	msgInvalidGitHubToken = "Invalid GitHub token. Please check your configuration."
	msgExtractFailed      = "Failed to extract keywords: "
	msgNoContent          = "text service returned no content"
	msgRateLimited        = "GitHub API rate limit exceeded. Please try again in a few minutes."
	msgExhausted          = "No more candidates available. Try adjusting the job description."
	msgUnexpected         = "An unexpected error occurred while searching for candidates."

	// TokenLimitMessage replaces the justification once the daily budget is spent.
	TokenLimitMessage = "Token limit reached. Please try again tomorrow."
	// UnableToJustifyMessage replaces the justification when generation fails.
	UnableToJustifyMessage = "Unable to generate justification due to an error."
)

// Error is the single error type surfaced by the pipeline's top-level calls.
// Message is safe to show to a human as is.
type Error struct {
	// Kind is one of the Err* sentinels, nil for unclassified upstream failures.
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func validationError(message string) *Error {
	return &Error{Kind: ErrValidation, Message: message}
}
