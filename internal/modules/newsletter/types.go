package newsletter

import "fmt"

// SendRequest describes one campaign run. Exactly one of TestEmail or
// SendToAll must be set; the request is never persisted.
type SendRequest struct {
	Subject     string `json:"subject"`
	HTMLContent string `json:"htmlContent"`
	TestEmail   string `json:"testEmail"`
	SendToAll   bool   `json:"sendToAll"`
}

// SendError is one recipient-level delivery failure.
type SendError struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// Report aggregates the outcome of a single campaign run. Errors holds at
// most the engine's configured sample size so the response payload stays
// bounded even for very large lists.
type Report struct {
	Total  int         `json:"total"`
	Sent   int         `json:"sent"`
	Failed int         `json:"failed"`
	Errors []SendError `json:"errors"`
}

// ImportError is one row-level persistence failure, tagged with the email
// from the offending row.
type ImportError struct {
	Email string `json:"email"`
	Error string `json:"error"`
}

// ImportResult is the four-way breakdown of a bulk import so operators can
// tell "nothing new" from "something broke".
type ImportResult struct {
	Total      int           `json:"total"`
	Imported   int           `json:"imported"`
	Duplicates int           `json:"duplicates"`
	Invalid    int           `json:"invalid"`
	Errors     []ImportError `json:"errors"`
}

// ValidationError marks a malformed request, rejected before any side effect.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
