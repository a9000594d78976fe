package newsletter

import "errors"

var (
	// ErrNotFound signals an unknown subscriber id, token or email.
	ErrNotFound = errors.New("subscriber not found")

	// ErrDuplicate signals an insert for an email that is already registered.
	ErrDuplicate = errors.New("email already subscribed")

	// ErrNoActiveRecipients aborts a broadcast before any transport call.
	ErrNoActiveRecipients = errors.New("no active recipients")

	// ErrMailerNotConfigured is the fatal precondition failure for any send.
	ErrMailerNotConfigured = errors.New("mail transport is not configured")
)
