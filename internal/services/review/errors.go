package review

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition rejects a lifecycle move the state machine does
	// not allow (starting a started batch, finishing a pending one, any
	// move out of done).
	ErrInvalidTransition = errors.New("invalid batch transition")

	// ErrNotHolder rejects release/finish by a user who does not hold the
	// batch. The action must fail loudly, never be silently ignored.
	ErrNotHolder = errors.New("batch held by another user")

	ErrUnknownBatch = errors.New("unknown batch")

	ErrAuthentication = errors.New("authentication failed")
	ErrUserNotFound   = fmt.Errorf("%w: user not found", ErrAuthentication)
	ErrWrongPassword  = fmt.Errorf("%w: wrong password", ErrAuthentication)

	ErrAdminRequired = errors.New("admin role required")

	// ErrUnreadableUpload marks a whole-file parse failure, as opposed to
	// storage errors during the import itself.
	ErrUnreadableUpload = errors.New("unreadable upload")
)
