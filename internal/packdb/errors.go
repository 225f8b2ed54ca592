package packdb

import "errors"

// Sentinel errors for the controller's failure classes. Validation
// failures wrap validate.ErrInvalid instead; lookups and Set*/Delete*
// calls on missing entities report soft not-found through their return
// values, not through an error.
var (
	// ErrClosed is returned by every operation on a closed controller.
	ErrClosed = errors.New("controller is closed")

	// ErrExists is returned when an add would duplicate an existing
	// server, channel, bot or pack key.
	ErrExists = errors.New("entity already exists")

	// ErrNoParent is returned when an add requires a parent entity
	// that has not been added yet.
	ErrNoParent = errors.New("parent entity does not exist")

	// ErrSameChannel rejects a bot move whose source and target
	// channel are identical.
	ErrSameChannel = errors.New("source and target channel are the same")

	// ErrCancelled resolves a Future whose task was cancelled while
	// still queued.
	ErrCancelled = errors.New("task cancelled before execution")
)
