package store

import "errors"

var (
	ErrNotFound = errors.New("item not found")
	ErrBadOwner = errors.New("owner is required")
	ErrBadID    = errors.New("malformed item id")
)

// Category is the coarse failure class callers map to user-facing
// messages. The store never translates errors into prose itself.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryPermission
	CategorySchema
)

// Error wraps a backend failure with its category. The underlying
// error stays reachable through Unwrap for logging.
type Error struct {
	Category Category
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CategoryOf extracts the failure category, CategoryUnknown when the
// error did not come out of a store backend.
func CategoryOf(err error) Category {
	var se *Error
	if errors.As(err, &se) {
		return se.Category
	}
	return CategoryUnknown
}
