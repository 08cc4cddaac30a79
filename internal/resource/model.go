package resource

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("resource not found")
	ErrEmptyName = errors.New("name cannot be empty")
)

// Resource is an opaque bookable entity. It is provisioned out-of-band
// and is never mutated by the booking engine beyond creation.
type Resource struct {
	ID        string
	Name      string
	CreatedAt time.Time
}
