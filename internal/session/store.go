// Package session persists the small amount of visitor state the widget keeps
// between visits: the opaque client identifier issued by the backend.
package session

import (
	"context"
	"errors"
)

// UIDKey is the storage key of the client identifier.
const UIDKey = "docvia_uid"

var ErrNotFound = errors.New("session store: not found")

// Store is a get/set key-value capability. Get returns ErrNotFound for keys
// that were never set.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}
