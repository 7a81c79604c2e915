package domain

import "errors"

// ErrInvalidID is returned by stores when an identifier is not in the
// store's native format (ObjectID hex for Mongo, UUID for Postgres).
var ErrInvalidID = errors.New("invalid id")
