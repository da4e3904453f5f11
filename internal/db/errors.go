package db

import "errors"

// ErrNotFound marks a lookup or referenced id that matched no row. Store
// methods wrap it with the entity and id, so callers test with errors.Is.
var ErrNotFound = errors.New("not found")
