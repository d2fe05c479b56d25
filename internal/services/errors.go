package services

import "errors"

// ErrOrderNotFound is returned by order mutations when the order id is
// unknown to the local store.
var ErrOrderNotFound = errors.New("order not found")
