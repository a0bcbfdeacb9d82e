// Kunhua Huang 2026

package registry

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already registered")
)

// Registry tracks the connections that currently have a running worker.
// Implementations must hold their lock only for the map operation itself,
// never across network I/O.
type Registry interface {
	Insert(handle Handle) error
	Remove(key string) error
	Snapshot() []Handle
	Len() int
}
