// Package storage defines interfaces and implementations for section
// statistics storage backends.
package storage

import (
	"context"
	"sync"

	"github.com/hydrolab/fishpass/internal/types"
)

// StorageEngineInterface is an interface that provides a few standardized
// methods for various storage backends.  An engine consumes rows from the
// returned channel until it is closed, then flushes its output and marks
// the WaitGroup done.
type StorageEngineInterface interface {
	StartStorageEngine(context.Context, *sync.WaitGroup) chan<- types.SectionRow
}
