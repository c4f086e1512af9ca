package ports

import (
	"context"
	"iter"
)

// Watcher reports edits to geometry files.
//
//go:generate go run go.uber.org/mock/mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start watches files until ctx is done or Stop is called.
	Start(ctx context.Context, files []string) error
	// Stop releases the underlying watches and ends Changes.
	Stop() error
	// Changes yields batches of edited files, sorted and deduplicated.
	Changes() iter.Seq[[]string]
}
