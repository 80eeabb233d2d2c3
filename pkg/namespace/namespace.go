// Package namespace exposes the Kubernetes namespace collaborators the
// engine depends on: a snapshot + event stream source, and an annotation
// patcher. Both are reduced to the small capability set spec.md requires;
// everything else client-go offers is deliberately not exposed here.
package namespace

import (
	"context"
)

// EventType tags the kind of change a Stream event carries.
type EventType string

const (
	Added    EventType = "ADDED"
	Modified EventType = "MODIFIED"
	Deleted  EventType = "DELETED"
)

// Namespace is the reduced view of a Kubernetes namespace the engine reads
// and writes: a name and its annotation map.
type Namespace struct {
	Name        string
	Annotations map[string]string
}

// Event is one change observed on the namespace watch stream.
type Event struct {
	Type   EventType
	Object Namespace
}

// Source produces an initial snapshot of all namespaces, then a never-ending
// stream of change events with an event-type tag. No ordering between
// snapshot completion and stream start is assumed or required — the engine
// is idempotent.
type Source interface {
	// Snapshot returns every currently existing namespace exactly once.
	Snapshot(ctx context.Context) ([]Namespace, error)
	// Stream returns a channel of subsequent change events. The channel is
	// closed when ctx is canceled or the underlying watch ends.
	Stream(ctx context.Context) (<-chan Event, error)
}

// Annotator patches a namespace's annotation map. It has no read operation;
// annotations are read from the Namespace values a Source yields.
type Annotator interface {
	// Patch merges the given annotations onto the named namespace.
	Patch(ctx context.Context, name string, annotations map[string]string) error
}
