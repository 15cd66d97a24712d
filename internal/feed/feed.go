// Package feed is the change notification layer: row-level mutation events
// published per table, filterable by column equality. Consumers treat any
// delivered event as a signal to refetch; there is no ordering or delivery
// guarantee beyond best-effort broadcast.
package feed

import "context"

// Kind identifies the mutation type of an event.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Mask selects which event kinds a subscription wants.
type Mask uint8

const (
	MaskInsert Mask = 1 << iota
	MaskUpdate
	MaskDelete
	MaskAll = MaskInsert | MaskUpdate | MaskDelete
)

// Has reports whether the mask includes the given kind.
func (m Mask) Has(k Kind) bool {
	switch k {
	case KindInsert:
		return m&MaskInsert != 0
	case KindUpdate:
		return m&MaskUpdate != 0
	case KindDelete:
		return m&MaskDelete != 0
	}
	return false
}

// Event is one row-level mutation. Row carries the column values a
// subscriber may filter on (stringified, e.g. uuids).
type Event struct {
	Table string            `json:"table"`
	Kind  Kind              `json:"kind"`
	Row   map[string]string `json:"row,omitempty"`
}

// Filter is a single column equality predicate. The zero Filter matches
// every event.
type Filter struct {
	Column string
	Value  string
}

// Matches reports whether the event's row satisfies the filter.
func (f Filter) Matches(e Event) bool {
	if f.Column == "" {
		return true
	}
	return e.Row[f.Column] == f.Value
}

// Subscription is a live registration on the feed. Unsubscribe must be
// called on every exit path; it stops delivery and releases the underlying
// connection.
type Subscription interface {
	Unsubscribe()
}

// Bus is the publish/subscribe contract the business layer depends on.
type Bus interface {
	Publish(ctx context.Context, e Event) error
	Subscribe(ctx context.Context, table string, filter Filter, mask Mask, fn func(Event)) (Subscription, error)
}
