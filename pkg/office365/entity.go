// Package office365 (entity.go) provides the base type embedded by resource
// structs. An Entity remembers the queue it belongs to, its resource URL, and
// the set of locally modified properties awaiting a deferred PATCH.
package office365

import (
	"net/url"
	"strings"
)

// Resource is anything addressable by a service URL and bound to a queue.
// All resource types satisfy it by embedding Entity.
type Resource interface {
	URL() string
	Queue() *Queue
}

// Entity is the common state of a resource object. The zero value is an
// unbound entity; Bind attaches it to a queue and a resource URL. Bind is
// exported for resource implementations in other packages (SharePoint).
type Entity struct {
	queue   *Queue
	url     string
	changes map[string]any
}

// Bind attaches the entity to a queue and resource URL.
func (e *Entity) Bind(queue *Queue, url string) {
	e.queue = queue
	e.url = url
}

// URL returns the entity's resource URL.
func (e *Entity) URL() string { return e.url }

// SetURL updates the resource URL, used once a server-assigned ID is known.
func (e *Entity) SetURL(url string) { e.url = url }

// Queue returns the queue the entity is bound to.
func (e *Entity) Queue() *Queue { return e.queue }

// Set records a pending property change. The change is not sent until an
// Update operation is queued and the queue is flushed.
func (e *Entity) Set(name string, value any) {
	if e.changes == nil {
		e.changes = map[string]any{}
	}
	e.changes[name] = value
}

// Changes returns a copy of the pending property changes.
func (e *Entity) Changes() map[string]any {
	out := make(map[string]any, len(e.changes))
	for k, v := range e.changes {
		out[k] = v
	}
	return out
}

// TakeChanges returns the pending property changes and clears them.
func (e *Entity) TakeChanges() map[string]any {
	changes := e.changes
	e.changes = nil
	return changes
}

// HasChanges reports whether any property changes are pending.
func (e *Entity) HasChanges() bool { return len(e.changes) > 0 }

// LoadOption customizes a deferred load query.
type LoadOption func(*loadOptions)

type loadOptions struct {
	selectFields []string
	expand       []string
}

// WithSelect restricts a load to the named properties ($select).
func WithSelect(fields ...string) LoadOption {
	return func(o *loadOptions) { o.selectFields = append(o.selectFields, fields...) }
}

// WithExpand expands the named relationships in the same round trip ($expand).
func WithExpand(relations ...string) LoadOption {
	return func(o *loadOptions) { o.expand = append(o.expand, relations...) }
}

// Load queues a GET of the resource; its fields are populated when the queue
// is flushed. This is the deferred counterpart of a direct fetch: several
// loads can ride a single ExecuteBatch call.
func Load(r Resource, opts ...LoadOption) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	target := r.URL()
	params := url.Values{}
	if len(o.selectFields) > 0 {
		params.Set("$select", strings.Join(o.selectFields, ","))
	}
	if len(o.expand) > 0 {
		params.Set("$expand", strings.Join(o.expand, ","))
	}
	if encoded := params.Encode(); encoded != "" {
		target += "?" + encoded
	}

	r.Queue().Add(&Query{
		Method: "GET",
		URL:    target,
		Result: r,
	})
}
