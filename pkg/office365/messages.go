// Package office365 (messages.go) implements the message collection: draft
// creation through the deferred queue, immediate listings with pagination,
// and delta synchronization cursors.
package office365

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// MessageCollection addresses the messages under a user or mail folder.
type MessageCollection struct {
	queue *Queue
	url   string
}

// URL returns the collection's resource URL.
func (mc *MessageCollection) URL() string { return mc.url }

// Add queues creation of a draft message and returns the bound Message.
// The server-assigned ID and resource URL become available after the queue
// is flushed; until then the returned message must not be operated on.
func (mc *MessageCollection) Add(subject string, body ItemBody, toRecipients ...string) *Message {
	m := &Message{
		Subject:      subject,
		Body:         body,
		ToRecipients: recipientsFromEmails(toRecipients),
	}
	m.Bind(mc.queue, "")

	payload := map[string]any{
		"subject":      subject,
		"body":         body,
		"toRecipients": m.ToRecipients,
	}

	mc.queue.Add(&Query{
		Method:  "POST",
		URL:     mc.url,
		Payload: payload,
		Result:  m,
		After:   m.adoptServerID(mc.url),
	})
	return m
}

// GetByID returns the resource object for a message by ID without fetching
// it. Combine with Load and ExecuteQuery to populate its properties.
func (mc *MessageCollection) GetByID(id string) *Message {
	m := &Message{ID: id}
	m.Bind(mc.queue, mc.url+"/"+url.PathEscape(id))
	return m
}

// List retrieves messages immediately, following @odata.nextLink per the
// paging settings. It returns the messages, the next link (empty when
// exhausted), and an error.
func (mc *MessageCollection) List(ctx context.Context, paging Paging) ([]Message, string, error) {
	initialURL := mc.url
	if paging.Top > 0 {
		initialURL += fmt.Sprintf("?$top=%d", paging.Top)
	}

	raw, nextLink, err := mc.queue.client.collectAllPages(ctx, initialURL, paging)
	if err != nil {
		return nil, "", err
	}

	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		var m Message
		if err := json.Unmarshal(item, &m); err != nil {
			return nil, "", fmt.Errorf("%w: decoding message: %w", ErrDecodingFailed, err)
		}
		m.Bind(mc.queue, mc.url+"/"+url.PathEscape(m.ID))
		messages = append(messages, m)
	}
	return messages, nextLink, nil
}

// Delta runs a delta query against the collection. Pass an empty cursor to
// start tracking, a nextLink to continue paging through the current round,
// or a deltaLink from a previous round to fetch changes since then. Bound
// resource objects are returned along with the fresh cursors.
func (mc *MessageCollection) Delta(ctx context.Context, cursor string) (MessageDelta, error) {
	var delta MessageDelta

	deltaURL := cursor
	if deltaURL == "" {
		deltaURL = mc.url + "/delta"
	}

	if err := mc.queue.client.getJSON(ctx, deltaURL, &delta, "message delta"); err != nil {
		return delta, err
	}

	for i := range delta.Value {
		delta.Value[i].Bind(mc.queue, mc.url+"/"+url.PathEscape(delta.Value[i].ID))
	}
	return delta, nil
}
