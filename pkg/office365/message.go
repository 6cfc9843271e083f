// Package office365 (message.go) implements the deferred operations on a
// message: send, reply, forward, move, property updates and MIME content
// download. Every method queues work; nothing touches the network until the
// queue is flushed.
package office365

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// adoptServerID returns an after-hook that rebinds the message to its
// server-assigned resource URL once a creating query has been decoded.
func (m *Message) adoptServerID(collectionURL string) func(*http.Response) error {
	return func(*http.Response) error {
		if m.ID == "" {
			return fmt.Errorf("%w: created message carries no id", ErrDecodingFailed)
		}
		m.SetURL(collectionURL + "/" + url.PathEscape(m.ID))
		return nil
	}
}

// Attachments navigates to the message's attachment collection. The message
// must already have a server-assigned ID (created drafts gain one when the
// queue is flushed).
func (m *Message) Attachments() *AttachmentCollection {
	return &AttachmentCollection{queue: m.Queue(), url: m.URL() + "/attachments"}
}

// Send queues sending of a draft message. The draft can be a new message,
// reply draft, reply-all draft, or forward draft; it is saved in Sent Items.
func (m *Message) Send() {
	m.Queue().Add(&Query{Method: "POST", URL: m.URL() + "/send"})
}

// Reply queues a reply to the sender with the given comment. The reply is
// sent immediately on flush and saved in Sent Items.
func (m *Message) Reply(comment string) {
	m.Queue().Add(&Query{
		Method:  "POST",
		URL:     m.URL() + "/reply",
		Payload: map[string]any{"comment": comment},
	})
}

// ReplyAll queues a reply to the sender and all recipients.
func (m *Message) ReplyAll(comment string) {
	m.Queue().Add(&Query{
		Method:  "POST",
		URL:     m.URL() + "/replyAll",
		Payload: map[string]any{"comment": comment},
	})
}

// CreateReply queues creation of a reply draft. The returned message can be
// updated and sent once the queue has been flushed.
func (m *Message) CreateReply() *Message {
	return m.createDraftOperation("createReply")
}

// CreateReplyAll queues creation of a reply-all draft.
func (m *Message) CreateReplyAll() *Message {
	return m.createDraftOperation("createReplyAll")
}

// CreateForward queues creation of a forward draft.
func (m *Message) CreateForward() *Message {
	return m.createDraftOperation("createForward")
}

func (m *Message) createDraftOperation(operation string) *Message {
	draft := &Message{}
	draft.Bind(m.Queue(), "")

	parentCollection := parentCollectionURL(m.URL())
	m.Queue().Add(&Query{
		Method: "POST",
		URL:    m.URL() + "/" + operation,
		Result: draft,
		After:  draft.adoptServerID(parentCollection),
	})
	return draft
}

// Forward queues forwarding of the message to the given recipients. The
// comment may be empty.
func (m *Message) Forward(toRecipients []string, comment string) {
	m.Queue().Add(&Query{
		Method: "POST",
		URL:    m.URL() + "/forward",
		Payload: map[string]any{
			"toRecipients": recipientsFromEmails(toRecipients),
			"comment":      comment,
		},
	})
}

// Move queues moving the message to another folder, identified by ID or
// well-known name. The moved copy's properties land back in the receiver on
// flush; the message is rebound to the destination folder.
func (m *Message) Move(destinationID string) {
	destCollection := destinationMessagesURL(m.URL(), destinationID)
	m.Queue().Add(&Query{
		Method:  "POST",
		URL:     m.URL() + "/move",
		Payload: map[string]any{"destinationId": destinationID},
		Result:  m,
		After:   m.adoptServerID(destCollection),
	})
}

// Copy queues copying the message to another folder and returns the bound
// copy, populated on flush.
func (m *Message) Copy(destinationID string) *Message {
	dup := &Message{}
	dup.Bind(m.Queue(), "")

	destCollection := destinationMessagesURL(m.URL(), destinationID)
	m.Queue().Add(&Query{
		Method:  "POST",
		URL:     m.URL() + "/copy",
		Payload: map[string]any{"destinationId": destinationID},
		Result:  dup,
		After:   dup.adoptServerID(destCollection),
	})
	return dup
}

// Delete queues deletion of the message.
func (m *Message) Delete() {
	m.Queue().Add(&Query{Method: "DELETE", URL: m.URL()})
}

// Update queues a PATCH carrying the locally modified properties recorded by
// the setters. The pending change set is consumed; a flush with no recorded
// changes is a no-op.
func (m *Message) Update() {
	if !m.HasChanges() {
		return
	}
	m.Queue().Add(&Query{
		Method:  "PATCH",
		URL:     m.URL(),
		Payload: m.TakeChanges(),
		Result:  m,
	})
}

// SetSubject records a subject change for the next Update.
func (m *Message) SetSubject(subject string) {
	m.Subject = subject
	m.Set("subject", subject)
}

// SetBody records a body change for the next Update.
func (m *Message) SetBody(body ItemBody) {
	m.Body = body
	m.Set("body", body)
}

// SetToRecipients records a recipient change for the next Update.
func (m *Message) SetToRecipients(addresses ...string) {
	m.ToRecipients = recipientsFromEmails(addresses)
	m.Set("toRecipients", m.ToRecipients)
}

// SetImportance records an importance change ("low", "normal", "high").
func (m *Message) SetImportance(importance string) {
	m.Importance = importance
	m.Set("importance", importance)
}

// SetIsRead records a read-state change for the next Update.
func (m *Message) SetIsRead(isRead bool) {
	m.IsRead = isRead
	m.Set("isRead", isRead)
}

// Content queues retrieval of the message's MIME content ($value); the raw
// bytes are placed in result when the queue is flushed.
func (m *Message) Content(result *Result[[]byte]) {
	m.Queue().Add(&Query{
		Method: "GET",
		URL:    m.URL() + "/$value",
		Result: &result.Value,
	})
}

// Download queues retrieval of the MIME content and writes it to w during
// the flush, once the content query has completed.
func (m *Message) Download(w io.Writer) {
	var result Result[[]byte]
	m.Queue().Add(&Query{
		Method: "GET",
		URL:    m.URL() + "/$value",
		Result: &result.Value,
		After: func(*http.Response) error {
			if _, err := w.Write(result.Value); err != nil {
				return fmt.Errorf("writing message content: %w", err)
			}
			return nil
		},
	})
}

// parentCollectionURL strips the last path segment, turning a message URL
// into its parent collection URL.
func parentCollectionURL(messageURL string) string {
	for i := len(messageURL) - 1; i >= 0; i-- {
		if messageURL[i] == '/' {
			return messageURL[:i]
		}
	}
	return messageURL
}

// destinationMessagesURL rewrites a message URL to the message collection of
// the destination folder, anchored at the same mailbox.
func destinationMessagesURL(messageURL, destinationID string) string {
	mailbox := messageURL
	if i := strings.Index(mailbox, "/mailFolders/"); i >= 0 {
		mailbox = mailbox[:i]
	} else if i := strings.Index(mailbox, "/messages/"); i >= 0 {
		mailbox = mailbox[:i]
	}
	return mailbox + "/mailFolders/" + url.PathEscape(destinationID) + "/messages"
}
