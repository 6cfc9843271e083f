// Package office365 (queue.go) implements the deferred query queue that
// underpins the resource types. Resource methods do not perform HTTP calls;
// they append Query values to a Queue, and the whole chain is dispatched when
// the caller invokes ExecuteQuery or ExecuteBatch.
package office365

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Query is a single deferred REST operation.
type Query struct {
	// Method and URL identify the request. URL is absolute.
	Method string
	URL    string

	// Payload, when non-nil, is marshalled to JSON as the request body.
	// ContentType defaults to application/json for JSON payloads.
	Payload     any
	ContentType string

	// Result, when non-nil, receives the decoded response body. A *[]byte
	// destination receives the raw bytes; anything else is JSON-decoded.
	Result any

	// Before runs on the built request just before dispatch, after queue-wide
	// hooks. After runs once the response has been processed; the body has
	// already been consumed at that point.
	Before func(*http.Request)
	After  func(*http.Response) error
}

// Queue accumulates deferred queries for a client context. Queries execute
// in FIFO order. A Queue is safe for concurrent Add calls, though flushing
// concurrently with building is not meaningful.
type Queue struct {
	client  *Client
	rootURL string // service root, used to relativize URLs for $batch

	mu      sync.Mutex
	pending []*Query
	headers map[string]string
	before  []func(*http.Request)
	after   []func(*http.Response) error
}

// NewQueue creates a queue bound to a client. rootURL is the service root
// used to relativize URLs when flushing through $batch; pass "" for services
// without JSON batching (SharePoint REST).
func NewQueue(client *Client, rootURL string) *Queue {
	return &Queue{client: client, rootURL: rootURL}
}

// Add appends a query to the queue.
func (q *Queue) Add(qry *Query) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, qry)
}

// Len reports the number of pending queries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Clear discards all pending queries and one-shot hooks.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = nil
	q.before = nil
	q.after = nil
}

// SetDefaultHeader sets a header applied to every request built by this
// queue. The SharePoint context uses this for OData accept headers.
func (q *Queue) SetDefaultHeader(key, value string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.headers == nil {
		q.headers = map[string]string{}
	}
	q.headers[key] = value
}

// BeforeExecute registers a one-shot hook that customizes the next request
// dispatched by ExecuteQuery, then is discarded.
func (q *Queue) BeforeExecute(f func(*http.Request)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.before = append(q.before, f)
}

// AfterExecute registers a one-shot hook invoked after the next request
// dispatched by ExecuteQuery completes, then is discarded.
func (q *Queue) AfterExecute(f func(*http.Response) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.after = append(q.after, f)
}

// takeNext pops the next pending query together with the one-shot hooks that
// apply to it.
func (q *Queue) takeNext() (*Query, []func(*http.Request), []func(*http.Response) error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil, nil, nil
	}
	qry := q.pending[0]
	q.pending = q.pending[1:]
	before, after := q.before, q.after
	q.before, q.after = nil, nil
	return qry, before, after
}

// ExecuteQuery flushes the queue, dispatching pending queries sequentially
// in FIFO order. Execution stops at the first error; queries that were not
// yet dispatched remain queued. An empty flush is a no-op.
func (q *Queue) ExecuteQuery(ctx context.Context) error {
	for {
		qry, before, after := q.takeNext()
		if qry == nil {
			return nil
		}

		req, err := q.buildRequest(ctx, qry)
		if err != nil {
			return err
		}
		for _, f := range before {
			f(req)
		}
		if qry.Before != nil {
			qry.Before(req)
		}

		res, err := q.client.send(req)
		if err != nil {
			return fmt.Errorf("executing %s %s: %w", req.Method, req.URL, err)
		}

		if err := q.finishQuery(qry, res, after); err != nil {
			return err
		}
	}
}

// finishQuery decodes the response into the query's result destination and
// runs after hooks. The body is always closed.
func (q *Queue) finishQuery(qry *Query, res *http.Response, after []func(*http.Response) error) error {
	defer closeBodySafely(res.Body, q.client.logger, "query response")

	if qry.Result != nil {
		switch dest := qry.Result.(type) {
		case *[]byte:
			data, err := io.ReadAll(res.Body)
			if err != nil {
				return fmt.Errorf("reading response body: %w", err)
			}
			*dest = data
		default:
			data, err := io.ReadAll(res.Body)
			if err != nil {
				return fmt.Errorf("reading response body: %w", err)
			}
			// 204s and accepted mutations carry no payload; the destination
			// keeps its current value.
			if len(bytes.TrimSpace(data)) > 0 {
				if err := json.Unmarshal(data, dest); err != nil {
					return fmt.Errorf("%w: decoding query result: %w", ErrDecodingFailed, err)
				}
			}
		}
	}

	if qry.After != nil {
		if err := qry.After(res); err != nil {
			return err
		}
	}
	for _, f := range after {
		if err := f(res); err != nil {
			return err
		}
	}
	return nil
}

// buildRequest materializes a query into an http.Request.
func (q *Queue) buildRequest(ctx context.Context, qry *Query) (*http.Request, error) {
	var body io.Reader
	contentType := qry.ContentType
	if qry.Payload != nil {
		data, err := json.Marshal(qry.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshalling query payload: %w", err)
		}
		body = bytes.NewReader(data)
		if contentType == "" {
			contentType = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, qry.Method, qry.URL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s %s: %w", qry.Method, qry.URL, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("client-request-id", uuid.NewString())

	q.mu.Lock()
	for k, v := range q.headers {
		req.Header.Set(k, v)
	}
	q.mu.Unlock()

	return req, nil
}

// batchRequest and batchResponse model the Graph JSON batching envelope.
type batchRequest struct {
	ID      string            `json:"id"`
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

type batchResponse struct {
	Responses []struct {
		ID     string          `json:"id"`
		Status int             `json:"status"`
		Body   json.RawMessage `json:"body,omitempty"`
	} `json:"responses"`
}

// ExecuteBatch flushes the queue through the Graph $batch endpoint, in groups
// of at most 20 requests. Responses are correlated back to queries by
// generated request IDs and decoded into their result destinations.
//
// Queries carrying request/response hooks or raw byte results cannot be
// expressed in the batching envelope and must be flushed with ExecuteQuery;
// rejection leaves the queue untouched so that fallback remains possible.
// When a batch round trip fails, groups not yet dispatched stay queued.
func (q *Queue) ExecuteBatch(ctx context.Context) error {
	if q.rootURL == "" {
		return fmt.Errorf("%w: this queue has no batch endpoint", ErrInvalidRequest)
	}

	q.mu.Lock()
	for _, qry := range q.pending {
		if qry.Before != nil || qry.After != nil {
			q.mu.Unlock()
			return fmt.Errorf("%w: query %s %s has hooks and cannot be batched", ErrInvalidRequest, qry.Method, qry.URL)
		}
		if _, raw := qry.Result.(*[]byte); raw {
			q.mu.Unlock()
			return fmt.Errorf("%w: query %s %s has a raw result and cannot be batched", ErrInvalidRequest, qry.Method, qry.URL)
		}
	}
	q.mu.Unlock()

	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return nil
		}
		n := len(q.pending)
		if n > maxBatchSize {
			n = maxBatchSize
		}
		chunk := q.pending[:n]
		q.pending = q.pending[n:]
		q.mu.Unlock()

		if err := q.sendBatch(ctx, chunk); err != nil {
			return err
		}
	}
}

func (q *Queue) sendBatch(ctx context.Context, queries []*Query) error {
	byID := make(map[string]*Query, len(queries))
	requests := make([]batchRequest, 0, len(queries))

	for _, qry := range queries {
		id := uuid.NewString()
		byID[id] = qry

		br := batchRequest{
			ID:     id,
			Method: qry.Method,
			URL:    relativizeBatchURL(qry.URL, q.rootURL),
		}
		if qry.Payload != nil {
			data, err := json.Marshal(qry.Payload)
			if err != nil {
				return fmt.Errorf("marshalling batch payload: %w", err)
			}
			br.Body = data
			br.Headers = map[string]string{"Content-Type": "application/json"}
		}
		requests = append(requests, br)
	}

	payload, err := json.Marshal(map[string]any{"requests": requests})
	if err != nil {
		return fmt.Errorf("marshalling batch envelope: %w", err)
	}

	res, err := q.client.apiCall(ctx, "POST", q.rootURL+"$batch", "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("executing batch: %w", err)
	}
	defer closeBodySafely(res.Body, q.client.logger, "batch response")

	var decoded batchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return fmt.Errorf("%w: decoding batch response: %w", ErrDecodingFailed, err)
	}

	for _, item := range decoded.Responses {
		qry, ok := byID[item.ID]
		if !ok {
			q.client.logger.Warnf("batch response with unknown id %q ignored", item.ID)
			continue
		}
		if item.Status >= 400 {
			return fmt.Errorf("batched %s %s: %w", qry.Method, qry.URL,
				mapServiceError(item.Status, http.StatusText(item.Status), item.Body))
		}
		if qry.Result != nil && len(item.Body) > 0 {
			if err := json.Unmarshal(item.Body, qry.Result); err != nil {
				return fmt.Errorf("%w: decoding batched result for %s: %w", ErrDecodingFailed, qry.URL, err)
			}
		}
	}
	return nil
}

// relativizeBatchURL turns an absolute Graph URL into the root-relative form
// the $batch envelope requires.
func relativizeBatchURL(rawURL, rootURL string) string {
	rel := strings.TrimPrefix(rawURL, rootURL)
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return rel
}

// Result is a typed holder for a deferred result. It is handed to resource
// operations before execution and populated during the flush.
type Result[T any] struct {
	Value T
}

// UnmarshalJSON decodes the service payload straight into Value, so a
// *Result[T] can sit in Query.Result for both sequential and batched flushes.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &r.Value)
}
