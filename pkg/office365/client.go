// Package office365 is a hand-rolled client library for the Microsoft Graph
// and SharePoint REST APIs. It exposes mailboxes, messages, attachments and
// SharePoint sites as resource objects bound to a deferred query queue:
// property reads and mutations are collected locally and only dispatched
// against the service when ExecuteQuery (or ExecuteBatch) is called.
package office365

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// Logger is the interface the SDK uses for logging. The internal/logger
// package provides a slog-backed implementation for the CLI; library users
// can plug in their own or leave the no-op default.
type Logger interface {
	Debug(msg string, args ...any)
	Debugf(format string, args ...any)
	Info(msg string, args ...any)
	Infof(format string, args ...any)
	Warn(msg string, args ...any)
	Warnf(format string, args ...any)
	Error(msg string, args ...any)
	Errorf(format string, args ...any)
}

// NoopLogger discards all log messages. It is the default when no logger is
// supplied to NewClient.
type NoopLogger struct{}

func (NoopLogger) Debug(msg string, args ...any)     {}
func (NoopLogger) Debugf(format string, args ...any) {}
func (NoopLogger) Info(msg string, args ...any)      {}
func (NoopLogger) Infof(format string, args ...any)  {}
func (NoopLogger) Warn(msg string, args ...any)      {}
func (NoopLogger) Warnf(format string, args ...any)  {}
func (NoopLogger) Error(msg string, args ...any)     {}
func (NoopLogger) Errorf(format string, args ...any) {}

// OAuth2 scopes and endpoints
var oAuthScopes = []string{
	"offline_access", "User.Read", "Mail.ReadWrite", "Mail.Send",
	"Sites.ReadWrite.All", "openid", "profile", "email",
}

const (
	oAuthAuthURL   = "https://login.microsoftonline.com/common/oauth2/v2.0/authorize"
	oAuthTokenURL  = "https://login.microsoftonline.com/common/oauth2/v2.0/token"
	oAuthDeviceURL = "https://login.microsoftonline.com/common/oauth2/v2.0/devicecode"
	graphRootURL   = "https://graph.microsoft.com/v1.0/"
)

var (
	customAuthURL   = oAuthAuthURL
	customTokenURL  = oAuthTokenURL
	customDeviceURL = oAuthDeviceURL
	customRootURL   = graphRootURL
)

// Sentinel errors. API failures are wrapped around one of these so callers
// can branch with errors.Is without parsing Graph error payloads themselves.
var (
	ErrReauthRequired        = errors.New("re-authentication required")
	ErrAccessDenied          = errors.New("access denied")
	ErrRetryLater            = errors.New("retry later")
	ErrInvalidRequest        = errors.New("invalid request")
	ErrResourceNotFound      = errors.New("resource not found")
	ErrConflict              = errors.New("conflict")
	ErrQuotaExceeded         = errors.New("quota exceeded")
	ErrAuthorizationPending  = errors.New("authorization pending")
	ErrAuthorizationDeclined = errors.New("authorization declined")
	ErrTokenExpired          = errors.New("token expired")
	ErrDecodingFailed        = errors.New("decoding response failed")
	ErrOperationFailed       = errors.New("operation failed")
)

// Token represents an OAuth2 token and is the canonical representation used
// by the SDK, so callers don't have to import golang.org/x/oauth2.
type Token oauth2.Token

// HTTPConfig controls timeouts and client-side throttling. Graph enforces
// per-mailbox throttling limits; the limiter keeps bursts of queued queries
// from tripping 429 responses in the first place.
type HTTPConfig struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// DefaultHTTPConfig returns the configuration used when none is supplied.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:           DefaultTimeout,
		RequestsPerSecond: DefaultRequestsPerSecond,
		Burst:             DefaultRequestBurst,
	}
}

// NewConfiguredHTTPClient returns a plain HTTP client honoring the configured
// timeout. Used for pre-authenticated URLs (attachment upload sessions) that
// must not carry an Authorization header.
func NewConfiguredHTTPClient(cfg HTTPConfig) *http.Client {
	return &http.Client{Timeout: cfg.Timeout}
}

// Client is the authenticated HTTP layer shared by the Graph and SharePoint
// resource packages. It handles token refresh persistence, client-side rate
// limiting and the mapping of service errors to sentinel errors.
type Client struct {
	httpClient *http.Client
	logger     Logger
	limiter    *rate.Limiter
	httpConfig HTTPConfig
}

// NewClient creates a new Office 365 client. It takes an initial token and a
// callback that is invoked whenever a new token is obtained after a refresh,
// so the application can persist it.
func NewClient(ctx context.Context, initialToken *Token, clientID string, onNewToken func(*Token) error, logger Logger) *Client {
	return NewClientWithConfig(ctx, initialToken, clientID, onNewToken, logger, DefaultHTTPConfig())
}

// NewClientWithConfig is NewClient with explicit HTTP configuration.
func NewClientWithConfig(ctx context.Context, initialToken *Token, clientID string, onNewToken func(*Token) error, logger Logger, httpConfig HTTPConfig) *Client {
	// The config only needs enough to drive token refreshes; the initial
	// token was obtained elsewhere (PKCE or device code flow).
	config := &oauth2.Config{
		ClientID: clientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:  customAuthURL,
			TokenURL: customTokenURL,
		},
		Scopes: oAuthScopes,
	}

	persistingSource := &persistingTokenSource{
		source:     config.TokenSource(ctx, (*oauth2.Token)(initialToken)),
		onNewToken: onNewToken,
		lastToken:  (*oauth2.Token)(initialToken),
	}

	if logger == nil {
		logger = NoopLogger{}
	}
	if httpConfig.RequestsPerSecond <= 0 {
		httpConfig.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if httpConfig.Burst <= 0 {
		httpConfig.Burst = DefaultRequestBurst
	}

	httpClient := oauth2.NewClient(ctx, persistingSource)
	httpClient.Timeout = httpConfig.Timeout

	return &Client{
		httpClient: httpClient,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(httpConfig.RequestsPerSecond), httpConfig.Burst),
		httpConfig: httpConfig,
	}
}

// SetLogger replaces the client's logger.
func (c *Client) SetLogger(l Logger) {
	if l == nil {
		l = NoopLogger{}
	}
	c.logger = l
}

// persistingTokenSource wraps an oauth2.TokenSource and invokes a callback to
// persist the token whenever it is refreshed.
type persistingTokenSource struct {
	source     oauth2.TokenSource
	onNewToken func(*Token) error
	mu         sync.Mutex // guards lastToken
	lastToken  *oauth2.Token
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	newToken, err := s.source.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastToken == nil || s.lastToken.AccessToken != newToken.AccessToken {
		s.lastToken = newToken
		if s.onNewToken != nil {
			if err := s.onNewToken((*Token)(newToken)); err != nil {
				return nil, fmt.Errorf("failed to persist new token: %w", err)
			}
		}
	}

	return newToken, nil
}

// send dispatches a fully-built request through the rate limiter and the
// authenticated client, and maps error responses to sentinel errors. The
// response is returned unread for statuses below 400.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.httpClient == nil {
		return nil, errors.New("HTTP client is nil, please provide a valid HTTP client")
	}

	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		// Token refresh failures surface here as oauth2.RetrieveError.
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			switch retrieveErr.ErrorCode {
			case "invalid_request", "invalid_client", "invalid_grant",
				"unauthorized_client", "unsupported_grant_type",
				"invalid_scope", "access_denied":
				return nil, fmt.Errorf("%w: %v", ErrReauthRequired, err)
			case "server_error", "temporarily_unavailable":
				return nil, fmt.Errorf("%w: %v", ErrRetryLater, err)
			default:
				return nil, fmt.Errorf("other oauth2 error: %v", err)
			}
		}
		return nil, fmt.Errorf("network error: %v", err)
	}

	if res.StatusCode >= 400 {
		defer res.Body.Close()
		return nil, mapServiceError(res.StatusCode, res.Status, []byte(readErrorBody(res.Body)))
	}

	return res, nil
}

// apiCall builds and sends a request. It retries once on 401 Unauthorized,
// rewinding the body so the oauth2 transport can refresh the token in
// between.
func (c *Client) apiCall(ctx context.Context, method, url, contentType string, body io.ReadSeeker) (*http.Response, error) {
	var res *http.Response
	var err error

	for attempt := 0; attempt < 2; attempt++ {
		c.logger.Debugf("apiCall: %s %s (attempt %d)", method, url, attempt+1)

		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return nil, fmt.Errorf("creating request failed: %v", err)
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("client-request-id", uuid.NewString())

		res, err = c.send(req)
		if err == nil || !errors.Is(err, ErrReauthRequired) {
			return res, err
		}

		// First attempt came back 401. Rewind the body and let the oauth2
		// transport refresh the token on the retry.
		c.logger.Debug("received 401, retrying once after token refresh")
		if body != nil {
			if _, seekErr := body.Seek(0, io.SeekStart); seekErr != nil {
				return nil, fmt.Errorf("failed to rewind request body for retry: %w", seekErr)
			}
		}
	}

	return res, err
}

// Call is the exported request primitive used by the SharePoint package and
// by applications needing raw access. Errors are mapped to the package's
// sentinel errors.
func (c *Client) Call(ctx context.Context, method, url, contentType string, body io.ReadSeeker) (*http.Response, error) {
	return c.apiCall(ctx, method, url, contentType, body)
}

// getJSON performs a GET and decodes the JSON response into dest.
func (c *Client) getJSON(ctx context.Context, url string, dest any, operation string) error {
	res, err := c.apiCall(ctx, "GET", url, "", nil)
	if err != nil {
		return err
	}
	defer closeBodySafely(res.Body, c.logger, operation)

	if err := json.NewDecoder(res.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: decoding %s response: %w", ErrDecodingFailed, operation, err)
	}
	return nil
}

// mapServiceError converts a Graph/SharePoint error response into a wrapped
// sentinel error. Both services use the OData error envelope
// {"error": {"code": ..., "message": ...}}.
func mapServiceError(statusCode int, status string, body []byte) error {
	var serviceError struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	jsonErr := json.Unmarshal(body, &serviceError)

	if jsonErr == nil && serviceError.Error.Code != "" {
		switch serviceError.Error.Code {
		case "accessDenied", "Forbidden":
			return fmt.Errorf("%w: %s", ErrAccessDenied, serviceError.Error.Message)
		case "activityLimitReached", "TooManyRequests":
			return fmt.Errorf("%w: %s", ErrRetryLater, serviceError.Error.Message)
		case "itemNotFound", "ErrorItemNotFound", "ResourceNotFound":
			return fmt.Errorf("%w: %s", ErrResourceNotFound, serviceError.Error.Message)
		case "nameAlreadyExists":
			return fmt.Errorf("%w: %s", ErrConflict, serviceError.Error.Message)
		case "invalidRange", "invalidRequest", "ErrorInvalidRecipients",
			"notAllowed", "notSupported", "resourceModified",
			"resyncRequired", "generalException":
			return fmt.Errorf("%w: %s", ErrInvalidRequest, serviceError.Error.Message)
		case "quotaLimitReached", "ErrorQuotaExceeded":
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, serviceError.Error.Message)
		case "unauthenticated", "InvalidAuthenticationToken":
			return fmt.Errorf("%w: %s", ErrReauthRequired, serviceError.Error.Message)
		case "serviceNotAvailable":
			return fmt.Errorf("%w: %s", ErrRetryLater, serviceError.Error.Message)
		default:
			return fmt.Errorf("service error: %s - %s", status, serviceError.Error.Message)
		}
	}

	switch statusCode {
	case http.StatusBadRequest, http.StatusMethodNotAllowed, http.StatusNotAcceptable,
		http.StatusLengthRequired, http.StatusPreconditionFailed,
		http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType,
		http.StatusRequestedRangeNotSatisfiable, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, serviceError.Error.Message)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrReauthRequired, serviceError.Error.Message)
	case http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAccessDenied, serviceError.Error.Message)
	case http.StatusGone, http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrResourceNotFound, serviceError.Error.Message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, serviceError.Error.Message)
	case http.StatusInsufficientStorage:
		return fmt.Errorf("%w: %s", ErrQuotaExceeded, serviceError.Error.Message)
	case http.StatusNotImplemented,
		http.StatusTooManyRequests,
		http.StatusInternalServerError, http.StatusServiceUnavailable, 509:
		return fmt.Errorf("%w: %s", ErrRetryLater, serviceError.Error.Message)
	default:
		return fmt.Errorf("HTTP error: %s - %s", status, serviceError.Error.Message)
	}
}

// collectAllPages follows @odata.nextLink to collect pages of a collection.
// It honors Paging: a NextLink resumes from a previous run, Top is applied to
// the first request, and FetchAll keeps following links until exhausted.
func (c *Client) collectAllPages(ctx context.Context, initialURL string, paging Paging) ([]json.RawMessage, string, error) {
	var allItems []json.RawMessage
	nextLink := initialURL

	if paging.NextLink != "" {
		nextLink = paging.NextLink
	}

	for nextLink != "" {
		res, err := c.apiCall(ctx, "GET", nextLink, "", nil)
		if err != nil {
			return nil, "", err
		}

		var page struct {
			Value    []json.RawMessage `json:"value"`
			NextLink string            `json:"@odata.nextLink"`
		}

		err = json.NewDecoder(res.Body).Decode(&page)
		closeBodySafely(res.Body, c.logger, "collection page")
		if err != nil {
			return nil, "", fmt.Errorf("%w: decoding page: %w", ErrDecodingFailed, err)
		}

		allItems = append(allItems, page.Value...)
		nextLink = page.NextLink

		if !paging.FetchAll {
			break
		}
	}

	return allItems, nextLink, nil
}
