package office365

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withCustomEndpoints points the identity endpoints at a test server and
// restores the defaults when the test finishes.
func withCustomEndpoints(t *testing.T, authURL, tokenURL, deviceURL string) {
	t.Helper()
	oldAuth, oldToken, oldDevice := customAuthURL, customTokenURL, customDeviceURL
	SetCustomEndpoints(authURL, tokenURL, deviceURL)
	t.Cleanup(func() { SetCustomEndpoints(oldAuth, oldToken, oldDevice) })
}

func TestStartAuthenticationBuildsPKCEURL(t *testing.T) {
	ctx, cfg := GetOauth2Config("client-id")
	authURL, verifier, err := StartAuthentication(ctx, cfg)
	require.NoError(t, err)
	require.NotEmpty(t, verifier)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	query := parsed.Query()
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))
	assert.NotEmpty(t, query.Get("code_challenge"))
	assert.Contains(t, query.Get("scope"), "Mail.Send")
	assert.Contains(t, query.Get("scope"), "Sites.ReadWrite.All")
}

func TestStartAuthenticationRequiresContext(t *testing.T) {
	_, cfg := GetOauth2Config("client-id")
	_, _, err := StartAuthentication(nil, cfg) //nolint:staticcheck
	require.Error(t, err)
}

func TestCompleteAuthenticationSetsExpiry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		assert.Equal(t, "the-verifier", r.Form.Get("code_verifier"))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "abc123",
			"refresh_token": "ref456",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer ts.Close()

	withCustomEndpoints(t, customAuthURL, ts.URL, customDeviceURL)

	_, cfg := GetOauth2Config("client-id")
	token, err := CompleteAuthentication(context.Background(), cfg, "the-code", "the-verifier")
	require.NoError(t, err)
	assert.Equal(t, "abc123", token.AccessToken)
	assert.Equal(t, "ref456", token.RefreshToken)
	assert.False(t, token.Expiry.IsZero())
}

func TestInitiateDeviceCodeFlow(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client-id", r.Form.Get("client_id"))
		assert.Contains(t, r.Form.Get("scope"), "Mail.ReadWrite")

		json.NewEncoder(w).Encode(DeviceCodeResponse{
			DeviceCode:      "device-code",
			UserCode:        "ABCD1234",
			VerificationURI: "https://microsoft.com/devicelogin",
			ExpiresIn:       900,
			Interval:        5,
			Message:         "go sign in",
		})
	}))
	defer ts.Close()

	withCustomEndpoints(t, customAuthURL, customTokenURL, ts.URL)

	resp, err := InitiateDeviceCodeFlow("client-id", false)
	require.NoError(t, err)
	assert.Equal(t, "device-code", resp.DeviceCode)
	assert.Equal(t, "ABCD1234", resp.UserCode)
	assert.Equal(t, 5, resp.Interval)
}

func TestInitiateDeviceCodeFlowDefaultsExpiry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(DeviceCodeResponse{
			DeviceCode: "device-code",
			UserCode:   "ABCD1234",
		})
	}))
	defer ts.Close()

	withCustomEndpoints(t, customAuthURL, customTokenURL, ts.URL)

	resp, err := InitiateDeviceCodeFlow("client-id", false)
	require.NoError(t, err)
	assert.Equal(t, DefaultDeviceCodeExpiry*60, resp.ExpiresIn)
}

func TestVerifyDeviceCodeSetsExpiry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:device_code", r.Form.Get("grant_type"))
		assert.Equal(t, "device-code", r.Form.Get("device_code"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "abc123",
			"refresh_token": "ref456",
			"token_type":    "Bearer",
			"expires_in":    3600,
		})
	}))
	defer ts.Close()

	withCustomEndpoints(t, customAuthURL, ts.URL, customDeviceURL)

	token, err := VerifyDeviceCode("client-id", "device-code", false)
	require.NoError(t, err)
	assert.Equal(t, "abc123", token.AccessToken)
	assert.Equal(t, "ref456", token.RefreshToken)
	assert.True(t, token.Expiry.After(time.Now().Add(3590*time.Second)))
}

func TestVerifyDeviceCodePendingAndDeclined(t *testing.T) {
	tests := []struct {
		name      string
		oauthCode string
		expected  error
	}{
		{"pending", "authorization_pending", ErrAuthorizationPending},
		{"declined", "authorization_declined", ErrAuthorizationDeclined},
		{"expired", "expired_token", ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(map[string]string{
					"error":             tt.oauthCode,
					"error_description": "not yet",
				})
			}))
			defer ts.Close()

			withCustomEndpoints(t, customAuthURL, ts.URL, customDeviceURL)

			_, err := VerifyDeviceCode("client-id", "device-code", false)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}
