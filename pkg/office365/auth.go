// Package office365 (auth.go) implements authentication against the
// Microsoft identity platform: the OAuth2 Authorization Code Grant with PKCE
// for browser-capable environments, and the Device Code Flow for headless
// CLIs.
package office365

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	cv "github.com/nirasan/go-oauth-pkce-code-verifier"
	"golang.org/x/oauth2"
)

// OAuthConfig is an alias for oauth2.Config, preconfigured for the Microsoft
// identity platform by GetOauth2Config.
type OAuthConfig oauth2.Config

// GetOauth2Config returns the OAuth2 configuration for the given application
// client ID, using the SDK's scopes and endpoints (overridable for tests via
// SetCustomEndpoints).
func GetOauth2Config(clientID string) (context.Context, *OAuthConfig) {
	ctx := context.Background()
	conf := &oauth2.Config{
		ClientID: clientID,
		Scopes:   oAuthScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  customAuthURL,
			TokenURL: customTokenURL,
		},
	}
	return ctx, (*OAuthConfig)(conf)
}

// apiCallWithDebug makes an unauthenticated HTTP request to the identity
// platform, with optional wire-level logging. OAuth error responses are
// mapped to sentinel errors so pollers can branch on authorization_pending.
func apiCallWithDebug(method, url, contentType string, body io.Reader, debug bool) (*http.Response, error) {
	var reqBodyBytes []byte
	if body != nil {
		var readErr error
		reqBodyBytes, readErr = io.ReadAll(body)
		if readErr != nil {
			log.Printf("Warning: Failed to read request body for logging: %v", readErr)
		}
		body = bytes.NewBuffer(reqBodyBytes)
	}

	req, err := http.NewRequest(method, url, body)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s %s failed: %w", method, url, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if debug {
		dump, err := httputil.DumpRequestOut(req, true)
		if err != nil {
			log.Println("Error dumping request:", err)
		} else {
			log.Printf("DEBUG Request:\n%s\n", string(dump))
		}
	}

	authClient := NewConfiguredHTTPClient(DefaultHTTPConfig())
	res, err := authClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("network error during API call to %s %s: %w", method, url, err)
	}

	if debug {
		dump, err := httputil.DumpResponse(res, true)
		if err != nil {
			log.Println("Error dumping response:", err)
		} else {
			log.Printf("DEBUG Response:\n%s\n", string(dump))
		}
	}

	if res.StatusCode >= http.StatusBadRequest {
		defer func() {
			if closeErr := res.Body.Close(); closeErr != nil {
				log.Printf("Warning: Failed to close OAuth error response body: %v", closeErr)
			}
		}()
		resBodyBytes, readErr := io.ReadAll(res.Body)
		if readErr != nil {
			log.Printf("Warning: Failed to read OAuth error response body: %v", readErr)
			return nil, fmt.Errorf("HTTP error %s from %s (could not read response body)", res.Status, url)
		}

		var oauthError struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}

		jsonErr := json.Unmarshal(resBodyBytes, &oauthError)
		if jsonErr == nil && oauthError.Error != "" {
			switch oauthError.Error {
			case "authorization_pending":
				return nil, ErrAuthorizationPending
			case "authorization_declined":
				return nil, ErrAuthorizationDeclined
			case "expired_token":
				return nil, ErrTokenExpired
			case "invalid_request", "invalid_grant":
				return nil, fmt.Errorf("%w: %s (OAuth server)", ErrInvalidRequest, oauthError.ErrorDescription)
			default:
				return nil, fmt.Errorf("OAuth authentication error '%s': %s", oauthError.Error, oauthError.ErrorDescription)
			}
		}
		return nil, fmt.Errorf("HTTP error %s from %s: %s", res.Status, url, string(resBodyBytes))
	}

	return res, nil
}

// StartAuthentication begins the Authorization Code Grant flow with PKCE. It
// generates a code verifier and challenge and returns the authorization URL
// the user should visit, along with the verifier the caller must keep for
// CompleteAuthentication.
func StartAuthentication(
	ctx context.Context,
	oauthConfig *OAuthConfig,
) (authURL string, codeVerifier string, err error) {
	if ctx == nil {
		return "", "", fmt.Errorf("context must not be nil for StartAuthentication")
	}

	var codeVerifierObj *cv.CodeVerifier
	codeVerifierObj, err = cv.CreateCodeVerifier()
	if err != nil {
		return "", "", fmt.Errorf("could not create PKCE code verifier: %w", err)
	}
	codeVerifier = codeVerifierObj.String()
	codeChallenge := codeVerifierObj.CodeChallengeS256()

	pkceParams := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("code_challenge", codeChallenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	}

	authURL = (*oauth2.Config)(oauthConfig).AuthCodeURL("state-does-not-matter", pkceParams...)
	return authURL, codeVerifier, nil
}

// CompleteAuthentication exchanges the authorization code from the PKCE
// redirect for a token. The verifier must be the one StartAuthentication
// returned.
//
// The Expiry field is set manually from "expires_in" when the exchange leaves
// it zero; the oauth2 token source needs a correct Expiry to know when to
// refresh.
func CompleteAuthentication(
	ctx context.Context,
	oauthConfig *OAuthConfig,
	code string,
	verifier string,
) (*Token, error) {
	pkceCodeVerifier := oauth2.SetAuthURLParam("code_verifier", verifier)
	token, err := (*oauth2.Config)(oauthConfig).Exchange(ctx, code, pkceCodeVerifier)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to exchange authorization code for token: %w", ErrOperationFailed, err)
	}

	if token.Expiry.IsZero() {
		if expiresIn, ok := token.Extra("expires_in").(float64); ok {
			token.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
		} else if expiresInStr, ok := token.Extra("expires_in").(string); ok {
			if expiresInDur, pErr := time.ParseDuration(expiresInStr + "s"); pErr == nil {
				token.Expiry = time.Now().Add(expiresInDur)
			}
		}
	}

	return (*Token)(token), nil
}

// InitiateDeviceCodeFlow starts the Device Code Flow for CLI logins. The
// returned response carries the user code and verification URI to display;
// the application then polls with VerifyDeviceCode at the given interval.
func InitiateDeviceCodeFlow(clientID string, debug bool) (*DeviceCodeResponse, error) {
	data := url.Values{}
	data.Set("client_id", clientID)
	data.Set("scope", strings.Join(oAuthScopes, " "))

	res, err := apiCallWithDebug("POST", customDeviceURL, "application/x-www-form-urlencoded", strings.NewReader(data.Encode()), debug)
	if err != nil {
		return nil, fmt.Errorf("requesting device code from %s: %w", customDeviceURL, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Printf("Warning: failed to close device code response body: %v", err)
		}
	}()

	var deviceCodeResponse DeviceCodeResponse
	if err := json.NewDecoder(res.Body).Decode(&deviceCodeResponse); err != nil {
		return nil, fmt.Errorf("%w: decoding device code response: %w", ErrDecodingFailed, err)
	}
	if deviceCodeResponse.ExpiresIn == 0 {
		deviceCodeResponse.ExpiresIn = DefaultDeviceCodeExpiry * 60
	}

	return &deviceCodeResponse, nil
}

// VerifyDeviceCode polls the token endpoint for the result of a device code
// login. While the user has not finished signing in it returns
// ErrAuthorizationPending; callers keep polling at the interval from the
// device code response until a token or a terminal error comes back.
func VerifyDeviceCode(clientID string, deviceCode string, debug bool) (*Token, error) {
	data := url.Values{}
	data.Set("grant_type", "urn:ietf:params:oauth:grant-type:device_code")
	data.Set("client_id", clientID)
	data.Set("device_code", deviceCode)

	res, err := apiCallWithDebug("POST", customTokenURL, "application/x-www-form-urlencoded", strings.NewReader(data.Encode()), debug)
	if err != nil {
		// apiCallWithDebug already maps "authorization_pending" and friends.
		return nil, fmt.Errorf("polling token endpoint %s: %w", customTokenURL, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Printf("Warning: failed to close token response body: %v", err)
		}
	}()

	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading token response body: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: retrieving token via device code failed with status %s: %s", ErrOperationFailed, res.Status, string(bodyBytes))
	}

	var token oauth2.Token
	if err := json.Unmarshal(bodyBytes, &token); err != nil {
		return nil, fmt.Errorf("%w: parsing token from device code response: %w", ErrDecodingFailed, err)
	}

	// Set Expiry from "expires_in" ourselves; the token source never
	// refreshes a token whose Expiry is zero.
	var expiresInHolder struct {
		ExpiresIn json.Number `json:"expires_in"`
	}
	if err := json.Unmarshal(bodyBytes, &expiresInHolder); err != nil {
		if debug {
			log.Printf("DEBUG: could not parse 'expires_in' field from token response: %v", err)
		}
	}

	if expiresInHolder.ExpiresIn != "" {
		if expiresInInt, err := expiresInHolder.ExpiresIn.Int64(); err == nil && expiresInInt > 0 {
			token.Expiry = time.Now().Add(time.Duration(expiresInInt) * time.Second)
		} else if debug {
			log.Printf("DEBUG: 'expires_in' field ('%s') could not be converted to int64: %v", expiresInHolder.ExpiresIn, err)
		}
	}

	return (*Token)(&token), nil
}
