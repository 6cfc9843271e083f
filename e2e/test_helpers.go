//go:build e2e

package e2e

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"testing"

	"github.com/office365go/office365-client/internal/app"
	"github.com/office365go/office365-client/internal/config"
	"github.com/office365go/office365-client/internal/session"
	"github.com/office365go/office365-client/pkg/office365"
)

// E2ETestHelper provides an authenticated SDK and per-test identifiers for
// tests that talk to a real tenant.
type E2ETestHelper struct {
	SDK    app.SDK
	Config *Config
	TestID string
}

// NewE2ETestHelper builds the helper from a local config.json in the project
// root. Tests are skipped when no credentials are available.
func NewE2ETestHelper(t *testing.T) *E2ETestHelper {
	t.Helper()

	cfg := LoadConfig()

	raw, err := os.ReadFile("../config.json")
	if err != nil {
		t.Skip(`E2E testing setup required:

1. Authenticate once with the CLI: office365-client auth login
2. Copy your config to the project root:
   cp ~/.config/office365-client/config.json ./config.json
3. Optionally create a .env file with OFFICE365_E2E_MAILBOX and
   OFFICE365_E2E_SITE_URL.

The config.json is ignored by git.`)
	}

	var stored config.Configuration
	if err := json.Unmarshal(raw, &stored); err != nil {
		t.Fatalf("parsing config.json: %v", err)
	}
	if stored.Token.AccessToken == "" {
		t.Skip("config.json has no token; run 'office365-client auth login' first")
	}

	client := office365.NewClient(context.Background(), &stored.Token, config.ClientID, nil, nil)

	sessions := session.NewManagerWithConfigDir(t.TempDir())

	return &E2ETestHelper{
		SDK:    app.NewSDK(client, sessions),
		Config: cfg,
		TestID: generateTestID(),
	}
}

func generateTestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return "e2e-" + hex.EncodeToString(b)
}

// CreateTempFile writes size bytes of pseudo-random data to a temp file and
// returns its path. The file is removed on test cleanup.
func (h *E2ETestHelper) CreateTempFile(t *testing.T, size int64) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), h.TestID+"-*.bin")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	defer f.Close()

	buf := make([]byte, 64*1024)
	var written int64
	for written < size {
		n := int64(len(buf))
		if size-written < n {
			n = size - written
		}
		_, _ = rand.Read(buf[:n])
		if _, err := f.Write(buf[:n]); err != nil {
			t.Fatalf("writing temp file: %v", err)
		}
		written += n
	}
	return f.Name()
}
