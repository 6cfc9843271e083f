package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadStateRoundTrip(t *testing.T) {
	m := NewManagerWithConfigDir(t.TempDir())

	state := &UploadState{
		UploadURL:          "https://upload.example.com/session/abc",
		ExpirationDateTime: time.Now().Add(time.Hour),
		LocalPath:          "/tmp/report.pdf",
		MessageID:          "m1",
		TotalBytes:         1 << 22,
		CompletedBytes:     1 << 20,
	}
	require.NoError(t, m.SaveUploadState(state))

	loaded, err := m.LoadUploadState("m1", "/tmp/report.pdf")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, state.UploadURL, loaded.UploadURL)
	assert.Equal(t, state.CompletedBytes, loaded.CompletedBytes)
}

func TestUploadStateMissingReturnsNil(t *testing.T) {
	m := NewManagerWithConfigDir(t.TempDir())

	loaded, err := m.LoadUploadState("m1", "/tmp/nothing.bin")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestUploadStateExpiredIsCleanedUp(t *testing.T) {
	m := NewManagerWithConfigDir(t.TempDir())

	state := &UploadState{
		UploadURL:          "https://upload.example.com/session/old",
		ExpirationDateTime: time.Now().Add(-time.Minute),
		LocalPath:          "/tmp/old.bin",
		MessageID:          "m1",
	}
	require.NoError(t, m.SaveUploadState(state))

	loaded, err := m.LoadUploadState("m1", "/tmp/old.bin")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestDeleteUploadStateIsIdempotent(t *testing.T) {
	m := NewManagerWithConfigDir(t.TempDir())
	require.NoError(t, m.DeleteUploadState("m1", "/tmp/nothing.bin"))
}

func TestUploadStatePathIsDeterministic(t *testing.T) {
	m := NewManagerWithConfigDir("/cfg")
	a := m.GetUploadStateFilePath("m1", "/tmp/a.bin")
	b := m.GetUploadStateFilePath("m1", "/tmp/a.bin")
	c := m.GetUploadStateFilePath("m2", "/tmp/a.bin")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestAuthStateRoundTrip(t *testing.T) {
	m := NewManagerWithConfigDir(t.TempDir())

	require.NoError(t, m.SaveAuthState(&AuthState{
		DeviceCode:      "device-code",
		VerificationURI: "https://microsoft.com/devicelogin",
		UserCode:        "ABCD1234",
		Interval:        5,
	}))

	loaded, err := m.LoadAuthState()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "device-code", loaded.DeviceCode)
	assert.Equal(t, "ABCD1234", loaded.UserCode)

	require.NoError(t, m.DeleteAuthState())
	loaded, err = m.LoadAuthState()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
