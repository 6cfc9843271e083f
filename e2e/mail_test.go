//go:build e2e

package e2e

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/office365go/office365-client/pkg/office365"
)

func TestE2EGetMe(t *testing.T) {
	h := NewE2ETestHelper(t)
	ctx, cancel := context.WithTimeout(context.Background(), h.Config.Timeout)
	defer cancel()

	user, err := h.SDK.GetMe(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, user.UserPrincipalName)
}

func TestE2EListInbox(t *testing.T) {
	h := NewE2ETestHelper(t)
	ctx, cancel := context.WithTimeout(context.Background(), h.Config.Timeout)
	defer cancel()

	messages, _, err := h.SDK.ListMessages(ctx, "inbox", office365.Paging{Top: 5})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(messages), 5)
}

func TestE2ESendAndReceive(t *testing.T) {
	h := NewE2ETestHelper(t)
	if h.Config.Mailbox == "" {
		t.Skip("OFFICE365_E2E_MAILBOX not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.Config.Timeout)
	defer cancel()

	subject := "E2E test " + h.TestID
	err := h.SDK.SendMessage(ctx, subject, office365.TextBody("automated test message"), []string{h.Config.Mailbox})
	require.NoError(t, err)
}

func TestE2EBatchGet(t *testing.T) {
	h := NewE2ETestHelper(t)
	ctx, cancel := context.WithTimeout(context.Background(), h.Config.Timeout)
	defer cancel()

	messages, _, err := h.SDK.ListMessages(ctx, "inbox", office365.Paging{Top: 3})
	require.NoError(t, err)
	if len(messages) < 2 {
		t.Skip("inbox has too few messages for a batch test")
	}

	ids := []string{messages[0].ID, messages[1].ID}
	fetched, err := h.SDK.GetMessages(ctx, ids, true)
	require.NoError(t, err)
	require.Len(t, fetched, 2)
	assert.Equal(t, ids[0], fetched[0].ID)
	assert.Equal(t, ids[1], fetched[1].ID)
}

func TestE2EAttachLargeFile(t *testing.T) {
	h := NewE2ETestHelper(t)
	if h.Config.Mailbox == "" {
		t.Skip("OFFICE365_E2E_MAILBOX not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.Config.Timeout)
	defer cancel()

	// Large enough to force the upload session path.
	size := int64(office365.MaxInlineAttachmentSize + office365.DefaultAttachmentChunkSize)
	if size > h.Config.MaxFileSize {
		t.Skipf("file size %d exceeds OFFICE365_E2E_MAX_FILE_SIZE", size)
	}
	localPath := h.CreateTempFile(t, size)

	drafts, _, err := h.SDK.ListMessages(ctx, "drafts", office365.Paging{Top: 1})
	require.NoError(t, err)
	if len(drafts) == 0 {
		t.Skip("no draft message available to attach to")
	}

	var lastUploaded int64
	err = h.SDK.AttachFile(ctx, drafts[0].ID, localPath, func(uploaded, total int64) {
		assert.GreaterOrEqual(t, uploaded, lastUploaded)
		assert.Equal(t, size, total)
		lastUploaded = uploaded
	})
	require.NoError(t, err)
	assert.Equal(t, size, lastUploaded)

	attachments, err := h.SDK.ListAttachments(ctx, drafts[0].ID)
	require.NoError(t, err)
	assert.NotEmpty(t, attachments)
}
