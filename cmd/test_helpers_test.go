package cmd

import (
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/office365go/office365-client/internal/app"
	"github.com/office365go/office365-client/internal/config"
	"github.com/office365go/office365-client/pkg/office365"
	"github.com/office365go/office365-client/pkg/sharepoint"
)

// MockSDK is a mock implementation of the SDK interface for testing.
type MockSDK struct {
	GetMeFunc           func(ctx context.Context) (office365.User, error)
	ListMessagesFunc    func(ctx context.Context, folderID string, paging office365.Paging) ([]office365.Message, string, error)
	GetMessagesFunc     func(ctx context.Context, ids []string, useBatch bool) ([]office365.Message, error)
	SendMessageFunc     func(ctx context.Context, subject string, body office365.ItemBody, to []string) error
	ReplyMessageFunc    func(ctx context.Context, messageID, comment string, replyAll bool) error
	ForwardMessageFunc  func(ctx context.Context, messageID string, to []string, comment string) error
	MoveMessageFunc     func(ctx context.Context, messageID, destinationID string) error
	DeleteMessageFunc   func(ctx context.Context, messageID string) error
	DownloadMessageFunc func(ctx context.Context, messageID, localPath string) error
	AttachFileFunc      func(ctx context.Context, messageID, localPath string, progress func(uploaded, total int64)) error
	ListAttachmentsFunc func(ctx context.Context, messageID string) ([]office365.Attachment, error)
	CreateGroupSiteFunc func(ctx context.Context, siteURL, displayName, alias string, isPublic bool, description string) (sharepoint.GroupSiteInfo, error)
	GetSiteStatusFunc   func(ctx context.Context, siteURL, groupID string) (sharepoint.GroupSiteInfo, error)
	WaitForSiteFunc     func(ctx context.Context, siteURL, groupID string, interval time.Duration) (sharepoint.GroupSiteInfo, error)
	DeleteGroupSiteFunc func(ctx context.Context, siteURL, targetSiteURL string) error
}

func (m *MockSDK) GetMe(ctx context.Context) (office365.User, error) {
	if m.GetMeFunc != nil {
		return m.GetMeFunc(ctx)
	}
	return office365.User{}, nil
}

func (m *MockSDK) ListMessages(ctx context.Context, folderID string, paging office365.Paging) ([]office365.Message, string, error) {
	if m.ListMessagesFunc != nil {
		return m.ListMessagesFunc(ctx, folderID, paging)
	}
	return nil, "", nil
}

func (m *MockSDK) GetMessages(ctx context.Context, ids []string, useBatch bool) ([]office365.Message, error) {
	if m.GetMessagesFunc != nil {
		return m.GetMessagesFunc(ctx, ids, useBatch)
	}
	return nil, nil
}

func (m *MockSDK) SendMessage(ctx context.Context, subject string, body office365.ItemBody, to []string) error {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, subject, body, to)
	}
	return nil
}

func (m *MockSDK) ReplyMessage(ctx context.Context, messageID, comment string, replyAll bool) error {
	if m.ReplyMessageFunc != nil {
		return m.ReplyMessageFunc(ctx, messageID, comment, replyAll)
	}
	return nil
}

func (m *MockSDK) ForwardMessage(ctx context.Context, messageID string, to []string, comment string) error {
	if m.ForwardMessageFunc != nil {
		return m.ForwardMessageFunc(ctx, messageID, to, comment)
	}
	return nil
}

func (m *MockSDK) MoveMessage(ctx context.Context, messageID, destinationID string) error {
	if m.MoveMessageFunc != nil {
		return m.MoveMessageFunc(ctx, messageID, destinationID)
	}
	return nil
}

func (m *MockSDK) DeleteMessage(ctx context.Context, messageID string) error {
	if m.DeleteMessageFunc != nil {
		return m.DeleteMessageFunc(ctx, messageID)
	}
	return nil
}

func (m *MockSDK) DownloadMessage(ctx context.Context, messageID, localPath string) error {
	if m.DownloadMessageFunc != nil {
		return m.DownloadMessageFunc(ctx, messageID, localPath)
	}
	return nil
}

func (m *MockSDK) AttachFile(ctx context.Context, messageID, localPath string, progress func(uploaded, total int64)) error {
	if m.AttachFileFunc != nil {
		return m.AttachFileFunc(ctx, messageID, localPath, progress)
	}
	return nil
}

func (m *MockSDK) ListAttachments(ctx context.Context, messageID string) ([]office365.Attachment, error) {
	if m.ListAttachmentsFunc != nil {
		return m.ListAttachmentsFunc(ctx, messageID)
	}
	return nil, nil
}

func (m *MockSDK) CreateGroupSite(ctx context.Context, siteURL, displayName, alias string, isPublic bool, description string) (sharepoint.GroupSiteInfo, error) {
	if m.CreateGroupSiteFunc != nil {
		return m.CreateGroupSiteFunc(ctx, siteURL, displayName, alias, isPublic, description)
	}
	return sharepoint.GroupSiteInfo{}, nil
}

func (m *MockSDK) GetSiteStatus(ctx context.Context, siteURL, groupID string) (sharepoint.GroupSiteInfo, error) {
	if m.GetSiteStatusFunc != nil {
		return m.GetSiteStatusFunc(ctx, siteURL, groupID)
	}
	return sharepoint.GroupSiteInfo{}, nil
}

func (m *MockSDK) WaitForSite(ctx context.Context, siteURL, groupID string, interval time.Duration) (sharepoint.GroupSiteInfo, error) {
	if m.WaitForSiteFunc != nil {
		return m.WaitForSiteFunc(ctx, siteURL, groupID, interval)
	}
	return sharepoint.GroupSiteInfo{}, nil
}

func (m *MockSDK) DeleteGroupSite(ctx context.Context, siteURL, targetSiteURL string) error {
	if m.DeleteGroupSiteFunc != nil {
		return m.DeleteGroupSiteFunc(ctx, siteURL, targetSiteURL)
	}
	return nil
}

// newTestApp creates a new app instance with a mock SDK for testing.
func newTestApp(sdk app.SDK) *app.App {
	return &app.App{
		SDK:    sdk,
		Config: &config.Configuration{},
	}
}

// captureOutput captures stdout and stderr, returning them as a string.
// This version doesn't mutate global log state.
func captureOutput(t *testing.T, f func()) string {
	t.Helper()

	originalLogOutput := log.Writer()

	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	oldStderr := os.Stderr
	r2, w2, _ := os.Pipe()
	os.Stderr = w2
	log.SetOutput(w2)

	f()

	w.Close()
	w2.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr
	log.SetOutput(originalLogOutput)

	stdout, _ := io.ReadAll(r)
	stderr, _ := io.ReadAll(r2)
	return string(stdout) + string(stderr)
}

// newTestCommand builds a detached command carrying the given flags, so Logic
// functions can be exercised without going through cobra argument parsing.
func newTestCommand(t *testing.T, setup func(cmd *cobra.Command)) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.SetContext(context.Background())
	if setup != nil {
		setup(cmd)
	}
	return cmd
}
