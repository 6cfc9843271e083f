package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/office365go/office365-client/internal/session"
	"github.com/office365go/office365-client/pkg/office365"
	"github.com/office365go/office365-client/pkg/sharepoint"
)

// SDK is the surface the command layer uses to talk to Office 365. It exists
// so command logic can be tested against a mock.
type SDK interface {
	GetMe(ctx context.Context) (office365.User, error)

	ListMessages(ctx context.Context, folderID string, paging office365.Paging) ([]office365.Message, string, error)
	GetMessages(ctx context.Context, ids []string, useBatch bool) ([]office365.Message, error)
	SendMessage(ctx context.Context, subject string, body office365.ItemBody, to []string) error
	ReplyMessage(ctx context.Context, messageID, comment string, replyAll bool) error
	ForwardMessage(ctx context.Context, messageID string, to []string, comment string) error
	MoveMessage(ctx context.Context, messageID, destinationID string) error
	DeleteMessage(ctx context.Context, messageID string) error
	DownloadMessage(ctx context.Context, messageID, localPath string) error

	AttachFile(ctx context.Context, messageID, localPath string, progress func(uploaded, total int64)) error
	ListAttachments(ctx context.Context, messageID string) ([]office365.Attachment, error)

	CreateGroupSite(ctx context.Context, siteURL, displayName, alias string, isPublic bool, description string) (sharepoint.GroupSiteInfo, error)
	GetSiteStatus(ctx context.Context, siteURL, groupID string) (sharepoint.GroupSiteInfo, error)
	WaitForSite(ctx context.Context, siteURL, groupID string, interval time.Duration) (sharepoint.GroupSiteInfo, error)
	DeleteGroupSite(ctx context.Context, siteURL, targetSiteURL string) error
}

// liveSDK implements SDK against the real services.
type liveSDK struct {
	client   *office365.Client
	graph    *office365.GraphClient
	sessions *session.Manager
}

// NewSDK creates the live SDK on top of an authenticated client.
func NewSDK(client *office365.Client, sessions *session.Manager) SDK {
	return &liveSDK{
		client:   client,
		graph:    office365.NewGraphClient(client),
		sessions: sessions,
	}
}

func (s *liveSDK) GetMe(ctx context.Context) (office365.User, error) {
	return s.graph.GetMe(ctx)
}

func (s *liveSDK) messages(folderID string) *office365.MessageCollection {
	me := s.graph.Me()
	if folderID == "" {
		return me.Messages()
	}
	return me.MailFolder(folderID).Messages()
}

func (s *liveSDK) ListMessages(ctx context.Context, folderID string, paging office365.Paging) ([]office365.Message, string, error) {
	return s.messages(folderID).List(ctx, paging)
}

// GetMessages loads several messages by ID in one flush. With useBatch the
// loads ride a single $batch round trip instead of sequential requests.
func (s *liveSDK) GetMessages(ctx context.Context, ids []string, useBatch bool) ([]office365.Message, error) {
	collection := s.messages("")

	loaded := make([]*office365.Message, 0, len(ids))
	for _, id := range ids {
		m := collection.GetByID(id)
		office365.Load(m)
		loaded = append(loaded, m)
	}

	var err error
	if useBatch {
		err = s.graph.ExecuteBatch(ctx)
	} else {
		err = s.graph.ExecuteQuery(ctx)
	}
	if err != nil {
		return nil, err
	}

	messages := make([]office365.Message, 0, len(loaded))
	for _, m := range loaded {
		messages = append(messages, *m)
	}
	return messages, nil
}

func (s *liveSDK) SendMessage(ctx context.Context, subject string, body office365.ItemBody, to []string) error {
	message := &office365.Message{Subject: subject, Body: body}
	for _, address := range to {
		message.ToRecipients = append(message.ToRecipients, office365.RecipientFromEmail(address))
	}
	s.graph.Me().SendMail(message, true)
	return s.graph.ExecuteQuery(ctx)
}

func (s *liveSDK) ReplyMessage(ctx context.Context, messageID, comment string, replyAll bool) error {
	m := s.messages("").GetByID(messageID)
	if replyAll {
		m.ReplyAll(comment)
	} else {
		m.Reply(comment)
	}
	return s.graph.ExecuteQuery(ctx)
}

func (s *liveSDK) ForwardMessage(ctx context.Context, messageID string, to []string, comment string) error {
	s.messages("").GetByID(messageID).Forward(to, comment)
	return s.graph.ExecuteQuery(ctx)
}

func (s *liveSDK) MoveMessage(ctx context.Context, messageID, destinationID string) error {
	s.messages("").GetByID(messageID).Move(destinationID)
	return s.graph.ExecuteQuery(ctx)
}

func (s *liveSDK) DeleteMessage(ctx context.Context, messageID string) error {
	s.messages("").GetByID(messageID).Delete()
	return s.graph.ExecuteQuery(ctx)
}

func (s *liveSDK) DownloadMessage(ctx context.Context, messageID, localPath string) error {
	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("creating local file: %w", err)
	}

	s.messages("").GetByID(messageID).Download(file)
	if err := s.graph.ExecuteQuery(ctx); err != nil {
		file.Close()
		_ = os.Remove(localPath)
		return err
	}
	return file.Close()
}

// AttachFile uploads a local file as an attachment. Upload state is recorded
// in the session store for the duration of the transfer, so an interrupted
// run leaves a trace instead of vanishing silently.
func (s *liveSDK) AttachFile(ctx context.Context, messageID, localPath string, progress func(uploaded, total int64)) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat local file: %w", err)
	}

	state := &session.UploadState{
		LocalPath:          localPath,
		MessageID:          messageID,
		TotalBytes:         info.Size(),
		ExpirationDateTime: time.Now().Add(24 * time.Hour),
	}
	if err := s.sessions.SaveUploadState(state); err != nil {
		return fmt.Errorf("recording upload state: %w", err)
	}

	attachments := s.messages("").GetByID(messageID).Attachments()
	err = attachments.UploadFile(ctx, localPath, func(uploaded, total int64) {
		state.CompletedBytes = uploaded
		_ = s.sessions.SaveUploadState(state)
		if progress != nil {
			progress(uploaded, total)
		}
	})
	if err != nil {
		return err
	}

	return s.sessions.DeleteUploadState(messageID, localPath)
}

func (s *liveSDK) ListAttachments(ctx context.Context, messageID string) ([]office365.Attachment, error) {
	return s.messages("").GetByID(messageID).Attachments().List(ctx)
}

func (s *liveSDK) CreateGroupSite(ctx context.Context, siteURL, displayName, alias string, isPublic bool, description string) (sharepoint.GroupSiteInfo, error) {
	cc := sharepoint.NewClientContext(s.client, siteURL)
	result := cc.GroupSiteManager().CreateGroupEx(displayName, alias, isPublic, description)
	if err := cc.ExecuteQuery(ctx); err != nil {
		return sharepoint.GroupSiteInfo{}, err
	}
	return result.Value, nil
}

func (s *liveSDK) GetSiteStatus(ctx context.Context, siteURL, groupID string) (sharepoint.GroupSiteInfo, error) {
	cc := sharepoint.NewClientContext(s.client, siteURL)
	result := cc.GroupSiteManager().GetStatus(groupID)
	if err := cc.ExecuteQuery(ctx); err != nil {
		return sharepoint.GroupSiteInfo{}, err
	}
	return result.Value, nil
}

func (s *liveSDK) WaitForSite(ctx context.Context, siteURL, groupID string, interval time.Duration) (sharepoint.GroupSiteInfo, error) {
	cc := sharepoint.NewClientContext(s.client, siteURL)
	return cc.GroupSiteManager().WaitForSite(ctx, groupID, interval)
}

func (s *liveSDK) DeleteGroupSite(ctx context.Context, siteURL, targetSiteURL string) error {
	cc := sharepoint.NewClientContext(s.client, siteURL)
	cc.GroupSiteManager().Delete(targetSiteURL)
	return cc.ExecuteQuery(ctx)
}
