package office365

import "time"

// EmailAddress is the name/address pair used in recipients.
type EmailAddress struct {
	Name    string `json:"name,omitempty"`
	Address string `json:"address"`
}

// Recipient wraps an email address for the To/Cc/Bcc/From fields.
type Recipient struct {
	EmailAddress EmailAddress `json:"emailAddress"`
}

// RecipientFromEmail builds a Recipient from a bare address.
func RecipientFromEmail(address string) Recipient {
	return Recipient{EmailAddress: EmailAddress{Address: address}}
}

// recipientsFromEmails maps a list of bare addresses to recipients.
func recipientsFromEmails(addresses []string) []Recipient {
	recipients := make([]Recipient, 0, len(addresses))
	for _, a := range addresses {
		recipients = append(recipients, RecipientFromEmail(a))
	}
	return recipients
}

// Body content types.
const (
	BodyTypeText = "text"
	BodyTypeHTML = "html"
)

// ItemBody is a message body in text or HTML form.
type ItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

// TextBody builds a plain text ItemBody.
func TextBody(content string) ItemBody {
	return ItemBody{ContentType: BodyTypeText, Content: content}
}

// HTMLBody builds an HTML ItemBody.
func HTMLBody(content string) ItemBody {
	return ItemBody{ContentType: BodyTypeHTML, Content: content}
}

// Paging controls how collection listings follow @odata.nextLink.
type Paging struct {
	Top      int
	FetchAll bool
	NextLink string
}

// UploadSession is the state of a resumable attachment upload.
type UploadSession struct {
	UploadURL          string   `json:"uploadUrl"`
	ExpirationDateTime string   `json:"expirationDateTime"`
	NextExpectedRanges []string `json:"nextExpectedRanges"`
}

// DeviceCodeResponse is the response from initiating the device code flow.
type DeviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
	Message         string `json:"message"`
}

// MessageDelta is the result of a delta query over a message collection.
// NextLink is set while more pages of changes remain; DeltaLink is the cursor
// to persist for the next synchronization round.
type MessageDelta struct {
	Value     []Message `json:"value"`
	NextLink  string    `json:"@odata.nextLink"`
	DeltaLink string    `json:"@odata.deltaLink"`
}

// MailFolder is a folder in a mailbox. Well-known names such as "inbox",
// "drafts" and "sentitems" can be used wherever a folder ID is expected.
type MailFolder struct {
	Entity
	ID               string `json:"id,omitempty"`
	DisplayName      string `json:"displayName,omitempty"`
	ParentFolderID   string `json:"parentFolderId,omitempty"`
	TotalItemCount   int    `json:"totalItemCount,omitempty"`
	UnreadItemCount  int    `json:"unreadItemCount,omitempty"`
	ChildFolderCount int    `json:"childFolderCount,omitempty"`
}

// Message is a message in a mailbox folder.
type Message struct {
	Entity
	ID                   string      `json:"id,omitempty"`
	Subject              string      `json:"subject,omitempty"`
	Body                 ItemBody    `json:"body,omitempty"`
	BodyPreview          string      `json:"bodyPreview,omitempty"`
	From                 *Recipient  `json:"from,omitempty"`
	Sender               *Recipient  `json:"sender,omitempty"`
	ToRecipients         []Recipient `json:"toRecipients,omitempty"`
	CcRecipients         []Recipient `json:"ccRecipients,omitempty"`
	BccRecipients        []Recipient `json:"bccRecipients,omitempty"`
	ReplyTo              []Recipient `json:"replyTo,omitempty"`
	ConversationID       string      `json:"conversationId,omitempty"`
	ParentFolderID       string      `json:"parentFolderId,omitempty"`
	Importance           string      `json:"importance,omitempty"`
	HasAttachments       bool        `json:"hasAttachments,omitempty"`
	IsDraft              bool        `json:"isDraft,omitempty"`
	IsRead               bool        `json:"isRead,omitempty"`
	InternetMessageID    string      `json:"internetMessageId,omitempty"`
	WebLink              string      `json:"webLink,omitempty"`
	ReceivedDateTime     *time.Time  `json:"receivedDateTime,omitempty"`
	SentDateTime         *time.Time  `json:"sentDateTime,omitempty"`
	LastModifiedDateTime *time.Time  `json:"lastModifiedDateTime,omitempty"`
}

// Attachment is the common metadata of a message attachment.
type Attachment struct {
	ODataType            string     `json:"@odata.type,omitempty"`
	ID                   string     `json:"id,omitempty"`
	Name                 string     `json:"name,omitempty"`
	ContentType          string     `json:"contentType,omitempty"`
	Size                 int64      `json:"size,omitempty"`
	IsInline             bool       `json:"isInline,omitempty"`
	LastModifiedDateTime *time.Time `json:"lastModifiedDateTime,omitempty"`
}

// AttachmentList is a page of attachments.
type AttachmentList struct {
	Value    []Attachment `json:"value"`
	NextLink string       `json:"@odata.nextLink"`
}

// FileAttachment is a file attached to a message. ContentBytes carries the
// base64-encoded content for inline (small) attachments.
type FileAttachment struct {
	Entity
	ODataType    string `json:"@odata.type,omitempty"`
	ID           string `json:"id,omitempty"`
	Name         string `json:"name,omitempty"`
	ContentType  string `json:"contentType,omitempty"`
	ContentBytes string `json:"contentBytes,omitempty"`
	ContentID    string `json:"contentId,omitempty"`
	Size         int64  `json:"size,omitempty"`
	IsInline     bool   `json:"isInline,omitempty"`
}

const fileAttachmentODataType = "#microsoft.graph.fileAttachment"

// attachmentItem describes the file for an attachment upload session.
type attachmentItem struct {
	AttachmentType string `json:"attachmentType"`
	Name           string `json:"name"`
	Size           int64  `json:"size"`
	ContentType    string `json:"contentType,omitempty"`
}

// User is a directory user, the entry point to a mailbox.
type User struct {
	Entity
	ID                string `json:"id,omitempty"`
	DisplayName       string `json:"displayName,omitempty"`
	GivenName         string `json:"givenName,omitempty"`
	Surname           string `json:"surname,omitempty"`
	Mail              string `json:"mail,omitempty"`
	UserPrincipalName string `json:"userPrincipalName,omitempty"`
	JobTitle          string `json:"jobTitle,omitempty"`
	OfficeLocation    string `json:"officeLocation,omitempty"`
}
