// Package ui formats Office 365 data structures (messages, attachments, user
// info, site provisioning state) for the console, and provides progress bars
// and standardized success/error messages.
package ui

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/office365go/office365-client/pkg/office365"
	"github.com/office365go/office365-client/pkg/sharepoint"
)

// Success prints a success message to standard output.
func Success(msg string) {
	fmt.Println(msg)
}

// PrintError reports an error encountered during command execution.
func PrintError(err error) {
	log.Printf("ERROR: %v", err)
}

// DisplayUser prints the signed-in user's identity.
func DisplayUser(user office365.User) {
	fmt.Printf("Display Name: %s\n", user.DisplayName)
	fmt.Printf("Principal:    %s\n", user.UserPrincipalName)
	if user.Mail != "" {
		fmt.Printf("Mail:         %s\n", user.Mail)
	}
}

// DisplayMessages prints a table of messages: received time, sender, subject
// and state flags.
func DisplayMessages(messages []office365.Message, title string) {
	if len(messages) == 0 {
		fmt.Println("No messages found.")
		return
	}

	fmt.Println(title)
	fmt.Printf("%-34s %-17s %-30s %-45s %s\n", "ID", "Received", "From", "Subject", "Flags")
	fmt.Println(strings.Repeat("-", 135))
	for _, m := range messages {
		var flags []string
		if !m.IsRead {
			flags = append(flags, "unread")
		}
		if m.HasAttachments {
			flags = append(flags, "attachments")
		}
		if m.IsDraft {
			flags = append(flags, "draft")
		}
		fmt.Printf("%-34.34s %-17s %-30.30s %-45.45s %s\n",
			m.ID, formatTime(m.ReceivedDateTime), senderAddress(m), m.Subject, strings.Join(flags, ","))
	}
	fmt.Printf("\n%d message(s)\n", len(messages))
}

// DisplayMessage prints a single message in detail.
func DisplayMessage(m office365.Message) {
	fmt.Printf("Subject:  %s\n", m.Subject)
	fmt.Printf("From:     %s\n", senderAddress(m))
	fmt.Printf("To:       %s\n", recipientAddresses(m.ToRecipients))
	if len(m.CcRecipients) > 0 {
		fmt.Printf("Cc:       %s\n", recipientAddresses(m.CcRecipients))
	}
	fmt.Printf("Received: %s\n", formatTime(m.ReceivedDateTime))
	if m.Importance != "" && m.Importance != "normal" {
		fmt.Printf("Importance: %s\n", m.Importance)
	}
	if m.HasAttachments {
		fmt.Println("Has attachments: yes")
	}
	fmt.Printf("ID:       %s\n", m.ID)
	if m.BodyPreview != "" {
		fmt.Println()
		fmt.Println(m.BodyPreview)
	}
}

// DisplayAttachments prints a table of a message's attachments.
func DisplayAttachments(attachments []office365.Attachment, messageID string) {
	if len(attachments) == 0 {
		fmt.Printf("No attachments on message %s.\n", messageID)
		return
	}

	fmt.Printf("Attachments on message %s:\n", messageID)
	fmt.Printf("%-30s %-40s %12s %s\n", "ID", "Name", "Size", "Content Type")
	fmt.Println(strings.Repeat("-", 100))
	for _, a := range attachments {
		fmt.Printf("%-30.30s %-40.40s %12s %s\n", a.ID, a.Name, FormatBytes(a.Size), a.ContentType)
	}
}

// DisplaySiteInfo prints the provisioning state of a group-connected site.
func DisplaySiteInfo(info sharepoint.GroupSiteInfo) {
	fmt.Printf("Status:  %s\n", siteStatusText(info.SiteStatus))
	if info.SiteURL != "" {
		fmt.Printf("Site:    %s\n", info.SiteURL)
	}
	if info.GroupID != "" {
		fmt.Printf("Group:   %s\n", info.GroupID)
	}
	if info.ErrorMessage != "" {
		fmt.Printf("Error:   %s\n", info.ErrorMessage)
	}
}

func siteStatusText(status int) string {
	switch status {
	case sharepoint.SiteStatusNotFound:
		return "not found"
	case sharepoint.SiteStatusProvisioning:
		return "provisioning"
	case sharepoint.SiteStatusReady:
		return "ready"
	case sharepoint.SiteStatusError:
		return "error"
	default:
		return fmt.Sprintf("unknown (%d)", status)
	}
}

func senderAddress(m office365.Message) string {
	if m.From != nil {
		if m.From.EmailAddress.Name != "" {
			return m.From.EmailAddress.Name
		}
		return m.From.EmailAddress.Address
	}
	return ""
}

func recipientAddresses(recipients []office365.Recipient) string {
	addresses := make([]string, 0, len(recipients))
	for _, r := range recipients {
		addresses = append(addresses, r.EmailAddress.Address)
	}
	return strings.Join(addresses, ", ")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04")
}

// FormatBytes renders a byte count in human-readable form.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// NewProgressBar creates a byte-count progress bar writing to stderr, so it
// never interferes with data on stdout.
func NewProgressBar(maxBytes int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		maxBytes,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
		progressbar.OptionClearOnFinish(),
	)
}
