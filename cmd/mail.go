// Package cmd (mail.go) defines the mail command group: listing and reading
// messages, sending, replying, forwarding, moving, deleting, attaching files
// and downloading raw MIME content.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/office365go/office365-client/internal/app"
	"github.com/office365go/office365-client/internal/ui"
	"github.com/office365go/office365-client/pkg/office365"
)

var mailCmd = &cobra.Command{
	Use:   "mail",
	Short: "Manage mailbox messages",
	Long:  "Provides commands to list, read, send, reply to, forward, move and delete messages, and to manage attachments.",
}

var mailListCmd = &cobra.Command{
	Use:   "list",
	Short: "List messages in a folder",
	Long:  "Lists messages in the given mail folder (default: inbox). Well-known folder names like 'inbox', 'drafts' and 'sentitems' are accepted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return mailListLogic(a, cmd, args)
	},
}

func mailListLogic(a *app.App, cmd *cobra.Command, args []string) error {
	folder, _ := cmd.Flags().GetString("folder")
	paging, err := ui.ParsePagingFlags(cmd)
	if err != nil {
		return err
	}

	messages, nextLink, err := a.SDK.ListMessages(cmd.Context(), folder, paging)
	if err != nil {
		return fmt.Errorf("listing messages: %w", err)
	}

	ui.DisplayMessages(messages, fmt.Sprintf("Messages in %s:", folder))
	ui.HandleNextPageInfo(nextLink, paging.FetchAll)
	return nil
}

var mailGetCmd = &cobra.Command{
	Use:   "get <message-id> [message-id...]",
	Short: "Show one or more messages",
	Long:  "Retrieves messages by ID and prints them. With --batch, several messages are fetched in a single batched round trip.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return mailGetLogic(a, cmd, args)
	},
}

func mailGetLogic(a *app.App, cmd *cobra.Command, args []string) error {
	useBatch, _ := cmd.Flags().GetBool("batch")

	messages, err := a.SDK.GetMessages(cmd.Context(), args, useBatch)
	if err != nil {
		return fmt.Errorf("getting messages: %w", err)
	}

	for i, m := range messages {
		if i > 0 {
			fmt.Println()
		}
		ui.DisplayMessage(m)
	}
	return nil
}

var mailSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a new message",
	Long:  "Composes and sends a message directly, saving a copy in Sent Items.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return mailSendLogic(a, cmd, args)
	},
}

func mailSendLogic(a *app.App, cmd *cobra.Command, args []string) error {
	subject, _ := cmd.Flags().GetString("subject")
	bodyText, _ := cmd.Flags().GetString("body")
	html, _ := cmd.Flags().GetBool("html")
	to, _ := cmd.Flags().GetStringSlice("to")

	if len(to) == 0 {
		return fmt.Errorf("at least one recipient is required (--to)")
	}

	body := office365.TextBody(bodyText)
	if html {
		body = office365.HTMLBody(bodyText)
	}

	if err := a.SDK.SendMessage(cmd.Context(), subject, body, to); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}
	ui.Success("Message sent.")
	return nil
}

var mailReplyCmd = &cobra.Command{
	Use:   "reply <message-id>",
	Short: "Reply to a message",
	Long:  "Sends a reply to the message's sender. With --all, the reply goes to all recipients.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return mailReplyLogic(a, cmd, args)
	},
}

func mailReplyLogic(a *app.App, cmd *cobra.Command, args []string) error {
	comment, _ := cmd.Flags().GetString("comment")
	replyAll, _ := cmd.Flags().GetBool("all")

	if err := a.SDK.ReplyMessage(cmd.Context(), args[0], comment, replyAll); err != nil {
		return fmt.Errorf("replying to message: %w", err)
	}
	ui.Success("Reply sent.")
	return nil
}

var mailForwardCmd = &cobra.Command{
	Use:   "forward <message-id>",
	Short: "Forward a message",
	Long:  "Forwards the message to the given recipients, with an optional comment.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return mailForwardLogic(a, cmd, args)
	},
}

func mailForwardLogic(a *app.App, cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetStringSlice("to")
	comment, _ := cmd.Flags().GetString("comment")

	if len(to) == 0 {
		return fmt.Errorf("at least one recipient is required (--to)")
	}

	if err := a.SDK.ForwardMessage(cmd.Context(), args[0], to, comment); err != nil {
		return fmt.Errorf("forwarding message: %w", err)
	}
	ui.Success("Message forwarded.")
	return nil
}

var mailMoveCmd = &cobra.Command{
	Use:   "move <message-id> <destination-folder>",
	Short: "Move a message to another folder",
	Long:  "Moves the message to the destination folder, identified by ID or well-known name ('archive', 'deleteditems', ...).",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return mailMoveLogic(a, cmd, args)
	},
}

func mailMoveLogic(a *app.App, cmd *cobra.Command, args []string) error {
	if err := a.SDK.MoveMessage(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("moving message: %w", err)
	}
	ui.Success(fmt.Sprintf("Message moved to %s.", args[1]))
	return nil
}

var mailRmCmd = &cobra.Command{
	Use:     "rm <message-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a message",
	Long:  "Deletes the message, moving it to Deleted Items.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return mailRmLogic(a, cmd, args)
	},
}

func mailRmLogic(a *app.App, cmd *cobra.Command, args []string) error {
	if err := a.SDK.DeleteMessage(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	ui.Success("Message deleted.")
	return nil
}

var mailAttachCmd = &cobra.Command{
	Use:   "attach <message-id> <local-file>",
	Short: "Attach a local file to a draft message",
	Long:  "Uploads a local file as an attachment. Large files are uploaded in chunks through an upload session with progress reporting.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return mailAttachLogic(a, cmd, args)
	},
}

func mailAttachLogic(a *app.App, cmd *cobra.Command, args []string) error {
	messageID, localPath := args[0], args[1]

	var bar interface{ Set64(int64) error }
	progress := func(uploaded, total int64) {
		if bar == nil {
			bar = ui.NewProgressBar(total, "Uploading "+localPath)
		}
		_ = bar.Set64(uploaded)
	}

	if err := a.SDK.AttachFile(cmd.Context(), messageID, localPath, progress); err != nil {
		return fmt.Errorf("attaching file: %w", err)
	}
	ui.Success(fmt.Sprintf("Attached %s to message %s.", localPath, messageID))
	return nil
}

var mailAttachmentsCmd = &cobra.Command{
	Use:   "attachments <message-id>",
	Short: "List a message's attachments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return mailAttachmentsLogic(a, cmd, args)
	},
}

func mailAttachmentsLogic(a *app.App, cmd *cobra.Command, args []string) error {
	attachments, err := a.SDK.ListAttachments(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("listing attachments: %w", err)
	}
	ui.DisplayAttachments(attachments, args[0])
	return nil
}

var mailDownloadCmd = &cobra.Command{
	Use:   "download <message-id> <local-file>",
	Short: "Download a message's raw MIME content",
	Long:  "Downloads the message in RFC 822 format to a local file.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.NewApp(cmd)
		if err != nil {
			return fmt.Errorf("error creating app: %w", err)
		}
		return mailDownloadLogic(a, cmd, args)
	},
}

func mailDownloadLogic(a *app.App, cmd *cobra.Command, args []string) error {
	if err := a.SDK.DownloadMessage(cmd.Context(), args[0], args[1]); err != nil {
		return fmt.Errorf("downloading message: %w", err)
	}
	ui.Success(fmt.Sprintf("Message saved to %s.", args[1]))
	return nil
}

func init() {
	rootCmd.AddCommand(mailCmd)

	mailListCmd.Flags().String("folder", "inbox", "Mail folder to list (ID or well-known name)")
	ui.AddPagingFlags(mailListCmd)
	mailCmd.AddCommand(mailListCmd)

	mailGetCmd.Flags().Bool("batch", false, "Fetch all messages in a single batched request")
	mailCmd.AddCommand(mailGetCmd)

	mailSendCmd.Flags().String("subject", "", "Message subject")
	mailSendCmd.Flags().String("body", "", "Message body")
	mailSendCmd.Flags().Bool("html", false, "Treat the body as HTML")
	mailSendCmd.Flags().StringSlice("to", nil, "Recipient addresses (repeatable or comma-separated)")
	mailCmd.AddCommand(mailSendCmd)

	mailReplyCmd.Flags().String("comment", "", "Reply text")
	mailReplyCmd.Flags().Bool("all", false, "Reply to all recipients")
	mailCmd.AddCommand(mailReplyCmd)

	mailForwardCmd.Flags().StringSlice("to", nil, "Recipient addresses (repeatable or comma-separated)")
	mailForwardCmd.Flags().String("comment", "", "Text to prepend to the forwarded message")
	mailCmd.AddCommand(mailForwardCmd)

	mailCmd.AddCommand(mailMoveCmd)
	mailCmd.AddCommand(mailRmCmd)
	mailCmd.AddCommand(mailAttachCmd)
	mailCmd.AddCommand(mailAttachmentsCmd)
	mailCmd.AddCommand(mailDownloadCmd)
}
