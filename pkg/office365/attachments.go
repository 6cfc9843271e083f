// Package office365 (attachments.go) implements message attachments: small
// files travel inline as base64 through the deferred queue, large files go
// through a resumable upload session with ranged PUTs.
package office365

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
)

// AttachmentCollection addresses the attachments of a message.
type AttachmentCollection struct {
	queue *Queue
	url   string
}

// URL returns the collection's resource URL.
func (ac *AttachmentCollection) URL() string { return ac.url }

// AddFile queues creation of a file attachment from in-memory content. The
// content is carried inline as base64; use UploadFile for files above the
// inline size limit. The returned attachment gains its ID on flush.
func (ac *AttachmentCollection) AddFile(name string, content []byte, contentType string) *FileAttachment {
	a := &FileAttachment{
		ODataType:    fileAttachmentODataType,
		Name:         name,
		ContentType:  contentType,
		ContentBytes: base64.StdEncoding.EncodeToString(content),
	}
	a.Bind(ac.queue, "")

	ac.queue.Add(&Query{
		Method: "POST",
		URL:    ac.url,
		Payload: map[string]any{
			"@odata.type":  fileAttachmentODataType,
			"name":         name,
			"contentType":  contentType,
			"contentBytes": a.ContentBytes,
		},
		Result: a,
		After: func(*http.Response) error {
			if a.ID == "" {
				return fmt.Errorf("%w: created attachment carries no id", ErrDecodingFailed)
			}
			a.SetURL(ac.url + "/" + url.PathEscape(a.ID))
			return nil
		},
	})
	return a
}

// GetByID returns the resource object for an attachment by ID without
// fetching it.
func (ac *AttachmentCollection) GetByID(id string) *FileAttachment {
	a := &FileAttachment{ID: id}
	a.Bind(ac.queue, ac.url+"/"+url.PathEscape(id))
	return a
}

// List retrieves the attachment metadata immediately, following pagination.
// Content bytes are not included; fetch them per attachment with Content.
func (ac *AttachmentCollection) List(ctx context.Context) ([]Attachment, error) {
	var attachments []Attachment
	next := ac.url
	for next != "" {
		var page AttachmentList
		if err := ac.queue.client.getJSON(ctx, next, &page, "attachment list"); err != nil {
			return nil, err
		}
		attachments = append(attachments, page.Value...)
		next = page.NextLink
	}
	return attachments, nil
}

// Delete queues deletion of the attachment.
func (a *FileAttachment) Delete() {
	a.Queue().Add(&Query{Method: "DELETE", URL: a.URL()})
}

// Content queues retrieval of the attachment's raw bytes ($value).
func (a *FileAttachment) Content(result *Result[[]byte]) {
	a.Queue().Add(&Query{
		Method: "GET",
		URL:    a.URL() + "/$value",
		Result: &result.Value,
	})
}

// UploadFile attaches a local file to the message immediately. Files at or
// below the inline size limit are posted in a single request; larger files
// are streamed through an upload session in ranged chunks. The progress
// callback, if non-nil, is invoked after each transferred chunk.
func (ac *AttachmentCollection) UploadFile(ctx context.Context, localPath string, progress func(uploaded, total int64)) error {
	info, err := os.Stat(localPath)
	if err != nil {
		return fmt.Errorf("stat local file failed: %w", err)
	}
	if info.Size() > maxAttachmentUploadSizeBytes {
		return fmt.Errorf("%w: file exceeds maximum attachment size", ErrInvalidRequest)
	}

	name := filepath.Base(localPath)
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if info.Size() <= MaxInlineAttachmentSize {
		return ac.uploadInline(ctx, localPath, name, contentType, progress)
	}
	return ac.uploadChunked(ctx, localPath, name, contentType, info.Size(), progress)
}

// uploadInline posts the whole file as a base64 inline attachment.
func (ac *AttachmentCollection) uploadInline(ctx context.Context, localPath, name, contentType string, progress func(uploaded, total int64)) error {
	content, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading local file failed: %w", err)
	}

	payload, err := json.Marshal(map[string]any{
		"@odata.type":  fileAttachmentODataType,
		"name":         name,
		"contentType":  contentType,
		"contentBytes": base64.StdEncoding.EncodeToString(content),
	})
	if err != nil {
		return fmt.Errorf("marshaling attachment failed: %w", err)
	}

	res, err := ac.queue.client.apiCall(ctx, "POST", ac.url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	closeBodySafely(res.Body, ac.queue.client.logger, "inline attachment upload")

	if progress != nil {
		progress(int64(len(content)), int64(len(content)))
	}
	return nil
}

// uploadChunked opens an upload session and PUTs the file in ranged chunks.
// Session URLs are pre-authenticated, so chunks are sent through a plain HTTP
// client without an Authorization header.
func (ac *AttachmentCollection) uploadChunked(ctx context.Context, localPath, name, contentType string, size int64, progress func(uploaded, total int64)) error {
	client := ac.queue.client

	sessionPayload, err := json.Marshal(map[string]any{
		"AttachmentItem": attachmentItem{
			AttachmentType: "file",
			Name:           name,
			Size:           size,
			ContentType:    contentType,
		},
	})
	if err != nil {
		return fmt.Errorf("marshaling upload session request failed: %w", err)
	}

	res, err := client.apiCall(ctx, "POST", ac.url+"/createUploadSession", "application/json", bytes.NewReader(sessionPayload))
	if err != nil {
		return fmt.Errorf("creating upload session failed: %w", err)
	}

	var session UploadSession
	err = json.NewDecoder(res.Body).Decode(&session)
	closeBodySafely(res.Body, client.logger, "create upload session")
	if err != nil {
		return fmt.Errorf("%w: decoding upload session: %w", ErrDecodingFailed, err)
	}
	if session.UploadURL == "" {
		return fmt.Errorf("%w: upload session carries no URL", ErrDecodingFailed)
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("opening local file failed: %w", err)
	}
	defer file.Close()

	uploadClient := NewConfiguredHTTPClient(client.httpConfig)
	chunk := make([]byte, DefaultAttachmentChunkSize)

	var offset int64
	for offset < size {
		n, err := io.ReadFull(file, chunk)
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			err = nil
		}
		if err != nil {
			return fmt.Errorf("reading chunk failed: %w", err)
		}
		if n == 0 {
			break
		}

		if err := uploadChunk(ctx, uploadClient, session.UploadURL, chunk[:n], offset, size); err != nil {
			return err
		}

		offset += int64(n)
		if progress != nil {
			progress(offset, size)
		}
	}

	return nil
}

// uploadChunk PUTs one Content-Range slice to the session URL. The final
// chunk completes the session; the service answers 201 Created.
func uploadChunk(ctx context.Context, httpClient *http.Client, uploadURL string, data []byte, offset, total int64) error {
	req, err := http.NewRequestWithContext(ctx, "PUT", uploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating chunk request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Range",
		fmt.Sprintf("bytes %d-%d/%d", offset, offset+int64(len(data))-1, total))
	req.ContentLength = int64(len(data))

	res, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("uploading chunk failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		body, _ := io.ReadAll(res.Body)
		return mapServiceError(res.StatusCode, res.Status, body)
	}
	return nil
}
