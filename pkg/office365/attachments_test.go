package office365

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachmentAddFile(t *testing.T) {
	rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "att1", "name": "notes.txt", "size": 11}`))
	})
	defer rs.server.Close()

	graph := newTestGraphClient(t, rs.server)
	m := graph.Me().Messages().GetByID("m1")

	content := []byte("hello world")
	attachment := m.Attachments().AddFile("notes.txt", content, "text/plain")
	require.NoError(t, graph.ExecuteQuery(context.Background()))

	recorded := rs.recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, "POST", recorded[0].Method)
	assert.Equal(t, "/me/messages/m1/attachments", recorded[0].Path)

	var payload struct {
		ODataType    string `json:"@odata.type"`
		Name         string `json:"name"`
		ContentType  string `json:"contentType"`
		ContentBytes string `json:"contentBytes"`
	}
	require.NoError(t, json.Unmarshal(recorded[0].Body, &payload))
	assert.Equal(t, "#microsoft.graph.fileAttachment", payload.ODataType)
	assert.Equal(t, "notes.txt", payload.Name)
	assert.Equal(t, base64.StdEncoding.EncodeToString(content), payload.ContentBytes)

	assert.Equal(t, "att1", attachment.ID)
	assert.Equal(t, rs.server.URL+"/me/messages/m1/attachments/att1", attachment.URL())
}

func TestAttachmentList(t *testing.T) {
	var rs *recordingServer
	rs = newRecordingServer(func(w http.ResponseWriter, r *http.Request, body []byte) {
		// The second page differs only in the query string.
		if r.URL.Query().Get("$skip") == "2" {
			w.Write([]byte(`{"value": [{"id": "att3", "name": "c.png", "size": 2048}]}`))
			return
		}
		w.Write([]byte(`{"value": [
			{"id": "att1", "name": "a.txt", "size": 5},
			{"id": "att2", "name": "b.pdf", "size": 1024, "contentType": "application/pdf"}
		], "@odata.nextLink": "` + rs.server.URL + `/me/messages/m1/attachments?$skip=2"}`))
	})
	defer rs.server.Close()

	graph := newTestGraphClient(t, rs.server)
	m := graph.Me().Messages().GetByID("m1")

	attachments, err := m.Attachments().List(context.Background())
	require.NoError(t, err)
	require.Len(t, attachments, 3)
	assert.Equal(t, "a.txt", attachments[0].Name)
	assert.Equal(t, "application/pdf", attachments[1].ContentType)
	assert.Equal(t, "c.png", attachments[2].Name)
}

func TestUploadFileInline(t *testing.T) {
	rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request, body []byte) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": "att1"}`))
	})
	defer rs.server.Close()

	graph := newTestGraphClient(t, rs.server)
	m := graph.Me().Messages().GetByID("m1")

	localPath := filepath.Join(t.TempDir(), "small.txt")
	require.NoError(t, os.WriteFile(localPath, []byte("small file content"), 0o600))

	var lastUploaded, lastTotal int64
	err := m.Attachments().UploadFile(context.Background(), localPath, func(uploaded, total int64) {
		lastUploaded, lastTotal = uploaded, total
	})
	require.NoError(t, err)

	recorded := rs.recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, "/me/messages/m1/attachments", recorded[0].Path)

	var payload struct {
		Name         string `json:"name"`
		ContentBytes string `json:"contentBytes"`
	}
	require.NoError(t, json.Unmarshal(recorded[0].Body, &payload))
	assert.Equal(t, "small.txt", payload.Name)

	decoded, err := base64.StdEncoding.DecodeString(payload.ContentBytes)
	require.NoError(t, err)
	assert.Equal(t, "small file content", string(decoded))

	assert.Equal(t, int64(18), lastUploaded)
	assert.Equal(t, int64(18), lastTotal)
}

func TestUploadFileChunked(t *testing.T) {
	fileSize := MaxInlineAttachmentSize + DefaultAttachmentChunkSize/2
	content := bytes.Repeat([]byte("x"), fileSize)

	var chunkRanges []string
	var uploaded bytes.Buffer

	var rs *recordingServer
	rs = newRecordingServer(func(w http.ResponseWriter, r *http.Request, body []byte) {
		switch r.URL.Path {
		case "/me/messages/m1/attachments/createUploadSession":
			var sessionReq struct {
				AttachmentItem attachmentItem `json:"AttachmentItem"`
			}
			require.NoError(t, json.Unmarshal(body, &sessionReq))
			assert.Equal(t, "file", sessionReq.AttachmentItem.AttachmentType)
			assert.Equal(t, "big.bin", sessionReq.AttachmentItem.Name)
			assert.Equal(t, int64(fileSize), sessionReq.AttachmentItem.Size)

			json.NewEncoder(w).Encode(UploadSession{
				UploadURL: rs.server.URL + "/upload-session/xyz",
			})
		case "/upload-session/xyz":
			// Session PUTs are pre-authenticated and carry no bearer token.
			assert.Empty(t, r.Header.Get("Authorization"))
			chunkRanges = append(chunkRanges, r.Header.Get("Content-Range"))
			uploaded.Write(body)
			if uploaded.Len() >= fileSize {
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(`{"id": "att-big"}`))
			} else {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"nextExpectedRanges": ["` + fmt.Sprint(uploaded.Len()) + `-"]}`))
			}
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
		}
	})
	defer rs.server.Close()

	graph := newTestGraphClient(t, rs.server)
	m := graph.Me().Messages().GetByID("m1")

	localPath := filepath.Join(t.TempDir(), "big.bin")
	require.NoError(t, os.WriteFile(localPath, content, 0o600))

	var progressCalls int
	var lastUploaded int64
	err := m.Attachments().UploadFile(context.Background(), localPath, func(done, total int64) {
		progressCalls++
		lastUploaded = done
		assert.Equal(t, int64(fileSize), total)
	})
	require.NoError(t, err)

	assert.Equal(t, fileSize, uploaded.Len())
	assert.Equal(t, int64(fileSize), lastUploaded)
	assert.Equal(t, len(chunkRanges), progressCalls)

	assert.Equal(t, fmt.Sprintf("bytes 0-%d/%d", DefaultAttachmentChunkSize-1, fileSize), chunkRanges[0])
	last := chunkRanges[len(chunkRanges)-1]
	assert.Contains(t, last, fmt.Sprintf("/%d", fileSize))
}

func TestUploadFileRejectsOversizedFile(t *testing.T) {
	rs := newRecordingServer(func(w http.ResponseWriter, r *http.Request, body []byte) {
		t.Error("no request expected")
	})
	defer rs.server.Close()

	graph := newTestGraphClient(t, rs.server)
	m := graph.Me().Messages().GetByID("m1")

	localPath := filepath.Join(t.TempDir(), "huge.bin")
	f, err := os.Create(localPath)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(maxAttachmentUploadSizeBytes+1))
	require.NoError(t, f.Close())

	err = m.Attachments().UploadFile(context.Background(), localPath, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
