// Package office365 provides constants used throughout the SDK.
package office365

import "time"

// Default HTTP configuration.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultRequestsPerSecond = 10.0
	DefaultRequestBurst      = 20
)

// Attachment upload thresholds. Files up to MaxInlineAttachmentSize are
// attached as a single base64 payload; anything larger goes through an
// attachment upload session. The chunk size must be a multiple of 320 KiB
// per the Graph upload session contract.
const (
	MaxInlineAttachmentSize      = 3 * 1000 * 1000
	DefaultAttachmentChunkSize   = 320 * 1024 * 10
	maxAttachmentUploadSizeBytes = 150 * 1000 * 1000
)

// Batching. The Graph $batch endpoint accepts at most 20 requests per call.
const maxBatchSize = 20

// Device code flow.
const DefaultDeviceCodeExpiry = 60 // minutes
