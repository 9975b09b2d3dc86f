package relay

import (
	"encoding/json"
	"fmt"
)

// Message types exchanged over the persistent channel. The set is closed:
// anything else read off a connection is rejected at the boundary.
const (
	// client/worker -> relay
	TypeIdentify          = "identify"
	TypeUploadComplete    = "image-uploaded-to-s3"
	TypeProcessedImage    = "blurred-image"
	TypeProcessedUploaded = "blurred-image-uploaded"

	// relay -> worker
	TypeBlurJob = "blur-image"

	// relay -> all connected peers
	TypeTimeReady       = "time-ready"
	TypeImageBlurred    = "image-blurred"
	TypeUploadError     = "upload-error"
	TypeProcessingError = "processing-error"
)

// RoleWorker is the role claim that makes a connection the sole dispatch
// target for processing jobs.
const RoleWorker = "worker"

// Message is a tagged channel frame.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// envelope is the inbound wire form; Data stays raw until the type is known.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// IdentifyPayload carries a connection's role claim.
type IdentifyPayload struct {
	Role string `json:"role"`
}

// UploadCompletePayload signals that a client finished a direct upload.
type UploadCompletePayload struct {
	OriginalKey string `json:"originalKey"`
}

// ProcessedImagePayload carries a worker's finished output inline (base64).
type ProcessedImagePayload struct {
	OriginalKey string `json:"originalKey"`
	Buffer      string `json:"buffer"`
}

// ProcessedUploadedPayload signals that a worker stored its output itself.
type ProcessedUploadedPayload struct {
	OriginalKey string `json:"originalKey"`
	BlurredKey  string `json:"blurredKey"`
}

// JobPayload is a processing job descriptor forwarded to the worker. Buffer
// is set only when inline payload mode is enabled.
type JobPayload struct {
	OriginalKey string `json:"originalKey"`
	Buffer      string `json:"buffer,omitempty"`
}

// TimeReadyPayload announces a stored timestamp.
type TimeReadyPayload struct {
	Time string `json:"time"`
}

// ResultPayload announces a completed processing job.
type ResultPayload struct {
	BlurredKey  string `json:"blurredKey"`
	OriginalKey string `json:"originalKey"`
}

// UploadErrorPayload announces a failed upload flow.
type UploadErrorPayload struct {
	Message string `json:"message"`
}

// ProcessingErrorPayload announces a worker-reported failure.
type ProcessingErrorPayload struct {
	OriginalKey string `json:"originalKey"`
	Message     string `json:"message"`
}

// NewTimeReady builds a time-ready broadcast frame.
func NewTimeReady(t string) Message {
	return Message{Type: TypeTimeReady, Data: TimeReadyPayload{Time: t}}
}

// NewImageBlurred builds an image-blurred broadcast frame.
func NewImageBlurred(blurredKey, originalKey string) Message {
	return Message{Type: TypeImageBlurred, Data: ResultPayload{BlurredKey: blurredKey, OriginalKey: originalKey}}
}

// NewUploadError builds an upload-error broadcast frame.
func NewUploadError(msg string) Message {
	return Message{Type: TypeUploadError, Data: UploadErrorPayload{Message: msg}}
}

// NewProcessingError builds a processing-error broadcast frame.
func NewProcessingError(originalKey, msg string) Message {
	return Message{Type: TypeProcessingError, Data: ProcessingErrorPayload{OriginalKey: originalKey, Message: msg}}
}

// NewBlurJob builds a blur-image job frame for the worker.
func NewBlurJob(p JobPayload) Message {
	return Message{Type: TypeBlurJob, Data: p}
}

// decodePayload unmarshals an inbound payload into its typed variant.
func decodePayload[T any](raw json.RawMessage, out *T) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
