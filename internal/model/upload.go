package model

import (
	"path"
	"strings"
)

const (
	// UploadPrefix is the object-storage prefix for client uploads.
	UploadPrefix = "uploads/"
	// UploadSuffix is forced onto every issued upload key, regardless of the
	// file name hint supplied by the client.
	UploadSuffix = ".jpg"
	// derivedMarker is inserted before the extension to name processed output.
	derivedMarker = "-blurred"
)

// UploadTarget is returned to a client that requested a direct-upload URL.
type UploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	FileName  string `json:"fileName"`
}

// ProcessingResult is the payload a worker reports when a job finishes,
// either over the persistent channel or via the HTTP callback.
type ProcessingResult struct {
	OriginalKey string `json:"originalKey"`
	BlurredKey  string `json:"blurredKey,omitempty"`
	Error       string `json:"error,omitempty"`
}

// DerivedKey computes the object key of the processed artifact from the
// original key via a fixed substitution: the extension is stripped, the
// derived marker appended, and the upload suffix restored.
//
//	uploads/abc.jpg -> uploads/abc-blurred.jpg
//	uploads/abc     -> uploads/abc-blurred.jpg
func DerivedKey(originalKey string) string {
	ext := path.Ext(originalKey)
	base := strings.TrimSuffix(originalKey, ext)
	return base + derivedMarker + UploadSuffix
}
