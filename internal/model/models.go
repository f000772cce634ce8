package model

import "time"

// ArtifactInfo describes a stored audio recording.
type ArtifactInfo struct {
	Filename   string    `json:"filename"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
	URL        string    `json:"url,omitempty"`
}

// TranscribeOptions carries the optional transcription parameters. Unset
// pointer fields are omitted from the outbound request; defaults are the
// handler's job, not the client's.
type TranscribeOptions struct {
	Language             string
	EnableWordTimestamps *bool
	EnableDiarization    *bool
}

// TranslateRequest is the inbound body for POST /v1/translate.
type TranslateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"source_language"`
	// TargetLanguage is deprecated: the backend returns all supported
	// languages regardless. Kept for older clients.
	TargetLanguage string `json:"target_language"`
}

// DetectLanguageRequest is the inbound body for POST /v1/detect-language.
type DetectLanguageRequest struct {
	Text string `json:"text"`
}
