package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/arizkuren/skillbluff/internal/logger"
	"github.com/arizkuren/skillbluff/internal/storage"
)

// Transcript outcomes.
const (
	OutcomeFailed    = "failed"
	OutcomeGenerated = "generated"
)

// Transcript records one generation attempt for later diagnosis.
type Transcript struct {
	RequestID string         `json:"request_id"`
	Prompt    string         `json:"prompt"`
	Slug      string         `json:"slug"`
	Language  string         `json:"language"`
	Model     string         `json:"model"`
	Raw       string         `json:"raw"`
	Extracted string         `json:"extracted,omitempty"`
	Repaired  bool           `json:"repaired"`
	Payload   map[string]any `json:"payload,omitempty"`
	Outcome   string         `json:"outcome"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// TranscriptArchive writes generation transcripts to object storage.
// A nil *TranscriptArchive is valid and archives nothing.
type TranscriptArchive struct {
	storage storage.ObjectStorage
}

// NewTranscriptArchive returns nil when store is nil, which disables archiving.
func NewTranscriptArchive(store storage.ObjectStorage) *TranscriptArchive {
	if store == nil {
		return nil
	}
	return &TranscriptArchive{storage: store}
}

// TranscriptKey builds transcripts/YYYY/MM/DD/<slug>-<request id>.json.
func TranscriptKey(t *Transcript) string {
	slug := t.Slug
	if slug == "" {
		slug = "unnamed"
	}
	ts := t.CreatedAt.UTC()
	return fmt.Sprintf("transcripts/%04d/%02d/%02d/%s-%s.json",
		ts.Year(), int(ts.Month()), ts.Day(), slug, t.RequestID)
}

// Save uploads the transcript. Failures are logged and never returned, so an
// unreachable bucket cannot fail a generation request.
func (a *TranscriptArchive) Save(ctx context.Context, t *Transcript) {
	if a == nil || t == nil {
		return
	}
	log := logger.FromContext(ctx).WithField(logger.FieldComponent, "transcript")

	body, err := json.Marshal(t)
	if err != nil {
		log.WithError(err).Warn("Failed to encode transcript")
		return
	}

	key := TranscriptKey(t)
	if err := a.storage.Upload(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		log.WithError(err).WithField("key", key).Warn("Failed to archive transcript")
		return
	}
	log.WithFields(logger.Fields{
		"url":            a.storage.GetURL(key),
		logger.FieldSize: len(body),
	}).Debug("Transcript archived")
}
