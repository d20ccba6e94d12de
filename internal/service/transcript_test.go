package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptKey(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	tests := []struct {
		name string
		tr   Transcript
		want string
	}{
		{
			name: "slug and request id",
			tr:   Transcript{Slug: "fold-water", RequestID: "abc", CreatedAt: time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)},
			want: "transcripts/2026/02/03/fold-water-abc.json",
		},
		{
			name: "missing slug",
			tr:   Transcript{RequestID: "abc", CreatedAt: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)},
			want: "transcripts/2026/12/31/unnamed-abc.json",
		},
		{
			name: "date is taken in UTC",
			tr:   Transcript{Slug: "s", RequestID: "r", CreatedAt: time.Date(2026, 1, 1, 22, 0, 0, 0, est)},
			want: "transcripts/2026/01/02/s-r.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TranscriptKey(&tt.tr))
		})
	}
}

func TestTranscriptArchive_Save(t *testing.T) {
	ctx := context.Background()
	objects := newFakeObjectStorage()
	archive := NewTranscriptArchive(objects)
	require.NotNil(t, archive)

	tr := &Transcript{
		RequestID: "req-1",
		Slug:      "fold-water",
		Raw:       "raw text",
		Outcome:   OutcomeGenerated,
		CreatedAt: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	archive.Save(ctx, tr)

	body, ok := objects.objects["transcripts/2026/05/01/fold-water-req-1.json"]
	require.True(t, ok)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "raw text", decoded["raw"])
	assert.Equal(t, "generated", decoded["outcome"])
	assert.NotContains(t, decoded, "error")
}

func TestTranscriptArchive_Disabled(t *testing.T) {
	archive := NewTranscriptArchive(nil)
	assert.Nil(t, archive)
	assert.NotPanics(t, func() {
		archive.Save(context.Background(), &Transcript{RequestID: "x"})
	})

	objects := newFakeObjectStorage()
	objects.err = errors.New("unreachable")
	assert.NotPanics(t, func() {
		NewTranscriptArchive(objects).Save(context.Background(), &Transcript{RequestID: "x"})
	})
	assert.Empty(t, objects.keys())
}
