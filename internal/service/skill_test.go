package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/arizkuren/skillbluff/internal/domain"
	"github.com/arizkuren/skillbluff/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSkillService(gen *fakeGenerator, store *fakeSkillStore, archive *TranscriptArchive) *SkillService {
	return NewSkillService(SkillServiceConfig{
		Store:     store,
		Generator: gen,
		Archive:   archive,
	})
}

func TestSkillService_Generate(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{reply: validReply}
	store := newFakeSkillStore()
	svc := newTestSkillService(gen, store, nil)

	skill, err := svc.Generate(ctx, "How to fold water")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(skill.ID, "how-to-fold-water-"))
	assert.Len(t, skill.ID, len("how-to-fold-water-")+8)
	assert.Equal(t, "how-to-fold-water", skill.Name)
	assert.Equal(t, "How To Fold Water", skill.DisplayName)
	assert.Equal(t, domain.LanguageEnglish, skill.Language)
	assert.Equal(t, domain.StringArray{"useless", "home"}, skill.Tags)
	assert.Equal(t, domain.DifficultyImpossible, skill.Difficulty)
	assert.Equal(t, 9, skill.UselessnessScore)
	assert.Equal(t, 0, skill.VotesCount)
	assert.Equal(t, CountWords(skill.Content), skill.WordCount)
	assert.Contains(t, skill.Content, "Step one")
	assert.False(t, skill.CreatedAt.IsZero())

	require.Len(t, gen.calls, 1)
	assert.Equal(t, GenerationRequest{
		Prompt:   "How to fold water",
		Language: domain.LanguageEnglish,
		Slug:     "how-to-fold-water",
	}, gen.calls[0])

	stored, err := store.GetByID(ctx, skill.ID)
	require.NoError(t, err)
	assert.Equal(t, skill.Content, stored.Content)
	assert.Equal(t, 1, store.count())
}

func TestSkillService_Generate_IDsAreUnique(t *testing.T) {
	ctx := context.Background()
	store := newFakeSkillStore()
	svc := newTestSkillService(&fakeGenerator{reply: validReply}, store, nil)

	first, err := svc.Generate(ctx, "how to fold water")
	require.NoError(t, err)
	second, err := svc.Generate(ctx, "how to fold water")
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, 2, store.count())
}

func TestSkillService_Generate_Failures(t *testing.T) {
	shortContent, err := json.Marshal(map[string]any{
		"description": "A fine description.",
		"content":     "too short",
	})
	require.NoError(t, err)

	tests := []struct {
		name      string
		prompt    string
		reply     string
		genErr    error
		createErr error
		wantKind  domain.ErrorKind
		wantCalls int
	}{
		{
			name:      "overlong prompt never reaches the generator",
			prompt:    strings.Repeat("a", MaxPromptLength+1),
			wantKind:  domain.KindInvalidInput,
			wantCalls: 0,
		},
		{
			name:      "empty prompt",
			prompt:    "   ",
			wantKind:  domain.KindInvalidInput,
			wantCalls: 0,
		},
		{
			name:      "slug too short",
			prompt:    "??",
			wantKind:  domain.KindNameGenerationFailed,
			wantCalls: 0,
		},
		{
			name:      "generator unavailable",
			prompt:    "how to fold water",
			genErr:    domain.NewError(domain.KindGenerationUnavailable, "down", nil),
			wantKind:  domain.KindGenerationUnavailable,
			wantCalls: 1,
		},
		{
			name:      "reply without json",
			prompt:    "how to fold water",
			reply:     "I'm sorry, I can't do that.",
			wantKind:  domain.KindMalformedGeneration,
			wantCalls: 1,
		},
		{
			name:      "schema violation",
			prompt:    "how to fold water",
			reply:     string(shortContent),
			wantKind:  domain.KindSchemaViolation,
			wantCalls: 1,
		},
		{
			name:      "persistence failure",
			prompt:    "how to fold water",
			reply:     validReply,
			createErr: errors.New("disk full"),
			wantKind:  domain.KindPersistenceError,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: tt.reply, err: tt.genErr}
			store := newFakeSkillStore()
			store.createErr = tt.createErr
			svc := newTestSkillService(gen, store, nil)

			skill, err := svc.Generate(context.Background(), tt.prompt)
			require.Error(t, err)
			assert.Nil(t, skill)
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
			assert.Equal(t, tt.wantCalls, gen.callCount())
			assert.Equal(t, 0, store.count(), "nothing is persisted on failure")
		})
	}
}

func TestSkillService_Transcripts(t *testing.T) {
	ctx := logger.SetRequestID(context.Background(), "req-123")

	t.Run("successful generation", func(t *testing.T) {
		objects := newFakeObjectStorage()
		svc := newTestSkillService(&fakeGenerator{reply: validReply}, newFakeSkillStore(), NewTranscriptArchive(objects))
		svc.now = func() time.Time { return time.Date(2026, 3, 7, 10, 0, 0, 0, time.UTC) }

		_, err := svc.Generate(ctx, "how to fold water")
		require.NoError(t, err)

		keys := objects.keys()
		require.Equal(t, []string{"transcripts/2026/03/07/how-to-fold-water-req-123.json"}, keys)

		var tr Transcript
		require.NoError(t, json.Unmarshal(objects.objects[keys[0]], &tr))
		assert.Equal(t, OutcomeGenerated, tr.Outcome)
		assert.Equal(t, validReply, tr.Raw)
		assert.True(t, tr.Repaired)
		assert.Equal(t, "fake-model", tr.Model)
		assert.Empty(t, tr.Error)
	})

	t.Run("malformed generation keeps raw text", func(t *testing.T) {
		objects := newFakeObjectStorage()
		svc := newTestSkillService(&fakeGenerator{reply: "no json at all"}, newFakeSkillStore(), NewTranscriptArchive(objects))

		_, err := svc.Generate(ctx, "how to fold water")
		require.Error(t, err)

		keys := objects.keys()
		require.Len(t, keys, 1)
		var tr Transcript
		require.NoError(t, json.Unmarshal(objects.objects[keys[0]], &tr))
		assert.Equal(t, OutcomeFailed, tr.Outcome)
		assert.Equal(t, "no json at all", tr.Raw)
		assert.NotEmpty(t, tr.Error)
	})

	t.Run("upload failure does not fail the request", func(t *testing.T) {
		objects := newFakeObjectStorage()
		objects.err = errors.New("bucket gone")
		store := newFakeSkillStore()
		svc := newTestSkillService(&fakeGenerator{reply: validReply}, store, NewTranscriptArchive(objects))

		_, err := svc.Generate(ctx, "how to fold water")
		require.NoError(t, err)
		assert.Equal(t, 1, store.count())
	})

	t.Run("no intake, no transcript", func(t *testing.T) {
		objects := newFakeObjectStorage()
		svc := newTestSkillService(&fakeGenerator{reply: validReply}, newFakeSkillStore(), NewTranscriptArchive(objects))

		_, err := svc.Generate(ctx, "")
		require.Error(t, err)
		assert.Empty(t, objects.keys())
	})
}

func TestSkillService_Top(t *testing.T) {
	ctx := context.Background()
	store := newFakeSkillStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Create(ctx, &domain.Skill{
			ID:         NewSkillID("skill"),
			VotesCount: i,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}))
	}
	svc := newTestSkillService(&fakeGenerator{}, store, nil)

	tests := []struct {
		name        string
		page, limit int
		wantPage    int
		wantLen     int
		wantHasMore bool
	}{
		{name: "negative page clamps to zero", page: -4, limit: 2, wantPage: 0, wantLen: 2, wantHasMore: true},
		{name: "zero limit clamps to one", page: 0, limit: 0, wantPage: 0, wantLen: 1, wantHasMore: true},
		{name: "huge limit clamps to fifty", page: 0, limit: 1000, wantPage: 0, wantLen: 5, wantHasMore: false},
		{name: "last partial page", page: 2, limit: 2, wantPage: 2, wantLen: 1, wantHasMore: false},
		{name: "past the end", page: 9, limit: 2, wantPage: 9, wantLen: 0, wantHasMore: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.Top(ctx, tt.page, tt.limit)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, res.Page)
			assert.Len(t, res.Items, tt.wantLen)
			assert.Equal(t, tt.wantHasMore, res.HasMore)
		})
	}

	store.listErr = errors.New("timeout")
	_, err := svc.Top(ctx, 0, 12)
	assert.Equal(t, domain.KindPersistenceError, domain.KindOf(err))
}

func TestSkillService_Lookups(t *testing.T) {
	ctx := context.Background()
	store := newFakeSkillStore()
	svc := newTestSkillService(&fakeGenerator{}, store, nil)

	_, err := svc.Random(ctx)
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = svc.GetByID(ctx, "nope")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	_, err = svc.GetByID(ctx, "")
	assert.Equal(t, domain.KindNotFound, domain.KindOf(err))

	require.NoError(t, store.Create(ctx, &domain.Skill{ID: "a-1", CreatedAt: time.Now()}))

	got, err := svc.GetByID(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)

	got, err = svc.Random(ctx)
	require.NoError(t, err)
	assert.Equal(t, "a-1", got.ID)

	entries, err := svc.SitemapEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a-1", entries[0].ID)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 1, ClampLimit(-1))
	assert.Equal(t, 12, ClampLimit(12))
	assert.Equal(t, MaxTopLimit, ClampLimit(MaxTopLimit+1))
	assert.Equal(t, 0, ClampPage(-1))
	assert.Equal(t, 3, ClampPage(3))
}
