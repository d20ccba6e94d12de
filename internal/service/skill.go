package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/arizkuren/skillbluff/internal/domain"
	"github.com/arizkuren/skillbluff/internal/logger"
	"github.com/google/uuid"
)

const (
	DefaultTopLimit = 12
	MaxTopLimit     = 50
)

// SkillStore is the persistence gateway used by SkillService.
type SkillStore interface {
	Create(ctx context.Context, skill *domain.Skill) error
	GetByID(ctx context.Context, id string) (*domain.Skill, error)
	GetRandom(ctx context.Context) (*domain.Skill, error)
	ListTop(ctx context.Context, page, limit int) ([]domain.Skill, error)
	ListForSitemap(ctx context.Context) ([]domain.SitemapEntry, error)
}

// TopPage is one page of the leaderboard.
type TopPage struct {
	Items   []domain.Skill
	Page    int
	HasMore bool
}

// SkillService runs the generation pipeline and serves read queries.
type SkillService struct {
	store     SkillStore
	generator Generator
	validator *RecordValidator
	archive   *TranscriptArchive
	now       func() time.Time
}

// SkillServiceConfig wires the SkillService collaborators.
type SkillServiceConfig struct {
	Store     SkillStore
	Generator Generator
	// Archive is optional; nil disables transcript archiving.
	Archive *TranscriptArchive
}

// NewSkillService creates a SkillService.
func NewSkillService(cfg SkillServiceConfig) *SkillService {
	return &SkillService{
		store:     cfg.Store,
		generator: cfg.Generator,
		validator: NewRecordValidator(),
		archive:   cfg.Archive,
		now:       time.Now,
	}
}

// NewSkillID builds "<slug>-<8 hex chars>".
func NewSkillID(slug string) string {
	return slug + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Build runs every pipeline stage except persistence.
// Parameters:
//   - ctx: request context.
//   - prompt: raw visitor prompt.
//
// Returns:
//   - *domain.Skill: validated, not yet saved skill.
//   - error: *domain.Error describing the failed stage.
func (s *SkillService) Build(ctx context.Context, prompt string) (*domain.Skill, error) {
	in, err := NewIntake(prompt)
	if err != nil {
		return nil, err
	}

	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldSlug:      in.Slug,
		logger.FieldComponent: "generate",
	})
	log := logger.FromContext(ctx)

	transcript := &Transcript{
		RequestID: s.requestID(ctx),
		Prompt:    in.Prompt,
		Slug:      in.Slug,
		Language:  in.Language,
		Model:     s.generator.Model(),
		Outcome:   OutcomeFailed,
		CreatedAt: s.now(),
	}
	defer s.archive.Save(ctx, transcript)

	started := time.Now()
	raw, err := s.generator.Generate(ctx, GenerationRequest{
		Prompt:   in.Prompt,
		Language: in.Language,
		Slug:     in.Slug,
	})
	if err != nil {
		transcript.Error = err.Error()
		log.WithError(err).Error("Generation call failed")
		return nil, err
	}
	transcript.Raw = raw
	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(started).Milliseconds(),
		logger.FieldSize:       len(raw),
	}).Debug(ctx, "Generation call completed")

	ext, err := ExtractJSONObject(raw)
	if ext != nil {
		transcript.Extracted = ext.Candidate
		transcript.Repaired = ext.Repaired
	}
	if err != nil {
		transcript.Error = err.Error()
		fields := logger.Fields{"raw": raw}
		if ext != nil {
			fields["candidate"] = ext.Candidate
		}
		log.WithFields(fields).WithError(err).Error("Could not extract JSON from generation")
		return nil, err
	}
	if ext.Repaired {
		log.Info("Generation JSON needed control character repair")
	}
	transcript.Payload = ext.Object

	rec := CoerceRecord(ext.Object, in)
	if err := s.validator.Validate(rec); err != nil {
		transcript.Error = err.Error()
		log.WithError(err).Warn("Generated skill failed validation")
		return nil, err
	}

	words := CountWords(rec.Content)
	if !WordCountInRange(words) {
		log.WithField(logger.FieldWordCount, words).Warn("Generated content is outside the 400-800 word target")
	}

	transcript.Outcome = OutcomeGenerated
	return &domain.Skill{
		ID:               NewSkillID(rec.Name),
		Name:             rec.Name,
		DisplayName:      rec.DisplayName,
		Description:      rec.Description,
		Language:         rec.Language,
		Tags:             domain.StringArray(rec.Tags),
		Difficulty:       domain.Difficulty(rec.Difficulty),
		UselessnessScore: rec.UselessnessScore,
		Content:          rec.Content,
		Warnings:         domain.StringArray(rec.Warnings),
		OriginalPrompt:   rec.OriginalPrompt,
		WordCount:        words,
		CreatedAt:        s.now().UTC(),
	}, nil
}

// Generate runs the whole submission pipeline and persists the result.
// Parameters:
//   - ctx: request context.
//   - prompt: raw visitor prompt.
//
// Returns:
//   - *domain.Skill: the stored skill.
//   - error: *domain.Error; nothing is stored when it is non-nil.
func (s *SkillService) Generate(ctx context.Context, prompt string) (*domain.Skill, error) {
	skill, err := s.Build(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, skill); err != nil {
		return nil, err
	}
	return skill, nil
}

// Save persists a built skill.
func (s *SkillService) Save(ctx context.Context, skill *domain.Skill) error {
	ctx = logger.SetSkillID(ctx, skill.ID)
	if err := s.store.Create(ctx, skill); err != nil {
		logger.FromContext(ctx).WithError(err).Error("Failed to save skill")
		return domain.NewError(domain.KindPersistenceError, "could not save the skill", err)
	}
	logger.With(logger.Fields{
		logger.FieldWordCount: skill.WordCount,
	}).Info(ctx, "Skill saved: %s", skill.Name)
	return nil
}

// GetByID returns a stored skill or a NotFound error.
func (s *SkillService) GetByID(ctx context.Context, id string) (*domain.Skill, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.NewError(domain.KindNotFound, "skill not found", nil)
	}
	skill, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return skill, nil
}

// Random returns a random skill among the most recent ones.
func (s *SkillService) Random(ctx context.Context) (*domain.Skill, error) {
	skill, err := s.store.GetRandom(ctx)
	if err != nil {
		return nil, mapLookupError(err)
	}
	return skill, nil
}

// Top returns one leaderboard page. page is clamped to >= 0 and limit to
// [1, MaxTopLimit].
func (s *SkillService) Top(ctx context.Context, page, limit int) (*TopPage, error) {
	page = ClampPage(page)
	limit = ClampLimit(limit)

	items, err := s.store.ListTop(ctx, page, limit)
	if err != nil {
		return nil, domain.NewError(domain.KindPersistenceError, "could not load top skills", err)
	}
	return &TopPage{
		Items:   items,
		Page:    page,
		HasMore: len(items) == limit,
	}, nil
}

// SitemapEntries lists every stored skill for the sitemap.
func (s *SkillService) SitemapEntries(ctx context.Context) ([]domain.SitemapEntry, error) {
	entries, err := s.store.ListForSitemap(ctx)
	if err != nil {
		return nil, domain.NewError(domain.KindPersistenceError, "could not list skills", err)
	}
	return entries, nil
}

// ClampPage forces page >= 0.
func ClampPage(page int) int {
	if page < 0 {
		return 0
	}
	return page
}

// ClampLimit forces limit into [1, MaxTopLimit].
func ClampLimit(limit int) int {
	switch {
	case limit < 1:
		return 1
	case limit > MaxTopLimit:
		return MaxTopLimit
	default:
		return limit
	}
}

func (s *SkillService) requestID(ctx context.Context) string {
	if id := logger.GetRequestID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func mapLookupError(err error) error {
	if errors.Is(err, domain.ErrSkillNotFound) {
		return domain.NewError(domain.KindNotFound, "skill not found", err)
	}
	return domain.NewError(domain.KindPersistenceError, "could not load the skill", err)
}
