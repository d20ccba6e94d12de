package repository

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/arizkuren/skillbluff/internal/domain"
	"gorm.io/gorm"
)

// RandomPoolSize bounds GetRandom to the most recently created skills.
const RandomPoolSize = 100

// SkillRepository handles skill data operations.
type SkillRepository struct {
	db *gorm.DB
}

// NewSkillRepository creates a new SkillRepository.
// Parameters:
//   - db: GORM database handle used for queries.
//
// Returns:
//   - *SkillRepository: repository instance bound to db.
func NewSkillRepository(db *gorm.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

// Create inserts exactly one new skill row.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - skill: skill record to persist.
//
// Returns:
//   - error: non-nil if the insert fails (including a duplicate ID).
func (r *SkillRepository) Create(ctx context.Context, skill *domain.Skill) error {
	return r.db.WithContext(ctx).Create(skill).Error
}

// GetByID retrieves a skill by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: skill ID.
//
// Returns:
//   - *domain.Skill: skill record if found.
//   - error: domain.ErrSkillNotFound when absent, other errors on query failure.
func (r *SkillRepository) GetByID(ctx context.Context, id string) (*domain.Skill, error) {
	var skill domain.Skill
	if err := r.db.WithContext(ctx).First(&skill, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSkillNotFound
		}
		return nil, err
	}
	return &skill, nil
}

// GetRandom picks one skill uniformly among the RandomPoolSize most recent ones.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//
// Returns:
//   - *domain.Skill: the chosen skill.
//   - error: domain.ErrSkillNotFound when the table is empty.
func (r *SkillRepository) GetRandom(ctx context.Context) (*domain.Skill, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&domain.Skill{}).
		Order("created_at DESC").
		Limit(RandomPoolSize).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, domain.ErrSkillNotFound
	}
	return r.GetByID(ctx, ids[rand.IntN(len(ids))])
}

// ListTop returns skills ordered by votes, newest first on ties.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - page: zero-based page index, already clamped by the caller.
//   - limit: page size, already clamped by the caller.
//
// Returns:
//   - []domain.Skill: the requested page.
//   - error: non-nil if the query fails.
func (r *SkillRepository) ListTop(ctx context.Context, page, limit int) ([]domain.Skill, error) {
	skills := []domain.Skill{}
	if err := r.db.WithContext(ctx).
		Order("votes_count DESC").
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(page * limit).
		Find(&skills).Error; err != nil {
		return nil, err
	}
	return skills, nil
}

// ListForSitemap returns the ID and creation time of every skill, newest first.
func (r *SkillRepository) ListForSitemap(ctx context.Context) ([]domain.SitemapEntry, error) {
	var entries []domain.SitemapEntry
	if err := r.db.WithContext(ctx).
		Model(&domain.Skill{}).
		Select("id", "created_at").
		Order("created_at DESC").
		Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
