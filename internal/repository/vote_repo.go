package repository

import (
	"context"
	"errors"
	"time"

	"github.com/arizkuren/skillbluff/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VoteRepository handles vote data operations.
type VoteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new VoteRepository.
func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// RecordVote upserts the (skillID, clientKey) vote and recounts the skill's
// votes inside one transaction. A repeat vote from the same key only refreshes
// its timestamp, so the stored count equals the number of distinct keys.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - skillID: ID of the skill being voted.
//   - clientKey: opaque voter identity.
//
// Returns:
//   - int: the skill's vote count after this vote.
//   - error: domain.ErrSkillNotFound for unknown skills, other errors on failure.
func (r *VoteRepository) RecordVote(ctx context.Context, skillID, clientKey string) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Row lock serializes votes on one skill so the recount below sees
		// every committed relation. SQLite ignores the clause.
		var skill domain.Skill
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&skill, "id = ?", skillID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrSkillNotFound
			}
			return err
		}

		vote := domain.Vote{
			SkillID:   skillID,
			ClientKey: clientKey,
			CreatedAt: time.Now(),
		}
		if err := upsertVote(tx, &vote); err != nil {
			return err
		}

		if err := tx.Model(&domain.Vote{}).Where("skill_id = ?", skillID).Count(&total).Error; err != nil {
			return err
		}

		return tx.Model(&domain.Skill{}).
			Where("id = ?", skillID).
			UpdateColumn("votes_count", total).Error
	})
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

// Upsert inserts the vote or refreshes created_at when the (skill, client)
// pair already exists.
func (r *VoteRepository) Upsert(ctx context.Context, vote *domain.Vote) error {
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now()
	}
	return upsertVote(r.db.WithContext(ctx), vote)
}

func upsertVote(tx *gorm.DB, vote *domain.Vote) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "skill_id"}, {Name: "client_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"created_at"}),
	}).Create(vote).Error
}

// CountBySkill returns the number of distinct voters for a skill.
func (r *VoteRepository) CountBySkill(ctx context.Context, skillID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Vote{}).Where("skill_id = ?", skillID).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}
