package service

import (
	"context"
	"errors"
	"strings"

	"github.com/arizkuren/skillbluff/internal/domain"
	"github.com/arizkuren/skillbluff/internal/logger"
)

// VoteStore persists vote relations and keeps the skill counter in sync.
type VoteStore interface {
	RecordVote(ctx context.Context, skillID, clientKey string) (int, error)
	CountBySkill(ctx context.Context, skillID string) (int, error)
}

// VoteService applies the per-client rate limit and records votes.
type VoteService struct {
	votes   VoteStore
	limiter RateLimiter
}

// NewVoteService creates a VoteService.
// Parameters:
//   - votes: vote persistence.
//   - limiter: per-client rate limiter (memory or Redis).
//
// Returns:
//   - *VoteService: ready to use service.
func NewVoteService(votes VoteStore, limiter RateLimiter) *VoteService {
	return &VoteService{votes: votes, limiter: limiter}
}

// Vote records a vote of clientKey for itemID and returns the new vote count.
// Parameters:
//   - ctx: request context.
//   - itemID: skill ID.
//   - clientKey: voter identity; the HTTP layer falls back to a hashed IP.
//
// Returns:
//   - int: number of distinct voters after this vote.
//   - error: *domain.Error of kind InvalidInput, RateLimited, NotFound or
//     PersistenceError.
func (s *VoteService) Vote(ctx context.Context, itemID, clientKey string) (int, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return 0, domain.NewError(domain.KindInvalidInput, "itemId is required", nil)
	}
	if clientKey == "" {
		return 0, domain.NewError(domain.KindInvalidInput, "clientKey is required", nil)
	}

	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldSkillID:   itemID,
		logger.FieldClientKey: clientKey,
	})
	log := logger.FromContext(ctx)

	allowed, wait, err := s.limiter.Allow(ctx, clientKey)
	if err != nil {
		return 0, domain.NewError(domain.KindPersistenceError, "could not check the vote limit", err)
	}
	if !allowed {
		secs := WaitSeconds(wait)
		log.WithField("wait_seconds", secs).Info("Vote rate limited")
		return 0, &domain.Error{
			Kind:        domain.KindRateLimited,
			Message:     "you can vote again in a moment",
			WaitSeconds: secs,
		}
	}

	count, err := s.votes.RecordVote(ctx, itemID, clientKey)
	if err != nil {
		if relErr := s.limiter.Release(ctx, clientKey); relErr != nil {
			log.WithError(relErr).Warn("Failed to release vote reservation")
		}
		if errors.Is(err, domain.ErrSkillNotFound) {
			return 0, domain.NewError(domain.KindNotFound, "skill not found", err)
		}
		log.WithError(err).Error("Failed to record vote")
		return 0, domain.NewError(domain.KindPersistenceError, "could not record the vote", err)
	}

	logger.With(logger.Fields{logger.FieldCount: count}).Info(ctx, "Vote recorded")
	return count, nil
}

// Count returns the number of distinct voters for itemID.
func (s *VoteService) Count(ctx context.Context, itemID string) (int, error) {
	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return 0, domain.NewError(domain.KindInvalidInput, "itemId is required", nil)
	}
	count, err := s.votes.CountBySkill(ctx, itemID)
	if err != nil {
		return 0, domain.NewError(domain.KindPersistenceError, "could not count votes", err)
	}
	return count, nil
}
