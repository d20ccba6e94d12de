package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/arizkuren/skillbluff/internal/config"
	"github.com/arizkuren/skillbluff/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := InitDB(&config.DatabaseConfig{
		Driver:       "sqlite",
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		AutoMigrate:  true,
		LogLevel:     "silent",
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestSkill(n int, votes int, createdAt time.Time) *domain.Skill {
	return &domain.Skill{
		ID:               fmt.Sprintf("skill-%02d", n),
		Name:             fmt.Sprintf("skill-%02d", n),
		DisplayName:      fmt.Sprintf("Skill %02d", n),
		Description:      "A description long enough.",
		Language:         domain.LanguageEnglish,
		Tags:             domain.StringArray{"useless", "home"},
		Difficulty:       domain.DifficultyHard,
		UselessnessScore: 7,
		VotesCount:       votes,
		Content:          "# Skill\n\nSome content.",
		Warnings:         domain.StringArray{"Do not try this"},
		OriginalPrompt:   "a prompt",
		WordCount:        4,
		CreatedAt:        createdAt,
	}
}

func seedSkills(t *testing.T, repo *SkillRepository, n int) []*domain.Skill {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	skills := make([]*domain.Skill, 0, n)
	for i := 0; i < n; i++ {
		s := newTestSkill(i, i%3, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, repo.Create(context.Background(), s))
		skills = append(skills, s)
	}
	return skills
}
