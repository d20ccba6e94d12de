package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Difficulty is one of the five fixed, ordered labels.
type Difficulty string

const (
	DifficultyTrivial    Difficulty = "trivial"
	DifficultyEasy       Difficulty = "easy"
	DifficultyMedium     Difficulty = "medium"
	DifficultyHard       Difficulty = "hard"
	DifficultyImpossible Difficulty = "impossible"
)

// Difficulties lists the labels from easiest to hardest.
var Difficulties = []Difficulty{
	DifficultyTrivial,
	DifficultyEasy,
	DifficultyMedium,
	DifficultyHard,
	DifficultyImpossible,
}

const (
	LanguageEnglish = "en"
	LanguageSpanish = "es"
)

// ValidTags is the closed tag vocabulary offered to the generator.
var ValidTags = []string{
	"automation", "useless", "dangerous", "productivity", "social",
	"creative", "health", "food", "pets", "technology",
	"home", "work", "entertainment", "suspicious", "certified-fake",
}

// IsValidTag reports whether tag belongs to ValidTags.
func IsValidTag(tag string) bool {
	for _, t := range ValidTags {
		if t == tag {
			return true
		}
	}
	return false
}

// IsValidDifficulty reports whether d is one of Difficulties.
func IsValidDifficulty(d string) bool {
	for _, v := range Difficulties {
		if string(v) == d {
			return true
		}
	}
	return false
}

// StringArray stores a string slice as a JSON text column.
type StringArray []string

// Value implements driver.Valuer.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *StringArray) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*a = StringArray{}
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("failed to scan StringArray")
	}
}

// Skill is a generated parody skill. Everything except VotesCount is immutable
// once the row exists.
type Skill struct {
	ID               string      `gorm:"type:text;primaryKey" json:"id"`
	Name             string      `gorm:"type:text;not null;index:idx_skills_name" json:"name"`
	DisplayName      string      `gorm:"type:text;not null" json:"displayName"`
	Description      string      `gorm:"type:text;not null" json:"description"`
	Language         string      `gorm:"type:text;not null;default:en" json:"language"`
	Tags             StringArray `gorm:"type:text" json:"tags"`
	Difficulty       Difficulty  `gorm:"type:text;not null;default:medium" json:"difficulty"`
	UselessnessScore int         `gorm:"not null;default:5" json:"uselessnessScore"`
	VotesCount       int         `gorm:"not null;default:0;index:idx_skills_top,priority:1,sort:desc" json:"voteCount"`
	Content          string      `gorm:"type:text;not null" json:"content"`
	Warnings         StringArray `gorm:"type:text" json:"warnings"`
	OriginalPrompt   string      `gorm:"type:text" json:"originalPrompt"`
	WordCount        int         `gorm:"not null;default:0" json:"wordCount"`
	CreatedAt        time.Time   `gorm:"index:idx_skills_top,priority:2,sort:desc;index:idx_skills_created_at" json:"createdAt"`
}

// TableName returns the database table name for Skill.
func (Skill) TableName() string {
	return "skills"
}

// SitemapEntry is the projection used to enumerate skills for the sitemap.
type SitemapEntry struct {
	ID        string
	CreatedAt time.Time
}
