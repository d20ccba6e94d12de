package domain

import "time"

// Vote links a client key to a skill. The pair is unique; a repeat vote only
// refreshes CreatedAt.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	SkillID   string    `gorm:"type:text;not null;uniqueIndex:idx_votes_skill_client,priority:1" json:"skill_id"`
	ClientKey string    `gorm:"type:text;not null;uniqueIndex:idx_votes_skill_client,priority:2" json:"client_key"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Vote.
func (Vote) TableName() string {
	return "votes"
}
