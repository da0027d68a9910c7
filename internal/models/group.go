package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Group struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	JoinCode  string    `gorm:"uniqueIndex;not null" json:"join_code"`
	MaxSize   int       `gorm:"not null;default:4" json:"max_size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// GroupMember links a user to the single group they ride with.
type GroupMember struct {
	GroupID  string    `gorm:"type:uuid;primaryKey" json:"group_id"`
	UserID   string    `gorm:"type:uuid;primaryKey;uniqueIndex:idx_group_members_user" json:"user_id"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}
