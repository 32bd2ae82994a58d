package models

import (
	"time"

	"cafe/src/types"
)

// SessionTemplate is a recurring weekly pattern. Expansion reads it and never
// mutates it; price changes after expansion do not touch materialized sessions.
type SessionTemplate struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	HallID          uint   `json:"hall_id,omitempty"`
	DayOfWeek       int    `json:"day_of_week"`
	StartTime       string `json:"start_time,omitempty"`
	Price           int64  `json:"price"`
	MaxParticipants uint   `json:"max_participants,omitempty"`
	IsActive        bool   `gorm:"default:true" json:"is_active"`

	Hall Hall `json:"hall,omitempty"`

	types.Timestamps
}

type Session struct {
	ID                  uint                `gorm:"primarykey" json:"id"`
	BranchID            uint                `json:"branch_id,omitempty"`
	HallID              uint                `json:"hall_id,omitempty"`
	SessionTemplateID   *uint               `gorm:"uniqueIndex:idx_sessions_template_date" json:"session_template_id,omitempty"`
	Date                time.Time           `gorm:"type:date;uniqueIndex:idx_sessions_template_date" json:"date"`
	StartTime           string              `json:"start_time,omitempty"`
	Price               int64               `json:"price"`
	MaxParticipants     uint                `json:"max_participants"`
	CurrentParticipants uint                `gorm:"default:0" json:"current_participants"`
	Status              types.SessionStatus `gorm:"default:'upcoming'" json:"status,omitempty"`

	Hall   Hall   `json:"hall,omitempty"`
	Branch Branch `json:"branch,omitempty"`

	types.Timestamps
}

func (s *Session) AvailableSpots() uint {
	if s.CurrentParticipants >= s.MaxParticipants {
		return 0
	}
	return s.MaxParticipants - s.CurrentParticipants
}
