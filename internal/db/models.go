package db

import (
	"time"

	"gorm.io/datatypes"
)

type Session struct {
	Code            string         `gorm:"primaryKey;size:8"`
	Status          string         `gorm:"size:16;not null"`
	Locked          bool           `gorm:"not null;default:false"`
	MaxRounds       int            `gorm:"not null"`
	TimeLimit       int            `gorm:"not null;default:0"`
	CategoryID      string         `gorm:"size:32;not null"`
	RoundNumber     int            `gorm:"not null;default:0"`
	TurnNumber      int            `gorm:"not null;default:0"`
	Palette         datatypes.JSON `gorm:"type:jsonb;not null"`
	NextSessionCode string         `gorm:"size:8"`
	HiddenRoleID    string         `gorm:"size:36"`
	Revealed        bool           `gorm:"not null;default:false"`
	CreatedAt       time.Time      `gorm:"not null"`
	UpdatedAt       time.Time      `gorm:"not null"`
	Players         []Player       `gorm:"foreignKey:SessionCode;references:Code;constraint:OnDelete:CASCADE"`
	Strokes         []Stroke       `gorm:"foreignKey:SessionCode;references:Code;constraint:OnDelete:CASCADE"`
}

type Player struct {
	ID           string    `gorm:"primaryKey;size:36"`
	SessionCode  string    `gorm:"size:8;index;not null"`
	Name         string    `gorm:"size:64;not null"`
	TurnOrder    int       `gorm:"not null"`
	Color        string    `gorm:"size:32"`
	IsSpectator  bool      `gorm:"not null;default:false"`
	IsHiddenRole bool      `gorm:"not null;default:false"`
	Vote         string    `gorm:"size:36"`
	IsReady      bool      `gorm:"not null;default:false"`
	RejoinToken  string    `gorm:"size:36"`
	JoinedAt     time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

type Stroke struct {
	ID             uint           `gorm:"primaryKey"`
	SessionCode    string         `gorm:"size:8;not null;uniqueIndex:idx_strokes_session_sequence"`
	SequenceNumber int            `gorm:"not null;uniqueIndex:idx_strokes_session_sequence"`
	Data           datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt      time.Time      `gorm:"not null"`
}

type Category struct {
	ID        uint      `gorm:"primaryKey"`
	Topic     string    `gorm:"size:128;not null;uniqueIndex:idx_categories_topic_subject"`
	Subject   string    `gorm:"size:128;not null;uniqueIndex:idx_categories_topic_subject"`
	CreatedAt time.Time `gorm:"not null"`
}
