package storage

import (
	"time"

	"github.com/echonotes/backend/services/notes/entity"
)

type noteModel struct {
	ID            string    `gorm:"primaryKey"`
	UserID        string    `gorm:"index;not null"`
	Transcription string    `gorm:"type:text"`
	Summary       string    `gorm:"type:text"`
	KeyPoints     []string  `gorm:"serializer:json"`
	ActionItems   []string  `gorm:"serializer:json"`
	AudioURL      string    `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"index"`
}

func (noteModel) TableName() string {
	return "notes"
}

func fromEntity(n *entity.Note) *noteModel {
	return &noteModel{
		Transcription: n.Transcription,
		Summary:       n.Summary,
		KeyPoints:     n.KeyPoints,
		ActionItems:   n.ActionItems,
		AudioURL:      n.AudioURL,
	}
}

func (m *noteModel) toEntity() *entity.Note {
	keyPoints := m.KeyPoints
	if keyPoints == nil {
		keyPoints = []string{}
	}
	actionItems := m.ActionItems
	if actionItems == nil {
		actionItems = []string{}
	}

	return &entity.Note{
		ID:            m.ID,
		UserID:        m.UserID,
		Transcription: m.Transcription,
		Summary:       m.Summary,
		KeyPoints:     keyPoints,
		ActionItems:   actionItems,
		AudioURL:      m.AudioURL,
		CreatedAt:     m.CreatedAt,
	}
}
