package tutor

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const DefaultTopic = "New conversation"

// Session is one conversation. NextSeq hands out dense turn positions 1..T.
type Session struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID string    `gorm:"column:user_id;type:varchar(128);not null;index" json:"user_id"`
	Topic  string    `gorm:"column:topic;not null;default:'New conversation'" json:"topic"`

	NextSeq int64 `gorm:"column:next_seq;not null;default:0" json:"next_seq"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Session) TableName() string { return "tutor_session" }

// Source is a retrieved passage that grounded an explanation.
type Source struct {
	Label   string  `json:"label"`
	Content string  `json:"content,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Media is an image link found for an explanation.
type Media struct {
	Title string `json:"title"`
	Link  string `json:"link"`
	Query string `json:"query,omitempty"`
}

// Turn is one message in a session's history.
type Turn struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_turn_session_seq,priority:1" json:"session_id"`
	Seq       int64          `gorm:"column:seq;not null;uniqueIndex:idx_turn_session_seq,priority:2" json:"seq"`
	Role      Role           `gorm:"column:role;type:varchar(16);not null" json:"role"`
	Content   string         `gorm:"column:content;type:text;not null" json:"content"`
	Sources   datatypes.JSON `gorm:"column:sources" json:"sources,omitempty"`
	Media     datatypes.JSON `gorm:"column:media" json:"media,omitempty"`
	CreatedAt time.Time      `gorm:"not null;index" json:"timestamp"`
}

func (Turn) TableName() string { return "tutor_turn" }

// SourceList decodes Sources; malformed payloads decode to nil.
func (t *Turn) SourceList() []Source {
	if t == nil || len(t.Sources) == 0 {
		return nil
	}
	var out []Source
	if err := json.Unmarshal(t.Sources, &out); err != nil {
		return nil
	}
	return out
}

// MediaList decodes Media; malformed payloads decode to nil.
func (t *Turn) MediaList() []Media {
	if t == nil || len(t.Media) == 0 {
		return nil
	}
	var out []Media
	if err := json.Unmarshal(t.Media, &out); err != nil {
		return nil
	}
	return out
}

// SetAttachments encodes sources and media; empty lists are stored as NULL.
func (t *Turn) SetAttachments(sources []Source, media []Media) error {
	t.Sources, t.Media = nil, nil
	if len(sources) > 0 {
		raw, err := json.Marshal(sources)
		if err != nil {
			return err
		}
		t.Sources = datatypes.JSON(raw)
	}
	if len(media) > 0 {
		raw, err := json.Marshal(media)
		if err != nil {
			return err
		}
		t.Media = datatypes.JSON(raw)
	}
	return nil
}
