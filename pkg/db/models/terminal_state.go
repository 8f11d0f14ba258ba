package models

import "time"

// TerminalState is one persisted key of a till's order session.
type TerminalState struct {
	TerminalID string    `gorm:"column:terminal_id;type:text;primaryKey"`
	StateKey   string    `gorm:"column:state_key;type:text;primaryKey"`
	Value      string    `gorm:"column:value;type:text;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"`
}

func (TerminalState) TableName() string {
	return "terminal_state"
}
