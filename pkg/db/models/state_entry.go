package models

import "time"

// StateEntry is one persisted client-state key (token, user, favorites).
type StateEntry struct {
	Key       string    `gorm:"column:state_key;primaryKey;size:191"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (StateEntry) TableName() string { return "client_state" }
