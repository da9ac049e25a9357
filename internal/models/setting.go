package models

import "time"

// Setting is a runtime key/value toggle persisted across restarts.
type Setting struct {
	Key       string    `bson:"_id" json:"key"`
	Value     string    `bson:"value" json:"value"`
	UpdatedBy string    `bson:"updatedBy,omitempty" json:"updatedBy,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// SettingRiggedWinner holds the pending forced winner for the next draw.
const SettingRiggedWinner = "rigged_winner"
