package model

import "time"

// CartSnapshot is the database-backed persistence row for one cart session.
// Payload is the JSON array of line items.
type CartSnapshot struct {
	Key       string    `gorm:"column:cart_key;primaryKey;type:varchar(128)" json:"key"`
	Payload   string    `gorm:"type:text;not null" json:"payload"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (CartSnapshot) TableName() string {
	return "cart_snapshots"
}
