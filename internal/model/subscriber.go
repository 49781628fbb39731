package model

import "time"

// Subscriber stores a Telegram chat that receives the daily agenda.
type Subscriber struct {
	ID         uint  `gorm:"primaryKey"`
	TelegramID int64 `gorm:"uniqueIndex"`
	ChatID     int64
	FirstName  string
	LastName   string
	Username   string
	Active     bool `gorm:"default:true"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Owner is the key plans are filed under for this subscriber.
func (s Subscriber) Owner() string {
	return TelegramOwner(s.TelegramID)
}
