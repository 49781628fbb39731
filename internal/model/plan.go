package model

import (
	"fmt"
	"time"
)

// Plan is a generated study plan together with the constraints it was allocated under.
type Plan struct {
	ID            string `gorm:"primaryKey;size:36"`
	Owner         string `gorm:"index"`
	Topic         string
	HoursPerDay   float64
	DeadlineWeeks int
	DaysPerWeek   int
	Mode          string
	StartDate     string
	CreatedAt     time.Time   `gorm:"index"`
	Entries       []PlanEntry `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE"`
}

// PlanEntry is one dated task instance of a plan.
type PlanEntry struct {
	ID        uint   `gorm:"primaryKey"`
	PlanID    string `gorm:"index;size:36"`
	Position  int
	Task      string
	Duration  int
	Date      string `gorm:"index"`
	Recurring bool   `gorm:"default:false"`
}

// TelegramOwner builds the owner key for plans requested from a Telegram user.
func TelegramOwner(telegramID int64) string {
	return fmt.Sprintf("tg:%d", telegramID)
}
