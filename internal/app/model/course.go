package model

import (
	"time"

	"github.com/ikkim/cosmetica-backend/pkg/money"
	"gorm.io/gorm"
)

// CoursePackage is one priced option on a course, e.g. "With Kit"
type CoursePackage struct {
	Name  string       `json:"name"`
	Price money.Amount `json:"price"`
}

// Course is a training course. In-person courses are secured with a fixed
// deposit; online courses are paid in full.
type Course struct {
	ID          string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Title       string          `gorm:"not null" json:"title"`
	Description string          `gorm:"type:text" json:"description"`
	ImageURL    string          `json:"image_url"`
	IsOnline    bool            `json:"is_online"`
	Deposit     money.Amount    `json:"deposit"`
	Packages    []CoursePackage `gorm:"type:text;serializer:json" json:"packages"`
	Dates       []string        `gorm:"type:text;serializer:json" json:"dates"`
	Active      bool            `gorm:"index" json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (Course) TableName() string {
	return "courses"
}

func (c *Course) FindPackage(name string) (CoursePackage, bool) {
	for _, p := range c.Packages {
		if p.Name == name {
			return p, true
		}
	}
	return CoursePackage{}, false
}

func (c *Course) HasDate(date string) bool {
	for _, d := range c.Dates {
		if d == date {
			return true
		}
	}
	return false
}
