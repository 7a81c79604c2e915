package offering

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

type Offering struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Image           string    `json:"image,omitempty"`
	InstructorName  string    `json:"instructorName"`
	InstructorEmail string    `json:"instructorEmail"`
	Price           float64   `json:"price"`
	AvailableSeats  int       `json:"availableSeats"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Name            string  `json:"name" binding:"required,min=2,max=160"`
	Image           string  `json:"image" binding:"omitempty,max=2048"`
	InstructorName  string  `json:"instructorName" binding:"required,max=120"`
	InstructorEmail string  `json:"instructorEmail" binding:"required,email"`
	Price           float64 `json:"price" binding:"gte=0"`
	AvailableSeats  int     `json:"availableSeats" binding:"gte=0,max=100000"`
}

// NewFromCreateRequest always starts the offering as pending; approval is an
// administrative action.
func NewFromCreateRequest(req CreateRequest) Offering {
	now := time.Now().UTC()

	return Offering{
		Name:            strings.TrimSpace(req.Name),
		Image:           req.Image,
		InstructorName:  strings.TrimSpace(req.InstructorName),
		InstructorEmail: strings.ToLower(strings.TrimSpace(req.InstructorEmail)),
		Price:           req.Price,
		AvailableSeats:  req.AvailableSeats,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
