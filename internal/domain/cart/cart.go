package cart

import (
	"strings"
	"time"
)

// Entry links a user (by email) to an offering they intend to pay for.
// Price is a snapshot taken when the entry is added.
type Entry struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	ClassID        string    `json:"classId"`
	Name           string    `json:"name"`
	Image          string    `json:"image,omitempty"`
	InstructorName string    `json:"instructorName,omitempty"`
	Price          float64   `json:"price"`
	CreatedAt      time.Time `json:"createdAt"`
}

type AddRequest struct {
	Email          string  `json:"email" binding:"required,email"`
	ClassID        string  `json:"classId" binding:"required"`
	Name           string  `json:"name" binding:"required,max=160"`
	Image          string  `json:"image" binding:"omitempty,max=2048"`
	InstructorName string  `json:"instructorName" binding:"omitempty,max=120"`
	Price          float64 `json:"price" binding:"gte=0"`
}

func NewFromAddRequest(req AddRequest) Entry {
	return Entry{
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		ClassID:        strings.TrimSpace(req.ClassID),
		Name:           strings.TrimSpace(req.Name),
		Image:          req.Image,
		InstructorName: req.InstructorName,
		Price:          req.Price,
		CreatedAt:      time.Now().UTC(),
	}
}
