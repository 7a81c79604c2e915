package payment

import (
	"errors"
	"strings"
	"time"
)

// ErrCleanupPending is returned alongside a persisted payment when its cart
// entries could not be removed in the same step. The reconciliation pass
// finishes the removal.
var ErrCleanupPending = errors.New("payment recorded, cart cleanup pending")

type Payment struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	TransactionID string    `json:"transactionId"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	ClassItems    []string  `json:"classItems"`
	CourseItems   []string  `json:"courseItems"`
	ItemNames     []string  `json:"itemNames,omitempty"`
	CartCleared   bool      `json:"cartCleared"`
	CreatedAt     time.Time `json:"createdAt"`
}

type RecordRequest struct {
	Email         string   `json:"email" binding:"required,email"`
	TransactionID string   `json:"transactionId" binding:"required,max=255"`
	Amount        float64  `json:"price" binding:"gte=0"`
	Currency      string   `json:"currency" binding:"omitempty,len=3"`
	ClassItems    []string `json:"classItems" binding:"required,min=1,dive,required"`
	CourseItems   []string `json:"courseItems" binding:"omitempty,dive,required"`
	ItemNames     []string `json:"itemNames"`
}

type IntentRequest struct {
	CourseFee float64 `json:"courseFee" binding:"required,gt=0"`
}

func NewFromRecordRequest(req RecordRequest, defaultCurrency string) Payment {
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	courseItems := req.CourseItems
	if courseItems == nil {
		courseItems = []string{}
	}

	return Payment{
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		TransactionID: strings.TrimSpace(req.TransactionID),
		Amount:        req.Amount,
		Currency:      currency,
		ClassItems:    dedupe(req.ClassItems),
		CourseItems:   courseItems,
		ItemNames:     req.ItemNames,
		CreatedAt:     time.Now().UTC(),
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))

	for _, id := range ids {
		id = strings.TrimSpace(id)
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
