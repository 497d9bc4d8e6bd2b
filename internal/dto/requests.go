package dto

import (
	"github.com/shopspring/decimal"
)

// ResolveDisputeRequest - тело POST /api/admin/appointments/:id/resolve.
type ResolveDisputeRequest struct {
	Decision     string           `json:"decision" binding:"required"`
	AdminNote    string           `json:"admin_note" binding:"required"`
	RefundAmount *decimal.Decimal `json:"refund_amount"`
	FinalReason  *string          `json:"final_reason"`
}
