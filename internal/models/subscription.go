package models

import (
	"time"

	"github.com/google/uuid"
)

// CustomerSubscription - подписка клиента с остатком сессий.
// SessionsRemaining не превышает TotalSessions тарифа.
type CustomerSubscription struct {
	ID                uuid.UUID `db:"id" json:"id"`
	CustomerID        uuid.UUID `db:"customer_id" json:"customer_id"`
	PlanID            uuid.UUID `db:"plan_id" json:"plan_id"`
	SessionsRemaining int       `db:"sessions_remaining" json:"sessions_remaining"`
	TotalSessions     int       `db:"total_sessions" json:"total_sessions"`
	StartDate         time.Time `db:"start_date" json:"start_date"`
	EndDate           time.Time `db:"end_date" json:"end_date"`
	IsActive          bool      `db:"is_active" json:"is_active"`
}
