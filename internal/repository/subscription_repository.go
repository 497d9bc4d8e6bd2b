package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/telehealth-backend/internal/logger"
	"github.com/ignatzorin/telehealth-backend/internal/models"
)

var ErrSubscriptionNotFound = errors.New("subscription not found")

type SubscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

const subscriptionSelect = `
	SELECT cs.id, cs.customer_id, cs.plan_id, cs.sessions_remaining, cs.start_date, cs.end_date, cs.is_active,
		sp.total_sessions
	FROM customer_subscriptions cs
	JOIN subscription_plans sp ON sp.id = cs.plan_id
`

// RefundSession возвращает одну сессию на подписку. Если остаток уже равен
// количеству сессий тарифа, ничего не меняется.
func (r *SubscriptionRepository) RefundSession(ctx context.Context, tx *sqlx.Tx, subscriptionID uuid.UUID) error {
	var sub models.CustomerSubscription
	err := tx.GetContext(ctx, &sub, subscriptionSelect+` WHERE cs.id = $1 FOR UPDATE OF cs`, subscriptionID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrSubscriptionNotFound
	}
	if err != nil {
		return fmt.Errorf("subscription repository: lock: %w", err)
	}

	if sub.SessionsRemaining >= sub.TotalSessions {
		logger.Log.WithFields(logrus.Fields{
			"subscription_id":    subscriptionID,
			"sessions_remaining": sub.SessionsRemaining,
			"total_sessions":     sub.TotalSessions,
		}).Warn("Подписка уже содержит все сессии тарифа, возврат сессии пропущен")
		return nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE customer_subscriptions SET sessions_remaining = sessions_remaining + 1 WHERE id = $1`,
		subscriptionID); err != nil {
		return fmt.Errorf("subscription repository: refund session: %w", err)
	}

	logger.Log.WithField("subscription_id", subscriptionID).Info("Сессия возвращена на подписку")
	return nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.CustomerSubscription, error) {
	var sub models.CustomerSubscription
	err := r.db.GetContext(ctx, &sub, subscriptionSelect+` WHERE cs.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("subscription repository: get: %w", err)
	}
	return &sub, nil
}
