package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lockSubscriptionQuery = regexp.QuoteMeta("FROM customer_subscriptions cs") + ".*" +
		regexp.QuoteMeta("WHERE cs.id = $1 FOR UPDATE OF cs")
	refundSessionQuery = regexp.QuoteMeta(
		"UPDATE customer_subscriptions SET sessions_remaining = sessions_remaining + 1 WHERE id = $1")
	subscriptionColumns = []string{"id", "sessions_remaining", "total_sessions"}
)

func TestSubscriptionRepository_RefundSession(t *testing.T) {
	conn, tx, mock := newMockTx(t)
	id := uuid.New()

	mock.ExpectQuery(lockSubscriptionQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns).AddRow(id.String(), 2, 5))
	mock.ExpectExec(refundSessionQuery).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewSubscriptionRepository(conn).RefundSession(context.Background(), tx, id)

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepository_RefundSession_CappedAtPlanTotal(t *testing.T) {
	for _, remaining := range []int{5, 6} {
		conn, tx, mock := newMockTx(t)
		id := uuid.New()

		mock.ExpectQuery(lockSubscriptionQuery).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(subscriptionColumns).AddRow(id.String(), remaining, 5))

		err := NewSubscriptionRepository(conn).RefundSession(context.Background(), tx, id)

		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet(), "remaining=%d", remaining)
	}
}

func TestSubscriptionRepository_RefundSession_NotFound(t *testing.T) {
	conn, tx, mock := newMockTx(t)
	id := uuid.New()

	mock.ExpectQuery(lockSubscriptionQuery).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns))

	err := NewSubscriptionRepository(conn).RefundSession(context.Background(), tx, id)

	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscriptionRepository_GetByID_NotFound(t *testing.T) {
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer raw.Close()
	conn := sqlx.NewDb(raw, "postgres")
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE cs.id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(subscriptionColumns))

	sub, err := NewSubscriptionRepository(conn).GetByID(context.Background(), id)

	assert.Nil(t, sub)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
