package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/telehealth-backend/internal/models"
	"github.com/ignatzorin/telehealth-backend/internal/repository/common"
)

var (
	ErrAppointmentNotFound        = errors.New("appointment not found")
	ErrAppointmentAlreadyResolved = errors.New("appointment already resolved")
)

// Приём вместе с суммой оплаты и пользователями обеих сторон.
// Клиент или врач без привязанного пользователя дают NULL в *_user_id.
const appointmentSelect = `
	SELECT a.id, a.customer_id, a.dermatologist_id, a.payment_id, a.customer_subscription_id,
		a.price, a.start_time, a.end_time, a.status, a.termination_reason, a.termination_note,
		a.admin_note, a.resolved_at, a.resolved_by, a.created_at, a.updated_at,
		p.amount AS payment_amount,
		c.user_id AS customer_user_id,
		d.user_id AS dermatologist_user_id
	FROM appointments a
	LEFT JOIN payments p ON p.id = a.payment_id
	LEFT JOIN customers c ON c.id = a.customer_id
	LEFT JOIN dermatologists d ON d.id = a.dermatologist_id
`

type AppointmentRepository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

func NewAppointmentRepository(db *sqlx.DB, lockTimeout time.Duration) *AppointmentRepository {
	return &AppointmentRepository{db: db, lockTimeout: lockTimeout}
}

// LockForResolution загружает приём с эксклюзивной блокировкой строки до конца транзакции.
// Блокируется только строка appointments, связанные таблицы читаются без блокировки.
func (r *AppointmentRepository) LockForResolution(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*models.Appointment, error) {
	if err := common.SetLockTimeout(ctx, tx, r.lockTimeout); err != nil {
		return nil, fmt.Errorf("appointment repository: %w", err)
	}

	var a models.Appointment
	err := tx.GetContext(ctx, &a, appointmentSelect+` WHERE a.id = $1 FOR UPDATE OF a`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointment repository: lock: %w", err)
	}
	return &a, nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Appointment, error) {
	var a models.Appointment
	err := r.db.GetContext(ctx, &a, appointmentSelect+` WHERE a.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointment repository: get: %w", err)
	}
	return &a, nil
}

// List возвращает приёмы в заданных статусах, самые свежие первыми, и общее количество.
func (r *AppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM appointments WHERE status = ANY($1)`, pq.Array(statuses)); err != nil {
		return nil, 0, fmt.Errorf("appointment repository: count: %w", err)
	}

	appointments := make([]models.Appointment, 0)
	err := r.db.SelectContext(ctx, &appointments, appointmentSelect+`
		WHERE a.status = ANY($1)
		ORDER BY a.start_time DESC
		LIMIT $2 OFFSET $3
	`, pq.Array(statuses), filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("appointment repository: list: %w", err)
	}
	return appointments, total, nil
}

// SaveResolution записывает итог урегулирования. Поля аудита пишутся один раз:
// если приём уже урегулирован, возвращается ErrAppointmentAlreadyResolved.
func (r *AppointmentRepository) SaveResolution(ctx context.Context, tx *sqlx.Tx, res models.AppointmentResolution) error {
	result, err := tx.ExecContext(ctx, `
		UPDATE appointments
		SET status = $2, termination_reason = $3, admin_note = $4,
			resolved_at = $5, resolved_by = $6, updated_at = NOW()
		WHERE id = $1 AND resolved_at IS NULL
	`, res.AppointmentID, res.Status, res.TerminationReason, res.AdminNote, res.ResolvedAt, res.ResolvedBy)
	if err != nil {
		return fmt.Errorf("appointment repository: save resolution: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("appointment repository: save resolution: %w", err)
	}
	if affected == 0 {
		return ErrAppointmentAlreadyResolved
	}
	return nil
}
