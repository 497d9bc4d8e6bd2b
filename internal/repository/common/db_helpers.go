package common

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SelectByField - универсальная функция для выборки списка сущностей по одному полю
func SelectByField[T any](ctx context.Context, q sqlx.QueryerContext, table, field string, value interface{}, orderBy string) ([]T, error) {
	entities := make([]T, 0)
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", table, field)
	if orderBy != "" {
		query += " ORDER BY " + orderBy
	}

	if err := sqlx.SelectContext(ctx, q, &entities, query, value); err != nil {
		return nil, fmt.Errorf("select by %s from %s: %w", field, table, err)
	}

	return entities, nil
}

// SetLockTimeout ограничивает ожидание блокировок строк до конца текущей транзакции.
func SetLockTimeout(ctx context.Context, tx *sqlx.Tx, timeout time.Duration) error {
	if timeout <= 0 {
		return nil
	}
	// SET LOCAL не принимает параметры, значение подставляется числом миллисекунд
	query := fmt.Sprintf("SET LOCAL lock_timeout = %d", timeout.Milliseconds())
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("set lock_timeout: %w", err)
	}
	return nil
}

// WithTransaction выполняет функцию внутри транзакции с правильной обработкой ошибок
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			// При панике откатываем транзакцию
			_ = tx.Rollback()
			panic(p)
		}
	}()

	err = fn(tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %w, rollback error: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// TxManager открывает транзакции для сервисов, которым нужна единица работы поверх нескольких репозиториев.
type TxManager struct {
	db *sqlx.DB
}

func NewTxManager(db *sqlx.DB) *TxManager {
	return &TxManager{db: db}
}

func (m *TxManager) WithinTransaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return WithTransaction(ctx, m.db, fn)
}
