package quota

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/dbmetrics"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/psqlbuilder"
)

const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
)

// Repository журнал квоты (quota_ledger) и материализованный баланс (user_quotas)
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория квоты
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// LockBalance возвращает баланс пользователя, блокируя его строку до конца транзакции
// Строка создаётся с нулевым балансом, если её ещё нет: иначе блокировать было бы нечего
func (r *Repository) LockBalance(ctx context.Context, userID int64) (*domain.UserQuota, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("user_quotas").
		Columns("user_id", "available_hours").
		Values(userID, decimal.Zero).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: LockBalance - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("%w: LockBalance - ensure row: %v", ErrExecQuery, err)
	}

	query, args, err = psqlbuilder.Select("user_id", "available_hours", "updated_at").
		From("user_quotas").
		Where(squirrel.Eq{"user_id": userID}).
		Suffix("FOR UPDATE").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: LockBalance - build select query: %v", ErrBuildQuery, err)
	}

	var (
		quota     domain.UserQuota
		updatedAt sql.NullTime
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(&quota.UserID, &quota.AvailableHours, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: LockBalance - scan balance: %v", ErrScanRow, err)
	}
	quota.UpdatedAt = updatedAt.Time

	return &quota, nil
}

// GetBalance возвращает материализованный баланс; для нового пользователя баланс нулевой
func (r *Repository) GetBalance(ctx context.Context, userID int64) (*domain.UserQuota, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("user_id", "available_hours", "updated_at").
		From("user_quotas").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetBalance - build select query: %v", ErrBuildQuery, err)
	}

	var (
		quota     domain.UserQuota
		updatedAt sql.NullTime
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(&quota.UserID, &quota.AvailableHours, &updatedAt)
	if err == sql.ErrNoRows {
		return &domain.UserQuota{UserID: userID, AvailableHours: decimal.Zero}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetBalance - scan balance: %v", ErrScanRow, err)
	}
	quota.UpdatedAt = updatedAt.Time

	return &quota, nil
}

// SumLedger считает баланс по журналу
func (r *Repository) SumLedger(ctx context.Context, userID int64) (decimal.Decimal, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("COALESCE(SUM(hours_change), 0)").
		From("quota_ledger").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()

	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: SumLedger - build select query: %v", ErrBuildQuery, err)
	}

	var sum decimal.Decimal
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("%w: SumLedger - scan sum: %v", ErrScanRow, err)
	}

	return sum, nil
}

// AppendEntry добавляет запись в журнал и сдвигает материализованный баланс на ту же величину
// Обе записи выполняются в транзакции из контекста вызывающей стороны
func (r *Repository) AppendEntry(ctx context.Context, entry *domain.QuotaLedgerEntry) (decimal.Decimal, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("quota_ledger").
		Columns("user_id", "hours_change", "transaction_type", "booking_id", "comment").
		Values(entry.UserID, entry.HoursChange, entry.TransactionType, entry.BookingID, entry.Comment).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: AppendEntry - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &createdAt); err != nil {
		if isViolation(err, codeUniqueViolation) {
			return decimal.Zero, ErrDuplicateEntry
		}
		return decimal.Zero, fmt.Errorf("%w: AppendEntry - execute insert: %v", ErrExecQuery, err)
	}
	entry.CreatedAt = createdAt.Time

	query, args, err = psqlbuilder.Insert("user_quotas").
		Columns("user_id", "available_hours").
		Values(entry.UserID, entry.HoursChange).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET " +
			"available_hours = user_quotas.available_hours + EXCLUDED.available_hours, " +
			"updated_at = NOW() RETURNING available_hours").
		ToSql()

	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: AppendEntry - build balance query: %v", ErrBuildQuery, err)
	}

	var balance decimal.Decimal
	if err := executor.QueryRowContext(ctx, query, args...).Scan(&balance); err != nil {
		if isViolation(err, codeCheckViolation) {
			return decimal.Zero, ErrNegativeBalance
		}
		return decimal.Zero, fmt.Errorf("%w: AppendEntry - update balance: %v", ErrExecQuery, err)
	}

	return balance, nil
}

// GetLedger возвращает записи журнала пользователя в хронологическом порядке
func (r *Repository) GetLedger(ctx context.Context, userID int64) ([]*domain.QuotaLedgerEntry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"user_id",
		"hours_change",
		"transaction_type",
		"booking_id",
		"comment",
		"created_at",
	).
		From("quota_ledger").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at ASC, id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetLedger - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetLedger - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	entries := make([]*domain.QuotaLedgerEntry, 0)
	for rows.Next() {
		var (
			entry     domain.QuotaLedgerEntry
			createdAt sql.NullTime
		)
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.HoursChange,
			&entry.TransactionType,
			&entry.BookingID,
			&entry.Comment,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: GetLedger - scan row: %v", ErrScanRow, err)
		}
		entry.CreatedAt = createdAt.Time
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: GetLedger - rows error: %v", ErrScanRow, err)
	}

	return entries, nil
}

func isViolation(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
