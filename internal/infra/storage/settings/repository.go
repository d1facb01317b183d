package settings

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/dbmetrics"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/psqlbuilder"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

// settingsID единственная строка настроек
const settingsID = 1

// Repository репозиторий настроек календаря
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория настроек
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Get читает настройки вместе с днями отпуска
// Внутри транзакции строка настроек блокируется (FOR UPDATE)
func (r *Repository) Get(ctx context.Context) (*domain.CalendarSettings, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"working_days",
		"working_hours",
		"slot_duration_minutes",
		"buffer_minutes",
		"timezone",
		"block_full_day_on_external_event",
		"updated_at",
	).
		From("calendar_settings").
		Where(squirrel.Eq{"id": settingsID})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var (
		settings    domain.CalendarSettings
		workingDays []int64
		updatedAt   sql.NullTime
	)

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		pq.Array(&workingDays),
		&settings.WorkingHours,
		&settings.SlotDurationMinutes,
		&settings.BufferMinutes,
		&settings.Timezone,
		&settings.BlockFullDayOnExternalEvent,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan settings: %v", ErrScanRow, err)
	}

	settings.WorkingDays, err = domain.WeekdaySetFromInts(workingDays)
	if err != nil {
		return nil, fmt.Errorf("%w: Get - working days: %v", ErrScanRow, err)
	}
	settings.UpdatedAt = updatedAt.Time

	settings.VacationDays, err = r.getVacationDays(ctx, executor)
	if err != nil {
		return nil, err
	}

	return &settings, nil
}

// CreateIfMissing вставляет настройки, если строки ещё нет
// Конкурентные вызовы безопасны: проигравший ничего не вставляет
func (r *Repository) CreateIfMissing(ctx context.Context, settings *domain.CalendarSettings) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("calendar_settings").
		Columns(
			"id",
			"working_days",
			"working_hours",
			"slot_duration_minutes",
			"buffer_minutes",
			"timezone",
			"block_full_day_on_external_event",
		).
		Values(
			settingsID,
			pq.Array(settings.WorkingDays.Ints()),
			settings.WorkingHours,
			settings.SlotDurationMinutes,
			settings.BufferMinutes,
			settings.Timezone,
			settings.BlockFullDayOnExternalEvent,
		).
		Suffix("ON CONFLICT (id) DO NOTHING").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: CreateIfMissing - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: CreateIfMissing - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// Update перезаписывает строку настроек (без дней отпуска)
func (r *Repository) Update(ctx context.Context, settings *domain.CalendarSettings) (time.Time, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("calendar_settings").
		Set("working_days", pq.Array(settings.WorkingDays.Ints())).
		Set("working_hours", settings.WorkingHours).
		Set("slot_duration_minutes", settings.SlotDurationMinutes).
		Set("buffer_minutes", settings.BufferMinutes).
		Set("timezone", settings.Timezone).
		Set("block_full_day_on_external_event", settings.BlockFullDayOnExternalEvent).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": settingsID}).
		Suffix("RETURNING updated_at").
		ToSql()

	if err != nil {
		return time.Time{}, fmt.Errorf("%w: Update - build update query: %v", ErrBuildQuery, err)
	}

	var updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&updatedAt)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrSettingsNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: Update - execute update: %v", ErrExecQuery, err)
	}

	return updatedAt.Time, nil
}

// ReplaceVacationDays заменяет список дней отпуска целиком
// Вызывать внутри транзакции вместе с Update
func (r *Repository) ReplaceVacationDays(ctx context.Context, days []domain.VacationDay) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("vacation_days").ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceVacationDays - build delete query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ReplaceVacationDays - execute delete: %v", ErrExecQuery, err)
	}

	if len(days) == 0 {
		return nil
	}

	insertBuilder := psqlbuilder.Insert("vacation_days").Columns("vacation_date", "reason")
	for _, d := range days {
		insertBuilder = insertBuilder.Values(d.Date.String(), d.Reason)
	}

	query, args, err = insertBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: ReplaceVacationDays - build insert query: %v", ErrBuildQuery, err)
	}
	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: ReplaceVacationDays - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

func (r *Repository) getVacationDays(ctx context.Context, executor DBExecutor) ([]domain.VacationDay, error) {
	query, args, err := psqlbuilder.Select("vacation_date", "reason").
		From("vacation_days").
		OrderBy("vacation_date ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: getVacationDays - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: getVacationDays - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	days := make([]domain.VacationDay, 0)
	for rows.Next() {
		var (
			date   time.Time
			reason sql.NullString
		)
		if err := rows.Scan(&date, &reason); err != nil {
			return nil, fmt.Errorf("%w: getVacationDays - scan row: %v", ErrScanRow, err)
		}

		day := domain.VacationDay{Date: types.DateFromDB(date)}
		if reason.Valid {
			day.Reason = &reason.String
		}
		days = append(days, day)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: getVacationDays - rows error: %v", ErrScanRow, err)
	}

	return days, nil
}
