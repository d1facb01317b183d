package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/dbmetrics"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/psqlbuilder"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

const (
	codeUniqueViolation = "23505"

	constraintConfirmedSlot  = "bookings_confirmed_slot_uidx"
	constraintIdempotencyKey = "bookings_idempotency_key_uidx"
)

var bookingColumns = []string{
	"id",
	"user_id",
	"lesson_date",
	"start_time",
	"duration_minutes",
	"lesson_type",
	"status",
	"hours_consumed",
	"external_event_id",
	"notes",
	"cancellation_reason",
	"cancelled_at",
	"calendar_sync_pending",
	"idempotency_key",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает новое бронирование
// Если в контексте передана активная транзакция (через context.Value), использует её.
//
// Уникальный индекс по (lesson_date, start_time) для подтверждённых бронирований
// превращается в ErrSlotNotAvailable, индекс по idempotency_key в ErrDuplicateIdempotencyKey.
func (r *Repository) Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"user_id",
			"lesson_date",
			"start_time",
			"duration_minutes",
			"lesson_type",
			"status",
			"hours_consumed",
			"external_event_id",
			"notes",
			"calendar_sync_pending",
			"idempotency_key",
		).
		Values(
			booking.UserID,
			booking.LessonDate.String(),
			booking.StartTime,
			booking.DurationMinutes,
			booking.LessonType,
			booking.Status,
			booking.HoursConsumed,
			booking.ExternalEventID,
			booking.Notes,
			booking.CalendarSyncPending,
			booking.IdempotencyKey,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&booking.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == codeUniqueViolation {
			switch pqErr.Constraint {
			case constraintConfirmedSlot:
				return nil, ErrSlotNotAvailable
			case constraintIdempotencyKey:
				return nil, ErrDuplicateIdempotencyKey
			}
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return booking, nil
}

// GetByID получает бронирование по ID
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetByIdempotencyKey получает бронирование по клиентскому ключу запроса
func (r *Repository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"idempotency_key": key}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetByIdempotencyKey - build select query: %v", ErrBuildQuery, err)
	}

	booking, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByIdempotencyKey - scan booking: %v", ErrScanRow, err)
	}

	return booking, nil
}

// GetByUserID получает список бронирований пользователя
// Опционально фильтрует по статусу
func (r *Repository) GetByUserID(ctx context.Context, userID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("lesson_date DESC, start_time DESC")

	// Фильтрация по статусу, если указан
	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetByUserID - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetWithFilter получает бронирования с гибкой фильтрацией
// Поддерживает фильтрацию по:
// - Пользователю (UserID) - опционально
// - Периоду (StartDate, EndDate) - опционально, включительно
// - Статусу (Status) - опционально
//
// Примеры использования:
//
// 1. Все бронирования на конкретную дату:
//    date := civil.Date{Year: 2025, Month: 11, Day: 20}
//    filter := domain.BookingsFilter{StartDate: &date, EndDate: &date}
//
// 2. Только подтверждённые бронирования за месяц:
//    status := domain.StatusConfirmed
//    filter := domain.BookingsFilter{StartDate: &from, EndDate: &to, Status: &status}
func (r *Repository) GetWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).From("bookings")

	if filter.UserID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"user_id": *filter.UserID})
	}

	// Фильтрация по периоду
	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"lesson_date": filter.StartDate.String()})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"lesson_date": filter.EndDate.String()})
	}

	// Фильтрация по статусу
	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	}

	query, args, err := selectBuilder.OrderBy("lesson_date ASC, start_time ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetConfirmedForPeriod получает подтверждённые бронирования с from по to включительно
// Если используется транзакция, строки блокируются (FOR UPDATE) для повторной проверки слота
func (r *Repository) GetConfirmedForPeriod(ctx context.Context, from, to civil.Date) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"status": domain.StatusConfirmed}).
		Where(squirrel.GtOrEq{"lesson_date": from.String()}).
		Where(squirrel.LtOrEq{"lesson_date": to.String()}).
		OrderBy("lesson_date ASC, start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetConfirmedForPeriod - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: GetConfirmedForPeriod - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// Cancel переводит бронирование в статус cancelled
// notes перезаписывает заметки целиком (туда добавляется строка аудита)
func (r *Repository) Cancel(ctx context.Context, id int64, reason string, notes *string, syncPending bool) (time.Time, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("status", domain.StatusCancelled).
		Set("cancellation_reason", reason).
		Set("cancelled_at", squirrel.Expr("NOW()")).
		Set("notes", notes).
		Set("calendar_sync_pending", syncPending).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.NotEq{"status": domain.StatusCancelled}).
		Suffix("RETURNING cancelled_at").
		ToSql()

	if err != nil {
		return time.Time{}, fmt.Errorf("%w: Cancel - build update query: %v", ErrBuildQuery, err)
	}

	var cancelledAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&cancelledAt)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrCannotCancel
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: Cancel - execute update: %v", ErrExecQuery, err)
	}

	return cancelledAt.Time, nil
}

// SetExternalEvent сохраняет ID события календаря и снимает флаг синхронизации
func (r *Repository) SetExternalEvent(ctx context.Context, id int64, eventID string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("external_event_id", eventID).
		Set("calendar_sync_pending", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetExternalEvent - build update query: %v", ErrBuildQuery, err)
	}

	return r.execSingle(ctx, executor, "SetExternalEvent", query, args)
}

// MarkCalendarSynced снимает флаг синхронизации с календарём
func (r *Repository) MarkCalendarSynced(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("calendar_sync_pending", false).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: MarkCalendarSynced - build update query: %v", ErrBuildQuery, err)
	}

	return r.execSingle(ctx, executor, "MarkCalendarSynced", query, args)
}

func (r *Repository) execSingle(ctx context.Context, executor DBExecutor, op, query string, args []interface{}) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking сканирует одну строку в бронирование
func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		booking        domain.Booking
		lessonDate     time.Time
		idempotencyKey sql.NullString
		createdAt      sql.NullTime
		updatedAt      sql.NullTime
	)

	err := row.Scan(
		&booking.ID,
		&booking.UserID,
		&lessonDate,
		&booking.StartTime,
		&booking.DurationMinutes,
		&booking.LessonType,
		&booking.Status,
		&booking.HoursConsumed,
		&booking.ExternalEventID,
		&booking.Notes,
		&booking.CancellationReason,
		&booking.CancelledAt,
		&booking.CalendarSyncPending,
		&idempotencyKey,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.LessonDate = types.DateFromDB(lessonDate)
	if idempotencyKey.Valid {
		booking.IdempotencyKey = &idempotencyKey.String
	}
	booking.CreatedAt = createdAt.Time
	booking.UpdatedAt = updatedAt.Time

	return &booking, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func (r *Repository) scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}
