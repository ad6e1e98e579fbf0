package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/salon-scheduler/internal/catalog"
)

const (
	uniqueViolation      = "23505"
	activeSlotConstraint = "bookings_active_slot_idx"
)

var bookingColumns = []string{
	"id",
	"client_name",
	"client_phone",
	"service_snapshot",
	"staff_snapshot",
	"booking_date",
	"booking_time",
	"status",
	"notes",
	"calendar_event_id",
	"calendar_mirrored",
	"created_at",
	"updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type rowQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore persists bookings in Postgres. A partial unique index keeps
// at most one active booking per (staff, date, time). Change notification is
// in-process only.
type PostgresStore struct {
	db  rowQuerier
	hub *hub
	now func() time.Time
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return newPostgresStoreWithQuerier(pool)
}

func newPostgresStoreWithQuerier(db rowQuerier) *PostgresStore {
	if db == nil {
		panic("bookings: querier required")
	}
	return &PostgresStore{db: db, hub: newHub(), now: time.Now}
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Booking, error) {
	query := psql.Select(bookingColumns...).From("bookings")
	if filter.Status != "" {
		query = query.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Date != "" {
		day, err := time.Parse(time.DateOnly, filter.Date)
		if err != nil {
			return nil, fmt.Errorf("bookings: list: bad date filter %q: %w", filter.Date, err)
		}
		query = query.Where(sq.Eq{"booking_date": day})
	}
	if filter.StaffID != "" {
		query = query.Where(sq.Eq{"staff_id": filter.StaffID})
	}
	if filter.ActiveOnly {
		query = query.Where(sq.NotEq{"status": string(StatusCancelled)})
	}
	sqlStr, args, err := query.OrderBy("booking_date", "booking_time", "created_at").ToSql()
	if err != nil {
		return nil, fmt.Errorf("bookings: build list: %w", err)
	}

	rows, err := s.db.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("bookings: list: %w", err)
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: list rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Booking, error) {
	sqlStr, args, err := psql.Select(bookingColumns...).From("bookings").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("bookings: build get: %w", err)
	}
	b, err := scanBooking(s.db.QueryRow(ctx, sqlStr, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PostgresStore) Insert(ctx context.Context, b Booking) error {
	serviceJSON, err := json.Marshal(b.Service)
	if err != nil {
		return fmt.Errorf("bookings: encode service snapshot: %w", err)
	}
	staffJSON, err := json.Marshal(b.Staff)
	if err != nil {
		return fmt.Errorf("bookings: encode staff snapshot: %w", err)
	}
	day, err := time.Parse(time.DateOnly, b.Date)
	if err != nil {
		return fmt.Errorf("bookings: insert: bad date %q: %w", b.Date, err)
	}

	sqlStr, args, err := psql.Insert("bookings").
		Columns(
			"id", "client_name", "client_phone",
			"service_id", "service_snapshot", "staff_id", "staff_snapshot",
			"booking_date", "booking_time", "status", "notes",
			"calendar_event_id", "calendar_mirrored", "created_at", "updated_at",
		).
		Values(
			b.ID, b.ClientName, b.ClientPhone,
			b.Service.ID, serviceJSON, b.Staff.ID, staffJSON,
			day, b.Time, string(b.Status), b.Notes,
			b.CalendarEventID, b.CalendarMirrored, b.CreatedAt, b.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("bookings: build insert: %w", err)
	}

	if _, err := s.db.Exec(ctx, sqlStr, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == activeSlotConstraint {
			return ErrSlotTaken
		}
		return fmt.Errorf("bookings: insert: %w", err)
	}

	s.hub.publish(ChangeEvent{Type: ChangeCreated, BookingID: b.ID, Booking: b, At: s.now()})
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, id string, patch Patch) (*Booking, error) {
	now := s.now()
	query := psql.Update("bookings").Set("updated_at", now)
	if patch.Status != nil {
		query = query.Set("status", string(*patch.Status))
	}
	if patch.Notes != nil {
		query = query.Set("notes", *patch.Notes)
	}
	if patch.CalendarEventID != nil {
		query = query.Set("calendar_event_id", *patch.CalendarEventID)
	}
	if patch.CalendarMirrored != nil {
		query = query.Set("calendar_mirrored", *patch.CalendarMirrored)
	}
	sqlStr, args, err := query.
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("bookings: build update: %w", err)
	}

	b, err := scanBooking(s.db.QueryRow(ctx, sqlStr, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}

	s.hub.publish(ChangeEvent{Type: ChangeUpdated, BookingID: id, Booking: b, At: now})
	return &b, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	sqlStr, args, err := psql.Delete("bookings").
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING " + columnList()).
		ToSql()
	if err != nil {
		return fmt.Errorf("bookings: build delete: %w", err)
	}
	b, err := scanBooking(s.db.QueryRow(ctx, sqlStr, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrBookingNotFound
	}
	if err != nil {
		return err
	}

	s.hub.publish(ChangeEvent{Type: ChangeDeleted, BookingID: id, Booking: b, At: s.now()})
	return nil
}

// Subscribe only sees this process's writes; there is no LISTEN/NOTIFY.
func (s *PostgresStore) Subscribe(ctx context.Context) (<-chan ChangeEvent, error) {
	return s.hub.subscribe(ctx), nil
}

func (s *PostgresStore) SubscribeLocal(ctx context.Context) (<-chan ChangeEvent, error) {
	return s.hub.subscribe(ctx), nil
}

func columnList() string {
	return strings.Join(bookingColumns, ", ")
}

func scanBooking(row pgx.Row) (Booking, error) {
	var (
		b           Booking
		serviceJSON []byte
		staffJSON   []byte
		day         time.Time
		status      string
	)
	err := row.Scan(
		&b.ID,
		&b.ClientName,
		&b.ClientPhone,
		&serviceJSON,
		&staffJSON,
		&day,
		&b.Time,
		&status,
		&b.Notes,
		&b.CalendarEventID,
		&b.CalendarMirrored,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Booking{}, err
		}
		return Booking{}, fmt.Errorf("bookings: scan: %w", err)
	}

	var svc catalog.Service
	if err := json.Unmarshal(serviceJSON, &svc); err != nil {
		return Booking{}, fmt.Errorf("bookings: decode service snapshot: %w", err)
	}
	var staff catalog.Staff
	if err := json.Unmarshal(staffJSON, &staff); err != nil {
		return Booking{}, fmt.Errorf("bookings: decode staff snapshot: %w", err)
	}
	b.Service = svc
	b.Staff = staff
	b.Date = day.Format(time.DateOnly)
	b.Status = Status(status)
	return b, nil
}

var _ Store = (*PostgresStore)(nil)
