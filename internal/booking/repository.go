package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrOverlap signals that the storage-level exclusion constraint on
// (resource_id, time_range) rejected an insert. That constraint, not any
// application-level pre-check, is the non-overlap invariant's source of
// truth.
var ErrOverlap = errors.New("booking overlaps an existing reservation")

// Repository is the storage contract the booking engine needs. It never
// returns Conflict: that is a value the writer builds after catching
// ErrOverlap, not a storage-layer concern.
type Repository interface {
	// CreateSingle inserts a non-recurring booking, relying on the
	// database's exclusion constraint on (resource_id, time_range) to
	// reject overlaps (ErrOverlap).
	CreateSingle(ctx context.Context, b *Booking) error

	GetByID(ctx context.Context, id string) (*Booking, error)

	// NonRecurringOverlapping returns single bookings on resourceID whose
	// stored range intersects [windowStart, windowEnd).
	NonRecurringOverlapping(ctx context.Context, resourceID string, windowStart, windowEnd time.Time) ([]*Booking, error)

	// RecurringStartingBefore returns recurring bookings (each with its
	// rule and exception list already attached) on resourceID whose
	// template start is before windowEnd.
	RecurringStartingBefore(ctx context.Context, resourceID string, windowEnd time.Time) ([]*Booking, error)

	// WithResourceLock runs fn with an exclusive row lock held on
	// resourceID for the duration of the call, inside a single
	// transaction fn can use to re-check the busy set and insert the
	// recurring booking atomically, so two concurrent recurring creates
	// on the same resource can't both pass the check and then both write.
	WithResourceLock(ctx context.Context, resourceID string, fn func(tx Tx) error) error
}

// Tx is the subset of storage operations available inside the
// resource-locked transaction used to create a recurring booking.
type Tx interface {
	NonRecurringOverlapping(ctx context.Context, resourceID string, windowStart, windowEnd time.Time) ([]*Booking, error)
	RecurringStartingBefore(ctx context.Context, resourceID string, windowEnd time.Time) ([]*Booking, error)
	InsertRecurring(ctx context.Context, b *Booking) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx so the select
// helpers below work identically outside and inside a transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *pgxRepository) CreateSingle(ctx context.Context, b *Booking) error {
	if err := validateTimeRange(b.Start, b.End); err != nil {
		return err
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns("resource_id", "start_time", "end_time", "metadata").
		Values(b.ResourceID, b.Start, b.End, rawMetadata(b.Metadata)).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt); err != nil {
		if isExclusionViolation(err) {
			return ErrOverlap
		}
		return fmt.Errorf("create booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	return getByID(ctx, r.pool, id)
}

func getByID(ctx context.Context, q querier, id string) (*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"b.id", "b.resource_id", "b.start_time", "b.end_time", "b.metadata", "b.created_at",
		"rr.rrule", "rr.is_infinite",
	).
		From("public.bookings b").
		LeftJoin("public.recurrence_rules rr ON rr.booking_id = b.id").
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	var b Booking
	var meta []byte
	var rruleText *string
	var infinite *bool
	err = q.QueryRow(ctx, query, args...).Scan(&b.ID, &b.ResourceID, &b.Start, &b.End, &meta, &b.CreatedAt, &rruleText, &infinite)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	b.Metadata = meta
	if rruleText != nil {
		b.IsRecurring = true
		b.Rule = &RecurrenceRule{BookingID: b.ID, RRule: *rruleText, IsInfinite: infinite != nil && *infinite}
		if b.Exceptions, err = exceptionsFor(ctx, q, b.ID); err != nil {
			return nil, err
		}
	}
	return &b, nil
}

func (r *pgxRepository) NonRecurringOverlapping(ctx context.Context, resourceID string, windowStart, windowEnd time.Time) ([]*Booking, error) {
	return nonRecurringOverlapping(ctx, r.pool, resourceID, windowStart, windowEnd)
}

func nonRecurringOverlapping(ctx context.Context, q querier, resourceID string, windowStart, windowEnd time.Time) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("b.id", "b.resource_id", "b.start_time", "b.end_time", "b.metadata", "b.created_at").
		From("public.bookings b").
		LeftJoin("public.recurrence_rules rr ON rr.booking_id = b.id").
		Where(squirrel.Eq{"b.resource_id": resourceID}).
		Where("rr.booking_id IS NULL").
		Where(squirrel.Lt{"b.start_time": windowEnd}).
		Where(squirrel.Gt{"b.end_time": windowStart}).
		OrderBy("b.start_time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build overlapping bookings query failed: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query overlapping bookings failed: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		var b Booking
		var meta []byte
		if err := rows.Scan(&b.ID, &b.ResourceID, &b.Start, &b.End, &meta, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan booking failed: %w", err)
		}
		b.Metadata = meta
		out = append(out, &b)
	}
	return out, rows.Err()
}

func (r *pgxRepository) RecurringStartingBefore(ctx context.Context, resourceID string, windowEnd time.Time) ([]*Booking, error) {
	return recurringStartingBefore(ctx, r.pool, resourceID, windowEnd)
}

func recurringStartingBefore(ctx context.Context, q querier, resourceID string, windowEnd time.Time) ([]*Booking, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select(
		"b.id", "b.resource_id", "b.start_time", "b.end_time", "b.metadata", "b.created_at",
		"rr.rrule", "rr.is_infinite",
	).
		From("public.bookings b").
		Join("public.recurrence_rules rr ON rr.booking_id = b.id").
		Where(squirrel.Eq{"b.resource_id": resourceID}).
		Where(squirrel.Lt{"b.start_time": windowEnd}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build recurring bookings query failed: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recurring bookings failed: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		var b Booking
		var meta []byte
		var rule RecurrenceRule
		if err := rows.Scan(&b.ID, &b.ResourceID, &b.Start, &b.End, &meta, &b.CreatedAt, &rule.RRule, &rule.IsInfinite); err != nil {
			return nil, fmt.Errorf("scan recurring booking failed: %w", err)
		}
		b.Metadata = meta
		b.IsRecurring = true
		rule.BookingID = b.ID
		b.Rule = &rule
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, b := range out {
		exceptions, err := exceptionsFor(ctx, q, b.ID)
		if err != nil {
			return nil, err
		}
		b.Exceptions = exceptions
	}

	return out, nil
}

func exceptionsFor(ctx context.Context, q querier, bookingID string) ([]Exception, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("id", "booking_id", "except_date", "replace_start", "replace_end").
		From("public.exceptions").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("except_date ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build exceptions query failed: %w", err)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query exceptions failed: %w", err)
	}
	defer rows.Close()

	var out []Exception
	for rows.Next() {
		var e Exception
		if err := rows.Scan(&e.ID, &e.BookingID, &e.ExceptDate, &e.ReplaceStart, &e.ReplaceEnd); err != nil {
			return nil, fmt.Errorf("scan exception failed: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *pgxRepository) WithResourceLock(ctx context.Context, resourceID string, fn func(tx Tx) error) error {
	pgxTx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction failed: %w", err)
	}
	defer func() { _ = pgxTx.Rollback(ctx) }()

	var exists bool
	err = pgxTx.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM public.resources WHERE id = $1 FOR UPDATE)", resourceID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("lock resource failed: %w", err)
	}
	if !exists {
		return ErrResourceNotFound
	}

	if err := fn(&pgxTxWrapper{tx: pgxTx}); err != nil {
		return err
	}

	if err := pgxTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit recurring booking failed: %w", err)
	}
	return nil
}

type pgxTxWrapper struct {
	tx pgx.Tx
}

func (w *pgxTxWrapper) NonRecurringOverlapping(ctx context.Context, resourceID string, windowStart, windowEnd time.Time) ([]*Booking, error) {
	return nonRecurringOverlapping(ctx, w.tx, resourceID, windowStart, windowEnd)
}

func (w *pgxTxWrapper) RecurringStartingBefore(ctx context.Context, resourceID string, windowEnd time.Time) ([]*Booking, error) {
	return recurringStartingBefore(ctx, w.tx, resourceID, windowEnd)
}

func (w *pgxTxWrapper) InsertRecurring(ctx context.Context, b *Booking) error {
	if err := validateTimeRange(b.Start, b.End); err != nil {
		return err
	}
	if b.Rule == nil {
		return fmt.Errorf("insert recurring booking: missing recurrence rule")
	}

	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns("resource_id", "start_time", "end_time", "metadata").
		Values(b.ResourceID, b.Start, b.End, rawMetadata(b.Metadata)).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert recurring booking query failed: %w", err)
	}

	if err := w.tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt); err != nil {
		if isExclusionViolation(err) {
			return ErrOverlap
		}
		return fmt.Errorf("insert recurring booking failed: %w", err)
	}
	b.Rule.BookingID = b.ID

	ruleQuery, ruleArgs, err := psql.Insert("public.recurrence_rules").
		Columns("booking_id", "rrule", "is_infinite").
		Values(b.Rule.BookingID, b.Rule.RRule, b.Rule.IsInfinite).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert recurrence rule query failed: %w", err)
	}
	if _, err := w.tx.Exec(ctx, ruleQuery, ruleArgs...); err != nil {
		return fmt.Errorf("insert recurrence rule failed: %w", err)
	}

	for i := range b.Exceptions {
		e := &b.Exceptions[i]
		e.BookingID = b.Rule.BookingID
		exQuery, exArgs, err := psql.Insert("public.exceptions").
			Columns("booking_id", "except_date", "replace_start", "replace_end").
			Values(e.BookingID, e.ExceptDate, e.ReplaceStart, e.ReplaceEnd).
			Suffix("RETURNING id").
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert exception query failed: %w", err)
		}
		if err := w.tx.QueryRow(ctx, exQuery, exArgs...).Scan(&e.ID); err != nil {
			return fmt.Errorf("insert exception failed: %w", err)
		}
	}

	return nil
}

func isExclusionViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation
}

// rawMetadata normalizes a nil metadata blob to a JSON null so the
// jsonb column never receives an empty byte slice.
func rawMetadata(m []byte) []byte {
	if len(m) == 0 {
		return []byte("null")
	}
	return m
}
