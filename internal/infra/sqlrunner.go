package infra

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// SQLExecutor is the query surface shared by repositories and stores. Every
// query must start with a "--sql <uuid>" marker line.
type SQLExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

// ErrSQLMarker is returned for queries without a valid marker line.
var ErrSQLMarker = errors.New("sql marker missing or invalid")

// DefaultSlowQuery is the duration above which a statement is logged at warn.
const DefaultSlowQuery = 500 * time.Millisecond

var markerRegexp = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// SQLRunner executes marked queries and logs each statement by its marker
// with its elapsed time.
type SQLRunner struct {
	db        SQLExecutor
	logger    zerolog.Logger
	slowQuery time.Duration
	now       func() time.Time
}

func NewSQLRunner(pool *pgxpool.Pool, logger zerolog.Logger) *SQLRunner {
	return newSQLRunner(pool, logger)
}

func newSQLRunner(db SQLExecutor, logger zerolog.Logger) *SQLRunner {
	return &SQLRunner{db: db, logger: logger, slowQuery: DefaultSlowQuery, now: time.Now}
}

func (r *SQLRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	marker, body, err := extractMarker(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	start := r.now()
	tag, err := r.db.Exec(ctx, body, args...)
	r.log(marker, "exec", start, err)
	return tag, err
}

func (r *SQLRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	marker, body, err := extractMarker(query)
	if err != nil {
		return errorRow{err: err}
	}
	return &loggingRow{row: r.db.QueryRow(ctx, body, args...), runner: r, marker: marker, start: r.now()}
}

func (r *SQLRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	marker, body, err := extractMarker(query)
	if err != nil {
		return nil, err
	}
	start := r.now()
	rows, err := r.db.Query(ctx, body, args...)
	if err != nil {
		r.log(marker, "query", start, err)
		return nil, err
	}
	return &loggingRows{Rows: rows, runner: r, marker: marker, start: start}, nil
}

func (r *SQLRunner) log(marker, op string, start time.Time, err error) {
	elapsed := r.now().Sub(start)
	var event *zerolog.Event
	switch {
	case err != nil && !IsNoRows(err):
		event = r.logger.Error().Err(err)
	case elapsed >= r.slowQuery:
		event = r.logger.Warn()
	default:
		event = r.logger.Debug()
	}
	event.Str("sql", marker).Str("op", op).Dur("elapsed", elapsed).Msg("sql")
}

// loggingRow defers logging until Scan, when pgx actually runs the query.
type loggingRow struct {
	row    pgx.Row
	runner *SQLRunner
	marker string
	start  time.Time
}

func (l *loggingRow) Scan(dest ...any) error {
	err := l.row.Scan(dest...)
	l.runner.log(l.marker, "query_row", l.start, err)
	return err
}

type loggingRows struct {
	pgx.Rows
	runner *SQLRunner
	marker string
	start  time.Time
	closed bool
}

func (l *loggingRows) Close() {
	l.Rows.Close()
	if l.closed {
		return
	}
	l.closed = true
	l.runner.log(l.marker, "query", l.start, l.Rows.Err())
}

type errorRow struct {
	err error
}

func (e errorRow) Scan(dest ...any) error {
	return e.err
}

func extractMarker(query string) (string, string, error) {
	trimmed := strings.TrimSpace(query)
	markerLine, body, _ := strings.Cut(trimmed, "\n")
	markerLine = strings.TrimSpace(markerLine)
	if !markerRegexp.MatchString(markerLine) {
		return "", "", fmt.Errorf("%w: %.40q", ErrSQLMarker, markerLine)
	}
	return strings.TrimPrefix(markerLine, "--sql "), strings.TrimSpace(body), nil
}

// IsNoRows reports whether err signals an empty single-row result.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

var _ SQLExecutor = (*SQLRunner)(nil)
