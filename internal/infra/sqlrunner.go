package infra

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// DefaultSlowQuery is the duration above which a query is logged at warn level.
const DefaultSlowQuery = 500 * time.Millisecond

// ErrSQLMarker is returned for queries that do not start with a valid
// "--sql <uuid>" line. Such queries never reach the database.
var ErrSQLMarker = errors.New("sql marker missing or invalid")

// SQLExecutor defines the contract required by handlers for executing SQL queries.
type SQLExecutor interface {
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

var markerRegexp = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// SQLRunner executes marker-tagged queries. Every call is logged under its
// marker through the logger carried by ctx (see zerolog.Ctx), so request ids
// and job ids attached upstream show up next to the query; Logger is used
// when ctx carries none.
type SQLRunner struct {
	Pool      SQLExecutor
	Logger    zerolog.Logger
	SlowQuery time.Duration
}

func NewSQLRunner(pool *pgxpool.Pool, logger zerolog.Logger) *SQLRunner {
	return &SQLRunner{Pool: pool, Logger: logger, SlowQuery: DefaultSlowQuery}
}

func (r *SQLRunner) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		return pgconn.CommandTag{}, err
	}
	log := r.log(ctx, marker)
	start := time.Now()
	tag, err := r.Pool.Exec(ctx, trimmed, args...)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Dur("duration", elapsed).Msg("sql exec failed")
		return tag, err
	}
	r.event(&log, elapsed).Int64("rows", tag.RowsAffected()).Msg("sql exec")
	return tag, nil
}

func (r *SQLRunner) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		return errorRow{err: err}
	}
	return loggingRow{
		row:    r.Pool.QueryRow(ctx, trimmed, args...),
		runner: r,
		log:    r.log(ctx, marker),
		start:  time.Now(),
	}
}

func (r *SQLRunner) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	marker, trimmed, err := extractMarker(query)
	if err != nil {
		return nil, err
	}
	log := r.log(ctx, marker)
	start := time.Now()
	rows, err := r.Pool.Query(ctx, trimmed, args...)
	if err != nil {
		log.Error().Err(err).Dur("duration", time.Since(start)).Msg("sql query failed")
		return nil, err
	}
	return &loggingRows{Rows: rows, runner: r, log: log, start: start}, nil
}

func (r *SQLRunner) log(ctx context.Context, marker string) zerolog.Logger {
	base := r.Logger
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		base = *l
	}
	return base.With().Str("sql", marker).Logger()
}

// event picks the level for a successful call from its duration.
func (r *SQLRunner) event(log *zerolog.Logger, elapsed time.Duration) *zerolog.Event {
	if r.SlowQuery > 0 && elapsed >= r.SlowQuery {
		return log.Warn().Bool("slow", true).Dur("duration", elapsed)
	}
	return log.Debug().Dur("duration", elapsed)
}

type loggingRow struct {
	row    pgx.Row
	runner *SQLRunner
	log    zerolog.Logger
	start  time.Time
}

func (l loggingRow) Scan(dest ...any) error {
	err := l.row.Scan(dest...)
	elapsed := time.Since(l.start)
	switch {
	case err == nil:
		l.runner.event(&l.log, elapsed).Msg("sql query_row")
	case IsNoRows(err):
		l.log.Debug().Dur("duration", elapsed).Msg("sql query_row: no rows")
	default:
		l.log.Error().Err(err).Dur("duration", elapsed).Msg("sql scan failed")
	}
	return err
}

type loggingRows struct {
	pgx.Rows
	runner *SQLRunner
	log    zerolog.Logger
	start  time.Time
	closed bool
}

func (l *loggingRows) Close() {
	l.Rows.Close()
	if l.closed {
		return
	}
	l.closed = true
	if err := l.Rows.Err(); err != nil {
		l.log.Error().Err(err).Dur("duration", time.Since(l.start)).Msg("sql query failed")
		return
	}
	l.runner.event(&l.log, time.Since(l.start)).Int64("rows", l.Rows.CommandTag().RowsAffected()).Msg("sql query")
}

type errorRow struct {
	err error
}

func (e errorRow) Scan(dest ...any) error {
	return e.err
}

func extractMarker(query string) (string, string, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return "", "", ErrSQLMarker
	}
	lines := strings.Split(trimmed, "\n")
	markerLine := strings.TrimSpace(lines[0])
	if !markerRegexp.MatchString(markerLine) {
		return "", "", ErrSQLMarker
	}
	return strings.TrimPrefix(markerLine, "--sql "), strings.Join(lines[1:], "\n"), nil
}

// IsNoRows reports whether err signals an empty result set.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

var _ SQLExecutor = (*SQLRunner)(nil)
