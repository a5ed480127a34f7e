package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	errs "github.com/edgard/termbot/internal/errors"
)

const (
	// ActiveWindow is the trailing period that counts a user as active.
	ActiveWindow = 30 * 24 * time.Hour

	defaultHistoryLimit = 10
	defaultRecentLimit  = 50
	maxRecentLimit      = 100
	defaultUsersLimit   = 20
	maxUsersLimit       = 100
	botPopularLimit     = 10
	userPopularLimit    = 5
)

// Store is the data-access contract for users and their search history.
// Every method is one unit of work; not-found is reported through the zero
// result (nil, false or empty), never through an error.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// RunSQLMaintenance normalizes legacy timestamps and performs VACUUM.
	RunSQLMaintenance(ctx context.Context) error

	// NormalizeTimestamps rewrites parseable legacy timestamps in the
	// canonical layout and returns how many values changed.
	NormalizeTimestamps(ctx context.Context) (int64, error)

	// GetOrCreateUser returns the user with externalID, creating an
	// unregistered one if absent. An existing user gets last_activity
	// refreshed and a changed non-empty username overwritten.
	GetOrCreateUser(ctx context.Context, externalID int64, ident Identity) (*User, error)

	// GetUserProfile returns the user or nil.
	GetUserProfile(ctx context.Context, externalID int64) (*User, error)

	// GetUserByID returns the user by surrogate key or nil.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// UpdateUserProfile writes the fields set in patch and marks the user
	// registered. Returns false for an empty patch or an unknown user.
	UpdateUserProfile(ctx context.Context, externalID int64, patch ProfilePatch) (bool, error)

	// TouchLastActivity refreshes last_activity. Returns false for an unknown user.
	TouchLastActivity(ctx context.Context, externalID int64) (bool, error)

	// AddSearchHistory records a search and bumps the user's search_count.
	// Returns false for an unknown user.
	AddSearchHistory(ctx context.Context, externalID int64, rec SearchRecord) (bool, error)

	// GetSearchHistory returns up to limit entries, most recent first.
	GetSearchHistory(ctx context.Context, externalID int64, limit int) ([]SearchHistoryEntry, error)

	// GetRecentSearches returns searches by all users within the last hours.
	GetRecentSearches(ctx context.Context, hours int, limit int) ([]RecentSearch, error)

	// ListUsers returns up to limit users, most recently active first.
	ListUsers(ctx context.Context, limit int) ([]User, error)

	// GetBotStats computes the global usage figures.
	GetBotStats(ctx context.Context) (*BotStats, error)

	// GetUserStats computes one user's figures or returns nil for an unknown user.
	GetUserStats(ctx context.Context, externalID int64) (*UserStats, error)

	// DeleteUserData removes the user and all their history atomically.
	DeleteUserData(ctx context.Context, externalID int64) (bool, error)

	// CleanupOldData deletes history rows older than retentionDays and
	// returns how many were removed. search_count is not adjusted.
	CleanupOldData(ctx context.Context, retentionDays int) (int64, error)
}

// Option configures a Store.
type Option func(*sqlxStore)

// WithClock replaces the time source used for written timestamps and
// window cutoffs.
func WithClock(now func() time.Time) Option {
	return func(s *sqlxStore) {
		if now != nil {
			s.now = now
		}
	}
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore returns a Store backed by db.
func NewStore(db *sqlx.DB, logger *slog.Logger, opts ...Option) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const userColumns = `id, external_id, username, first_name, last_name, email, age,
	is_registered, registration_date, last_activity, search_count`

func (s *sqlxStore) timestamp() string {
	return FormatTimestamp(s.now())
}

// fail logs a storage fault and wraps it as a DatabaseError. Context
// cancellation is returned as is.
func (s *sqlxStore) fail(ctx context.Context, msg string, err error, attrs ...any) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		s.logger.WarnContext(ctx, "Context timeout or cancellation: "+msg, append(attrs, "error", err)...)
		return err
	}
	s.logger.ErrorContext(ctx, "Failed to "+msg, append(attrs, "error", err)...)
	return errs.NewDatabaseError("failed to "+msg, err)
}

// inTx runs fn inside a transaction. fn's error aborts and rolls back.
func (s *sqlxStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
			}
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil
	return nil
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// RunSQLMaintenance normalizes timestamps, then executes VACUUM. VACUUM
// cannot run inside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if _, err := s.NormalizeTimestamps(ctx); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")
	if _, err := s.db.ExecContext(ctx, "VACUUM;"); err != nil {
		return s.fail(ctx, "execute VACUUM", err)
	}
	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	return nil
}

// timestampColumns lists every TEXT timestamp column as table, column.
var timestampColumns = [][2]string{
	{"users", "registration_date"},
	{"users", "last_activity"},
	{"search_history", "timestamp"},
}

type storedTimestamp struct {
	ID    int64  `db:"id"`
	Value string `db:"value"`
}

func (s *sqlxStore) NormalizeTimestamps(ctx context.Context) (int64, error) {
	var changed int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, tc := range timestampColumns {
			table, column := tc[0], tc[1]

			var rows []storedTimestamp
			query := fmt.Sprintf(`SELECT id, %[2]s AS value FROM %[1]s
				WHERE length(%[2]s) != %[3]d OR substr(%[2]s, 11, 1) != ' '`, table, column, len(TimestampLayout))
			if err := tx.SelectContext(ctx, &rows, query); err != nil {
				return err
			}

			update := fmt.Sprintf(`UPDATE %s SET %s = ? WHERE id = ?`, table, column)
			for _, row := range rows {
				t, err := ParseTimestamp(row.Value)
				if err != nil {
					continue
				}
				if _, err := tx.ExecContext(ctx, update, FormatTimestamp(t), row.ID); err != nil {
					return err
				}
				changed++
			}
		}
		return nil
	})
	if err != nil {
		return 0, s.fail(ctx, "normalize timestamps", err)
	}
	if changed > 0 {
		s.logger.InfoContext(ctx, "Normalized legacy timestamps", "rows", changed)
	}
	return changed, nil
}

func (s *sqlxStore) GetOrCreateUser(ctx context.Context, externalID int64, ident Identity) (*User, error) {
	if externalID == 0 {
		return nil, errs.NewValidationError("external_id cannot be zero", nil)
	}

	var user User
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		now := s.timestamp()
		err := tx.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)
		switch {
		case err == nil:
			username := user.Username
			if ident.Username != "" && ident.Username != user.Username.String {
				username = sql.NullString{String: ident.Username, Valid: true}
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE users SET last_activity = ?, username = ? WHERE id = ?`,
				now, username, user.ID); err != nil {
				return err
			}
			user.Username = username
			user.LastActivity.setRaw(now)
			return nil

		case errors.Is(err, sql.ErrNoRows):
			res, err := tx.ExecContext(ctx, `
				INSERT INTO users (external_id, username, first_name, last_name,
					is_registered, registration_date, last_activity, search_count)
				VALUES (?, ?, ?, ?, FALSE, ?, ?, 0)`,
				externalID, nullString(ident.Username), nullString(ident.FirstName), nullString(ident.LastName),
				now, now)
			if err != nil {
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			s.logger.InfoContext(ctx, "Created user", "external_id", externalID, "id", id)
			return tx.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)

		default:
			return err
		}
	})

	if isUniqueViolation(err) {
		// Lost the insert race; the other writer's row wins.
		s.logger.DebugContext(ctx, "Concurrent user creation, re-reading", "external_id", externalID)
		return s.GetUserProfile(ctx, externalID)
	}
	if err != nil {
		return nil, s.fail(ctx, "get or create user", err, "external_id", externalID)
	}
	return &user, nil
}

func (s *sqlxStore) GetUserProfile(ctx context.Context, externalID int64) (*User, error) {
	return s.getUser(ctx, "external_id", externalID)
}

func (s *sqlxStore) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return s.getUser(ctx, "id", id)
}

// getUser loads one user by a fixed key column.
func (s *sqlxStore) getUser(ctx context.Context, column string, key int64) (*User, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var user User
	err := s.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, key)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		s.logger.DebugContext(ctx, "No user found", column, key)
		return nil, nil
	case err != nil:
		return nil, s.fail(ctx, "get user", err, column, key)
	}
	return &user, nil
}

func (s *sqlxStore) UpdateUserProfile(ctx context.Context, externalID int64, patch ProfilePatch) (bool, error) {
	if patch.IsEmpty() {
		s.logger.DebugContext(ctx, "Empty profile patch, nothing to update", "external_id", externalID)
		return false, nil
	}

	query, args := patch.updateQuery()
	args = append(args, s.timestamp(), externalID)

	var updated bool
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		updated = n > 0
		return nil
	})
	if err != nil {
		return false, s.fail(ctx, "update user profile", err, "external_id", externalID)
	}

	s.logger.DebugContext(ctx, "Profile update finished", "external_id", externalID, "updated", updated)
	return updated, nil
}

func (s *sqlxStore) TouchLastActivity(ctx context.Context, externalID int64) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_activity = ? WHERE external_id = ?`, s.timestamp(), externalID)
	if err != nil {
		return false, s.fail(ctx, "update last activity", err, "external_id", externalID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, s.fail(ctx, "read affected rows", err, "external_id", externalID)
	}
	return n > 0, nil
}

func (s *sqlxStore) AddSearchHistory(ctx context.Context, externalID int64, rec SearchRecord) (bool, error) {
	if strings.TrimSpace(rec.Term) == "" {
		return false, errs.NewValidationError("search term cannot be empty", nil)
	}

	var added bool
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var userID int64
		err := tx.GetContext(ctx, &userID, `SELECT id FROM users WHERE external_id = ?`, externalID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		now := s.timestamp()
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO search_history (user_id, search_term, result_title, result_url, timestamp, success)
			VALUES (?, ?, ?, ?, ?, ?)`,
			userID, rec.Term, nullString(rec.ResultTitle), nullString(rec.ResultURL), now, rec.Success); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET search_count = search_count + 1, last_activity = ? WHERE id = ?`,
			now, userID); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, s.fail(ctx, "add search history", err, "external_id", externalID)
	}
	if !added {
		s.logger.DebugContext(ctx, "Search not recorded, user unknown", "external_id", externalID)
	}
	return added, nil
}

func (s *sqlxStore) GetSearchHistory(ctx context.Context, externalID int64, limit int) ([]SearchHistoryEntry, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	entries := []SearchHistoryEntry{}
	err := s.db.SelectContext(ctx, &entries, `
		SELECT sh.id, sh.user_id, sh.search_term, sh.result_title, sh.result_url, sh.timestamp, sh.success
		FROM search_history sh
		JOIN users u ON u.id = sh.user_id
		WHERE u.external_id = ?
		ORDER BY sh.timestamp DESC, sh.id DESC
		LIMIT ?`, externalID, limit)
	if err != nil {
		return nil, s.fail(ctx, "get search history", err, "external_id", externalID)
	}
	return entries, nil
}

func (s *sqlxStore) GetRecentSearches(ctx context.Context, hours int, limit int) ([]RecentSearch, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if hours <= 0 {
		hours = 24
	}
	limit = clampLimit(limit, defaultRecentLimit, maxRecentLimit)
	cutoff := FormatTimestamp(s.now().Add(-time.Duration(hours) * time.Hour))

	searches := []RecentSearch{}
	err := s.db.SelectContext(ctx, &searches, `
		SELECT sh.id, sh.user_id, sh.search_term, sh.result_title, sh.result_url, sh.timestamp, sh.success,
			u.external_id, u.username, u.first_name
		FROM search_history sh
		JOIN users u ON u.id = sh.user_id
		WHERE sh.timestamp > ?
		ORDER BY sh.timestamp DESC, sh.id DESC
		LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, s.fail(ctx, "get recent searches", err, "hours", hours)
	}
	return searches, nil
}

func (s *sqlxStore) ListUsers(ctx context.Context, limit int) ([]User, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	limit = clampLimit(limit, defaultUsersLimit, maxUsersLimit)

	users := []User{}
	err := s.db.SelectContext(ctx, &users,
		`SELECT `+userColumns+` FROM users ORDER BY last_activity DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, s.fail(ctx, "list users", err, "limit", limit)
	}
	return users, nil
}

func (s *sqlxStore) GetBotStats(ctx context.Context) (*BotStats, error) {
	stats := &BotStats{PopularTerms: []TermCount{}}
	cutoff := FormatTimestamp(s.now().Add(-ActiveWindow))

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		counts := []struct {
			dest  *int
			query string
			args  []any
		}{
			{&stats.TotalUsers, `SELECT COUNT(*) FROM users`, nil},
			{&stats.ActiveUsers, `SELECT COUNT(DISTINCT user_id) FROM search_history WHERE timestamp > ?`, []any{cutoff}},
			{&stats.TotalSearches, `SELECT COUNT(*) FROM search_history`, nil},
			{&stats.SuccessfulSearches, `SELECT COUNT(*) FROM search_history WHERE success = TRUE`, nil},
		}
		for _, c := range counts {
			if err := tx.GetContext(ctx, c.dest, c.query, c.args...); err != nil {
				return err
			}
		}
		return tx.SelectContext(ctx, &stats.PopularTerms, `
			SELECT search_term, COUNT(*) AS count
			FROM search_history
			GROUP BY search_term
			ORDER BY count DESC, search_term ASC
			LIMIT ?`, botPopularLimit)
	})
	if err != nil {
		return nil, s.fail(ctx, "get bot stats", err)
	}
	return stats, nil
}

func (s *sqlxStore) GetUserStats(ctx context.Context, externalID int64) (*UserStats, error) {
	var stats *UserStats
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var user User
		err := tx.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		var row struct {
			Total      int            `db:"total"`
			Successful sql.NullInt64  `db:"successful"`
			First      sql.NullString `db:"first_search"`
			Last       sql.NullString `db:"last_search"`
		}
		if err := tx.GetContext(ctx, &row, `
			SELECT COUNT(*) AS total,
				SUM(CASE WHEN success THEN 1 ELSE 0 END) AS successful,
				MIN(timestamp) AS first_search,
				MAX(timestamp) AS last_search
			FROM search_history WHERE user_id = ?`, user.ID); err != nil {
			return err
		}

		terms := []TermCount{}
		if err := tx.SelectContext(ctx, &terms, `
			SELECT search_term, COUNT(*) AS count
			FROM search_history WHERE user_id = ?
			GROUP BY search_term
			ORDER BY count DESC, search_term ASC
			LIMIT ?`, user.ID, userPopularLimit); err != nil {
			return err
		}

		stats = &UserStats{
			User:               &user,
			TotalSearches:      row.Total,
			SuccessfulSearches: int(row.Successful.Int64),
			FirstSearch:        formatStored(row.First, DateLayout),
			LastSearch:         formatStored(row.Last, DateTimeLayout),
			PopularTerms:       terms,
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "get user stats", err, "external_id", externalID)
	}
	return stats, nil
}

func (s *sqlxStore) DeleteUserData(ctx context.Context, externalID int64) (bool, error) {
	var deleted bool
	var historyCount int64
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var userID int64
		err := tx.GetContext(ctx, &userID, `SELECT id FROM users WHERE external_id = ?`, externalID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM search_history WHERE user_id = ?`, userID)
		if err != nil {
			return err
		}
		if historyCount, err = res.RowsAffected(); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, s.fail(ctx, "delete user data", err, "external_id", externalID)
	}
	if deleted {
		s.logger.InfoContext(ctx, "Deleted user data", "external_id", externalID, "history_rows", historyCount)
	}
	return deleted, nil
}

func (s *sqlxStore) CleanupOldData(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays < 0 {
		return 0, errs.NewValidationError(fmt.Sprintf("retention days must not be negative, got %d", retentionDays), nil)
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}

	cutoff := FormatTimestamp(s.now().AddDate(0, 0, -retentionDays))
	res, err := s.db.ExecContext(ctx, `DELETE FROM search_history WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, s.fail(ctx, "clean up old search history", err, "retention_days", retentionDays)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, s.fail(ctx, "read affected rows", err)
	}

	s.logger.InfoContext(ctx, "Old search history removed", "retention_days", retentionDays, "cutoff", cutoff, "deleted", n)
	return n, nil
}

func clampLimit(limit, fallback, ceiling int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// formatStored renders a stored TEXT timestamp with layout, falling back to
// the raw value when it does not parse.
func formatStored(v sql.NullString, layout string) string {
	if !v.Valid {
		return ""
	}
	var ts Timestamp
	ts.setRaw(v.String)
	return ts.Format(layout)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
