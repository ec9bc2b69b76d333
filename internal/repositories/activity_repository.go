package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tradeAdmin/internal/models"
)

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

var activitySchema = map[string]string{
	DriverMySQL: `CREATE TABLE IF NOT EXISTS trade_activity (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		command VARCHAR(32) NOT NULL,
		trade_id VARCHAR(64) NOT NULL DEFAULT '',
		user_id VARCHAR(64) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL,
		error TEXT,
		created_at BIGINT NOT NULL
	)`,
	DriverPostgres: `CREATE TABLE IF NOT EXISTS trade_activity (
		id BIGSERIAL PRIMARY KEY,
		command VARCHAR(32) NOT NULL,
		trade_id VARCHAR(64) NOT NULL DEFAULT '',
		user_id VARCHAR(64) NOT NULL DEFAULT '',
		status VARCHAR(16) NOT NULL,
		error TEXT,
		created_at BIGINT NOT NULL
	)`,
	DriverSQLite: `CREATE TABLE IF NOT EXISTS trade_activity (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		command TEXT NOT NULL,
		trade_id TEXT NOT NULL DEFAULT '',
		user_id TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		error TEXT,
		created_at INTEGER NOT NULL
	)`,
}

// ActivityRepository stores the journal of admin trade commands.
type ActivityRepository struct {
	DB     *sql.DB
	Driver string
}

func (r *ActivityRepository) EnsureSchema(ctx context.Context) error {
	ddl, ok := activitySchema[r.Driver]
	if !ok {
		return fmt.Errorf("activity: unsupported driver %q", r.Driver)
	}
	_, err := r.DB.ExecContext(ctx, ddl)
	return err
}

func (r *ActivityRepository) Record(ctx context.Context, a models.Activity) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO trade_activity (command, trade_id, user_id, status, error, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	args := []any{a.Command, a.TradeID, a.UserID, a.Status, nullString(a.Error), a.CreatedAt.UnixMilli()}

	if r.Driver == DriverPostgres {
		var id int64
		return r.DB.QueryRowContext(ctx, r.rebind(query)+` RETURNING id`, args...).Scan(&id)
	}
	_, err := r.DB.ExecContext(ctx, query, args...)
	return err
}

// Recent returns up to limit entries, newest first.
func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, command, trade_id, user_id, status, error, created_at FROM trade_activity ORDER BY id DESC LIMIT ?`
	rows, err := r.DB.QueryContext(ctx, r.rebind(query), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activity := []models.Activity{}
	for rows.Next() {
		var (
			a       models.Activity
			errText sql.NullString
			created int64
		)
		if err := rows.Scan(&a.ID, &a.Command, &a.TradeID, &a.UserID, &a.Status, &errText, &created); err != nil {
			return nil, err
		}
		a.Error = errText.String
		a.CreatedAt = time.UnixMilli(created).UTC()
		activity = append(activity, a)
	}
	return activity, rows.Err()
}

// rebind rewrites ? placeholders to $n for postgres.
func (r *ActivityRepository) rebind(query string) string {
	if r.Driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, c := range query {
		if c == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
