package repositories

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"tradeAdmin/internal/models"
)

func openTestDB(t *testing.T) *ActivityRepository {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "activity.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	repo := &ActivityRepository{DB: db, Driver: DriverSQLite}
	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return repo
}

func TestActivityRecordAndRecent(t *testing.T) {
	repo := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	entries := []models.Activity{
		{Command: "add_trade", TradeID: "1", UserID: "u1", Status: "success", CreatedAt: base},
		{Command: "remove_trade", TradeID: "1", UserID: "u1", Status: "failed", Error: "trade not found", CreatedAt: base.Add(time.Minute)},
		{Command: "update_trade", TradeID: "2", UserID: "u2", Status: "success", CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, a := range entries {
		if err := repo.Record(ctx, a); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Command != "update_trade" || got[1].Command != "remove_trade" {
		t.Fatalf("expected newest first, got %+v", got)
	}
	if got[1].Error != "trade not found" || got[0].Error != "" {
		t.Fatalf("error column mismatch: %+v", got)
	}
	if !got[0].CreatedAt.Equal(base.Add(2 * time.Minute)) {
		t.Fatalf("created_at mismatch: %s", got[0].CreatedAt)
	}
}

func TestActivityRecentEmpty(t *testing.T) {
	repo := openTestDB(t)
	got, err := repo.Recent(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty slice, got %#v", got)
	}
}

func TestRebind(t *testing.T) {
	pg := &ActivityRepository{Driver: DriverPostgres}
	if got := pg.rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("unexpected rebind %q", got)
	}
	my := &ActivityRepository{Driver: DriverMySQL}
	if got := my.rebind("a = ?"); got != "a = ?" {
		t.Fatalf("mysql query must be unchanged, got %q", got)
	}
}

func TestEnsureSchemaRejectsUnknownDriver(t *testing.T) {
	repo := &ActivityRepository{Driver: "oracle"}
	if err := repo.EnsureSchema(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
