//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// Seeded by SeedReferenceData.
const (
	DefaultHotelName = "Default Hotel"
)

// Conn is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx, so fixtures can run inside a
// test transaction as well as against the shared pool.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func CreateTestUser(t *testing.T, db Conn, email, role string) int64 {
	t.Helper()

	var userID int64
	ctx := context.Background()
	err := db.QueryRow(ctx,
		`INSERT INTO users (email, role) VALUES ($1, $2)
		 ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role
		 RETURNING id`,
		email, role).Scan(&userID)
	require.NoError(t, err)

	return userID
}

func CreateTestRoom(t *testing.T, db Conn, name string) int64 {
	t.Helper()

	var roomID int64
	ctx := context.Background()
	err := db.QueryRow(ctx,
		`INSERT INTO rooms (hotel_id, name)
		 SELECT id, $1 FROM hotels WHERE name = $2 LIMIT 1
		 RETURNING id`,
		name, DefaultHotelName).Scan(&roomID)
	require.NoError(t, err)

	return roomID
}

// CountReservations counts rows for a room regardless of state.
func CountReservations(t *testing.T, db Conn, roomID int64) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT count(*) FROM reservations WHERE room_id = $1", roomID).Scan(&n)
	require.NoError(t, err)
	return n
}

// inserts basic reference data needed by tests
func SeedReferenceData(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `INSERT INTO hotels (name) VALUES ($1)`, DefaultHotelName)
	if err != nil {
		return err
	}

	return nil
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables and reseeds reference data
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('atlas_schema_revisions')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	if _, err := pool.Exec(ctx, sqlAny.(string)); err != nil {
		return err
	}

	return SeedReferenceData(pool)
}
