package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Users struct {
	ID    int64
	Email string
	Role  string
}

type Rooms struct {
	ID      int64
	HotelID int64
	Name    string
}

type Reservations struct {
	ID              uuid.UUID
	UserID          int64
	RoomID          int64
	StartDate       pgtype.Date
	EndDate         pgtype.Date
	BookPriceCents  int64
	BookDate        pgtype.Timestamptz
	PaymentStatus   string
	BookingStatus   string
	PaymentIntentID pgtype.Text
	Version         int32
	UpdatedAt       pgtype.Timestamptz
}

// Queries holds the SQL for the reservation schema. Every method takes the DBTX to run on so
// callers can choose between the pool and a transaction.
type Queries struct{}

func NewQueries() *Queries {
	return &Queries{}
}

const findUserByID = `
SELECT id, email, role FROM users WHERE id = $1
`

func (q *Queries) FindUserByID(ctx context.Context, db DBTX, id int64) (Users, error) {
	var u Users
	err := db.QueryRow(ctx, findUserByID, id).Scan(&u.ID, &u.Email, &u.Role)
	return u, err
}

const findRoomByID = `
SELECT id, hotel_id, name FROM rooms WHERE id = $1
`

func (q *Queries) FindRoomByID(ctx context.Context, db DBTX, id int64) (Rooms, error) {
	var r Rooms
	err := db.QueryRow(ctx, findRoomByID, id).Scan(&r.ID, &r.HotelID, &r.Name)
	return r, err
}

const reservationColumns = `id, user_id, room_id, start_date, end_date, book_price_cents, book_date,
	payment_status, booking_status, payment_intent_id, version, updated_at`

func scanReservation(row pgx.Row) (Reservations, error) {
	var r Reservations
	err := row.Scan(
		&r.ID, &r.UserID, &r.RoomID, &r.StartDate, &r.EndDate, &r.BookPriceCents, &r.BookDate,
		&r.PaymentStatus, &r.BookingStatus, &r.PaymentIntentID, &r.Version, &r.UpdatedAt,
	)
	return r, err
}

func collectReservations(rows pgx.Rows) ([]Reservations, error) {
	defer rows.Close()
	var items []Reservations
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, r)
	}
	return items, rows.Err()
}

const getReservationByID = `
SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1
`

func (q *Queries) GetReservationByID(ctx context.Context, db DBTX, id uuid.UUID) (Reservations, error) {
	return scanReservation(db.QueryRow(ctx, getReservationByID, id))
}

const getReservationsByUserAndRoom = `
SELECT ` + reservationColumns + ` FROM reservations
WHERE user_id = $1 AND room_id = $2
ORDER BY book_date DESC, id DESC
`

func (q *Queries) GetReservationsByUserAndRoom(ctx context.Context, db DBTX, userID, roomID int64) ([]Reservations, error) {
	rows, err := db.Query(ctx, getReservationsByUserAndRoom, userID, roomID)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

type GetReservationsByUserIDFirstPageParams struct {
	UserID int64
	Limit  int32
}

const getReservationsByUserIDFirstPage = `
SELECT ` + reservationColumns + ` FROM reservations
WHERE user_id = $1
ORDER BY book_date DESC, id DESC
LIMIT $2
`

func (q *Queries) GetReservationsByUserIDFirstPage(ctx context.Context, db DBTX, arg GetReservationsByUserIDFirstPageParams) ([]Reservations, error) {
	rows, err := db.Query(ctx, getReservationsByUserIDFirstPage, arg.UserID, arg.Limit)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

type GetReservationsByUserIDKeysetParams struct {
	UserID   int64
	BookDate pgtype.Timestamptz
	ID       uuid.UUID
	Limit    int32
}

const getReservationsByUserIDKeyset = `
SELECT ` + reservationColumns + ` FROM reservations
WHERE user_id = $1 AND (book_date, id) < ($2, $3)
ORDER BY book_date DESC, id DESC
LIMIT $4
`

func (q *Queries) GetReservationsByUserIDKeyset(ctx context.Context, db DBTX, arg GetReservationsByUserIDKeysetParams) ([]Reservations, error) {
	rows, err := db.Query(ctx, getReservationsByUserIDKeyset, arg.UserID, arg.BookDate, arg.ID, arg.Limit)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

type ExistsOverlappingReservationParams struct {
	RoomID    int64
	UserID    pgtype.Int8
	StartDate pgtype.Date
	EndDate   pgtype.Date
}

const existsOverlappingReservation = `
SELECT EXISTS (
	SELECT 1 FROM reservations
	WHERE room_id = $1
	  AND booking_status <> 'Cancelled'
	  AND ($2::bigint IS NULL OR user_id = $2)
	  AND daterange(start_date, end_date, '[)') && daterange($3::date, $4::date, '[)')
)
`

func (q *Queries) ExistsOverlappingReservation(ctx context.Context, db DBTX, arg ExistsOverlappingReservationParams) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, existsOverlappingReservation, arg.RoomID, arg.UserID, arg.StartDate, arg.EndDate).Scan(&exists)
	return exists, err
}

type CreateReservationParams struct {
	ID              uuid.UUID
	UserID          int64
	RoomID          int64
	StartDate       pgtype.Date
	EndDate         pgtype.Date
	BookPriceCents  int64
	BookDate        pgtype.Timestamptz
	PaymentStatus   string
	BookingStatus   string
	PaymentIntentID pgtype.Text
	Version         int32
	UpdatedAt       pgtype.Timestamptz
}

const createReservation = `
INSERT INTO reservations (` + reservationColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
`

func (q *Queries) CreateReservation(ctx context.Context, db DBTX, arg CreateReservationParams) error {
	_, err := db.Exec(ctx, createReservation,
		arg.ID, arg.UserID, arg.RoomID, arg.StartDate, arg.EndDate, arg.BookPriceCents, arg.BookDate,
		arg.PaymentStatus, arg.BookingStatus, arg.PaymentIntentID, arg.Version, arg.UpdatedAt,
	)
	return err
}

type UpdateReservationParams struct {
	ID              uuid.UUID
	PaymentStatus   string
	BookingStatus   string
	PaymentIntentID pgtype.Text
	UpdatedAt       pgtype.Timestamptz
	ExpectedVersion int32
}

const updateReservation = `
UPDATE reservations
SET payment_status = $2, booking_status = $3, payment_intent_id = $4, updated_at = $5, version = version + 1
WHERE id = $1 AND version = $6
`

// UpdateReservation returns the number of rows written; zero means the id or version did not match.
func (q *Queries) UpdateReservation(ctx context.Context, db DBTX, arg UpdateReservationParams) (int64, error) {
	tag, err := db.Exec(ctx, updateReservation,
		arg.ID, arg.PaymentStatus, arg.BookingStatus, arg.PaymentIntentID, arg.UpdatedAt, arg.ExpectedVersion,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const existsReservation = `
SELECT EXISTS (SELECT 1 FROM reservations WHERE id = $1)
`

func (q *Queries) ExistsReservation(ctx context.Context, db DBTX, id uuid.UUID) (bool, error) {
	var exists bool
	err := db.QueryRow(ctx, existsReservation, id).Scan(&exists)
	return exists, err
}

const deleteReservation = `
DELETE FROM reservations WHERE id = $1
`

func (q *Queries) DeleteReservation(ctx context.Context, db DBTX, id uuid.UUID) (int64, error) {
	tag, err := db.Exec(ctx, deleteReservation, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
