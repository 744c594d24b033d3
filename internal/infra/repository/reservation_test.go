//go:build unit

package repository

import (
	"context"
	"testing"
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/infra"
	"hotel-booking/internal/pkg/pgconv"
	"hotel-booking/internal/usecase/queries"
	"hotel-booking/tests/common/builder"
	"hotel-booking/tests/common/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockReservationQueries struct {
	mock.Mock
}

func (m *MockReservationQueries) GetReservationByID(ctx context.Context, db DBTX, id uuid.UUID) (Reservations, error) {
	args := m.Called(ctx, db, id)
	return args.Get(0).(Reservations), args.Error(1)
}

func (m *MockReservationQueries) GetReservationsByUserAndRoom(ctx context.Context, db DBTX, userID, roomID int64) ([]Reservations, error) {
	args := m.Called(ctx, db, userID, roomID)
	return args.Get(0).([]Reservations), args.Error(1)
}

func (m *MockReservationQueries) GetReservationsByUserIDFirstPage(ctx context.Context, db DBTX, arg GetReservationsByUserIDFirstPageParams) ([]Reservations, error) {
	args := m.Called(ctx, db, arg)
	return args.Get(0).([]Reservations), args.Error(1)
}

func (m *MockReservationQueries) GetReservationsByUserIDKeyset(ctx context.Context, db DBTX, arg GetReservationsByUserIDKeysetParams) ([]Reservations, error) {
	args := m.Called(ctx, db, arg)
	return args.Get(0).([]Reservations), args.Error(1)
}

func (m *MockReservationQueries) ExistsOverlappingReservation(ctx context.Context, db DBTX, arg ExistsOverlappingReservationParams) (bool, error) {
	args := m.Called(ctx, db, arg)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationQueries) CreateReservation(ctx context.Context, db DBTX, arg CreateReservationParams) error {
	args := m.Called(ctx, db, arg)
	return args.Error(0)
}

func (m *MockReservationQueries) UpdateReservation(ctx context.Context, db DBTX, arg UpdateReservationParams) (int64, error) {
	args := m.Called(ctx, db, arg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReservationQueries) ExistsReservation(ctx context.Context, db DBTX, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, db, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockReservationQueries) DeleteReservation(ctx context.Context, db DBTX, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, db, id)
	return args.Get(0).(int64), args.Error(1)
}

func newReservationRepo(q ReservationQueries) *ReservationRepository {
	return &ReservationRepository{queries: q, logger: testutil.DiscardLogger()}
}

func rowOf(r *reservation.Reservation) Reservations {
	p := reservationToCreateParams(r)
	return Reservations{
		ID:              p.ID,
		UserID:          p.UserID,
		RoomID:          p.RoomID,
		StartDate:       p.StartDate,
		EndDate:         p.EndDate,
		BookPriceCents:  p.BookPriceCents,
		BookDate:        p.BookDate,
		PaymentStatus:   p.PaymentStatus,
		BookingStatus:   p.BookingStatus,
		PaymentIntentID: p.PaymentIntentID,
		Version:         p.Version,
		UpdatedAt:       p.UpdatedAt,
	}
}

func TestReservationRepository_FindByID(t *testing.T) {
	res := builder.NewReservationBuilder().BuildInState(reservation.StatePaid)

	t.Run("row converts back to the same reservation", func(t *testing.T) {
		q := new(MockReservationQueries)
		q.On("GetReservationByID", mock.Anything, mock.Anything, res.ID()).Return(rowOf(res), nil)

		got, err := newReservationRepo(q).FindByID(context.Background(), res.ID())
		require.NoError(t, err)

		if diff := cmp.Diff(res, got, cmp.AllowUnexported(reservation.Reservation{}, reservation.StayPeriod{}, reservation.Money{})); diff != "" {
			t.Errorf("reservation mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("no rows is not found", func(t *testing.T) {
		q := new(MockReservationQueries)
		q.On("GetReservationByID", mock.Anything, mock.Anything, res.ID()).Return(Reservations{}, pgx.ErrNoRows)

		_, err := newReservationRepo(q).FindByID(context.Background(), res.ID())
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
	})

	t.Run("unknown status is a db failure", func(t *testing.T) {
		row := rowOf(res)
		row.BookingStatus = "Teleported"
		q := new(MockReservationQueries)
		q.On("GetReservationByID", mock.Anything, mock.Anything, res.ID()).Return(row, nil)

		_, err := newReservationRepo(q).FindByID(context.Background(), res.ID())
		assert.True(t, infra.IsKind(err, infra.KindDBFailure))
	})
}

func TestReservationRepository_FindByUser(t *testing.T) {
	res := builder.NewReservationBuilder().MustBuildDomain()

	t.Run("first page", func(t *testing.T) {
		q := new(MockReservationQueries)
		q.On("GetReservationsByUserIDFirstPage", mock.Anything, mock.Anything,
			GetReservationsByUserIDFirstPageParams{UserID: 1, Limit: 21}).Return([]Reservations{rowOf(res)}, nil)

		got, err := newReservationRepo(q).FindByUser(context.Background(), 1, nil, 21)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, res.ID(), got[0].ID())
	})

	t.Run("keyset page", func(t *testing.T) {
		pos := queries.Position{BookedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC), ID: uuid.New()}
		q := new(MockReservationQueries)
		q.On("GetReservationsByUserIDKeyset", mock.Anything, mock.Anything, GetReservationsByUserIDKeysetParams{
			UserID:   1,
			BookDate: pgconv.TimeToPgtype(pos.BookedAt),
			ID:       pos.ID,
			Limit:    5,
		}).Return([]Reservations{}, nil)

		got, err := newReservationRepo(q).FindByUser(context.Background(), 1, &pos, 5)
		require.NoError(t, err)
		assert.Empty(t, got)
		q.AssertExpectations(t)
	})
}

func TestReservationRepository_IsOverlapping(t *testing.T) {
	period := builder.NewReservationBuilder().Period()
	userID := int64(1)

	q := new(MockReservationQueries)
	q.On("ExistsOverlappingReservation", mock.Anything, mock.Anything, ExistsOverlappingReservationParams{
		RoomID:    7,
		UserID:    pgconv.Int8PtrToPgtype(&userID),
		StartDate: pgconv.DateToPgtype(period.Start()),
		EndDate:   pgconv.DateToPgtype(period.End()),
	}).Return(true, nil)
	q.On("ExistsOverlappingReservation", mock.Anything, mock.Anything, mock.MatchedBy(func(arg ExistsOverlappingReservationParams) bool {
		return !arg.UserID.Valid
	})).Return(false, nil)

	repo := newReservationRepo(q)

	byUser, err := repo.IsOverlapping(context.Background(), 7, &userID, period)
	require.NoError(t, err)
	assert.True(t, byUser)

	anyone, err := repo.IsOverlapping(context.Background(), 7, nil, period)
	require.NoError(t, err)
	assert.False(t, anyone)
}

func TestReservationRepository_Create(t *testing.T) {
	res := builder.NewReservationBuilder().MustBuildDomain()

	tests := []struct {
		name     string
		queryErr error
		wantKind infra.RepositoryErrorKind
	}{
		{name: "success"},
		{name: "exclusion violation is a conflict", queryErr: &pgconn.PgError{Code: pgconv.CodeExclusionViolation}, wantKind: infra.KindConflict},
		{name: "unique violation is a conflict", queryErr: &pgconn.PgError{Code: pgconv.CodeUniqueViolation}, wantKind: infra.KindConflict},
		{name: "missing room is not found", queryErr: &pgconn.PgError{Code: pgconv.CodeForeignKeyViolation}, wantKind: infra.KindNotFound},
		{name: "other errors are db failures", queryErr: assert.AnError, wantKind: infra.KindDBFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := new(MockReservationQueries)
			q.On("CreateReservation", mock.Anything, mock.Anything, reservationToCreateParams(res)).Return(tt.queryErr)

			err := newReservationRepo(q).Create(context.Background(), res)
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, infra.IsKind(err, tt.wantKind), "got %v", err)
		})
	}
}

func TestReservationRepository_Update(t *testing.T) {
	t.Run("success bumps the version", func(t *testing.T) {
		res := builder.NewReservationBuilder().MustBuildDomain()
		q := new(MockReservationQueries)
		q.On("UpdateReservation", mock.Anything, mock.Anything, mock.MatchedBy(func(arg UpdateReservationParams) bool {
			return arg.ID == res.ID() && arg.ExpectedVersion == 1
		})).Return(int64(1), nil)

		require.NoError(t, newReservationRepo(q).Update(context.Background(), res))
		assert.Equal(t, 2, res.Version())
	})

	t.Run("version mismatch is stale", func(t *testing.T) {
		res := builder.NewReservationBuilder().MustBuildDomain()
		q := new(MockReservationQueries)
		q.On("UpdateReservation", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
		q.On("ExistsReservation", mock.Anything, mock.Anything, res.ID()).Return(true, nil)

		err := newReservationRepo(q).Update(context.Background(), res)
		assert.True(t, infra.IsKind(err, infra.KindStaleVersion))
		assert.Equal(t, 1, res.Version())
	})

	t.Run("missing row is not found", func(t *testing.T) {
		res := builder.NewReservationBuilder().MustBuildDomain()
		q := new(MockReservationQueries)
		q.On("UpdateReservation", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), nil)
		q.On("ExistsReservation", mock.Anything, mock.Anything, res.ID()).Return(false, nil)

		err := newReservationRepo(q).Update(context.Background(), res)
		assert.True(t, infra.IsKind(err, infra.KindNotFound))
	})
}

func TestReservationRepository_Delete(t *testing.T) {
	id := uuid.New()

	q := new(MockReservationQueries)
	q.On("DeleteReservation", mock.Anything, mock.Anything, id).Return(int64(0), nil).Once()
	q.On("DeleteReservation", mock.Anything, mock.Anything, id).Return(int64(1), nil).Once()

	repo := newReservationRepo(q)
	assert.True(t, infra.IsKind(repo.Delete(context.Background(), id), infra.KindNotFound))
	assert.NoError(t, repo.Delete(context.Background(), id))
}
