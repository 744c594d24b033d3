//go:build unit

package queries_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/domain/user"
	"hotel-booking/internal/infra"
	"hotel-booking/internal/pkg/errs"
	"hotel-booking/internal/usecase/queries"
	"hotel-booking/tests/common/builder"
	"hotel-booking/tests/common/testutil"
	queriesmock "hotel-booking/tests/mock/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type ReservationQueriesTestSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	reader *queriesmock.MockReservationReader
	sut    queries.ReservationQueries
	ctx    context.Context
}

func TestReservationQueriesTestSuite(t *testing.T) {
	suite.Run(t, new(ReservationQueriesTestSuite))
}

func (s *ReservationQueriesTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.reader = queriesmock.NewMockReservationReader(s.ctrl)
	s.sut = queries.NewReservationQueries(s.reader)
	s.ctx = context.Background()
}

func (s *ReservationQueriesTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *ReservationQueriesTestSuite) TestGetByID() {
	owned := builder.NewReservationBuilder().WithUserID(1).MustBuildDomain()

	s.Run("owner sees the reservation", func() {
		s.reader.EXPECT().FindByID(s.ctx, owned.ID()).Return(owned, nil)

		view, err := s.sut.GetByID(s.ctx, queries.Actor{ID: 1, Role: user.RoleGuest}, owned.ID())

		s.Require().NoError(err)
		s.Equal(owned.ID(), view.ID)
		s.Equal(int64(15000), view.BookPriceCents)
		s.Equal("Pending", view.PaymentStatus)
		s.Equal("Pending", view.BookingStatus)
	})

	s.Run("manager sees any reservation", func() {
		s.reader.EXPECT().FindByID(s.ctx, owned.ID()).Return(owned, nil)

		view, err := s.sut.GetByID(s.ctx, queries.Actor{ID: 99, Role: user.RoleManager}, owned.ID())

		s.Require().NoError(err)
		s.Equal(int64(1), view.UserID)
	})

	s.Run("another guest is denied", func() {
		s.reader.EXPECT().FindByID(s.ctx, owned.ID()).Return(owned, nil)

		_, err := s.sut.GetByID(s.ctx, queries.Actor{ID: 2, Role: user.RoleGuest}, owned.ID())

		s.ErrorIs(err, queries.ErrReservationAccessDenied)
	})

	s.Run("missing row maps to not found", func() {
		id := uuid.New()
		notFound := infra.WrapRepoErr(testutil.DiscardLogger(), infra.KindNotFound, "reservation not found", nil)
		s.reader.EXPECT().FindByID(s.ctx, id).Return(nil, notFound)

		_, err := s.sut.GetByID(s.ctx, queries.Actor{ID: 1, Role: user.RoleGuest}, id)

		s.ErrorIs(err, queries.ErrReservationNotFound)
	})

	s.Run("storage failure is passed through", func() {
		id := uuid.New()
		boom := errors.New("connection reset")
		s.reader.EXPECT().FindByID(s.ctx, id).Return(nil, boom)

		_, err := s.sut.GetByID(s.ctx, queries.Actor{ID: 1, Role: user.RoleGuest}, id)

		s.ErrorIs(err, boom)
	})
}

func (s *ReservationQueriesTestSuite) TestListByUser() {
	rows := make([]*reservation.Reservation, 0, 3)
	for i := range 3 {
		rows = append(rows, builder.NewReservationBuilder().
			WithDays(i*3+1, i*3+2).
			With(func(b *builder.ReservationBuilder) { b.Now = builder.Today.Add(-time.Duration(i) * time.Minute) }).
			MustBuildDomain())
	}

	s.Run("extra row produces a next cursor", func() {
		s.reader.EXPECT().FindByUser(s.ctx, int64(1), nil, 3).Return(rows, nil)

		views, next, err := s.sut.ListByUser(s.ctx, 1, nil, 2)

		s.Require().NoError(err)
		s.Len(views, 2)
		s.Require().NotNil(next)

		pos, err := queries.DecodeAfterCursor(next.After)
		s.Require().NoError(err)
		s.Equal(rows[1].ID(), pos.ID)
		s.True(rows[1].BookedAt().Equal(pos.BookedAt))
	})

	s.Run("last page has no cursor", func() {
		s.reader.EXPECT().FindByUser(s.ctx, int64(1), nil, 11).Return(rows, nil)

		views, next, err := s.sut.ListByUser(s.ctx, 1, &queries.Cursor{}, 10)

		s.Require().NoError(err)
		s.Len(views, 3)
		s.Nil(next)
	})

	s.Run("cursor is decoded into a keyset position", func() {
		cursor := queries.EncodeAfterCursor(rows[0].BookedAt(), rows[0].ID())
		s.reader.EXPECT().
			FindByUser(s.ctx, int64(1), gomock.Any(), queries.DefaultListLimit+1).
			DoAndReturn(func(_ context.Context, _ int64, after *queries.Position, _ int) ([]*reservation.Reservation, error) {
				require.NotNil(s.T(), after)
				assert.Equal(s.T(), rows[0].ID(), after.ID)
				return rows[1:], nil
			})

		views, next, err := s.sut.ListByUser(s.ctx, 1, &queries.Cursor{After: cursor}, 0)

		s.Require().NoError(err)
		s.Len(views, 2)
		s.Nil(next)
	})

	s.Run("invalid cursor never reaches the store", func() {
		_, _, err := s.sut.ListByUser(s.ctx, 1, &queries.Cursor{After: "garbage"}, 10)

		s.True(errs.Is(err, queries.ErrInvalidCursor))
	})
}
