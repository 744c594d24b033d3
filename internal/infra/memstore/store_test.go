//go:build unit

package memstore_test

import (
	"context"
	"testing"
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/infra"
	"hotel-booking/internal/infra/memstore"
	"hotel-booking/internal/usecase/commands"
	"hotel-booking/internal/usecase/queries"
	"hotel-booking/tests/common/builder"
	"hotel-booking/tests/common/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ReservationStoreTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *memstore.ReservationStore
}

func (s *ReservationStoreTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memstore.NewReservationStore(testutil.DiscardLogger())
}

func TestReservationStoreTestSuite(t *testing.T) {
	suite.Run(t, new(ReservationStoreTestSuite))
}

func (s *ReservationStoreTestSuite) create(b *builder.ReservationBuilder) *reservation.Reservation {
	r := b.MustBuildDomain()
	s.Require().NoError(s.store.Create(s.ctx, r))
	return r
}

func (s *ReservationStoreTestSuite) TestCreateAndFind() {
	r := s.create(builder.NewReservationBuilder())

	got, err := s.store.FindByID(s.ctx, r.ID())
	s.Require().NoError(err)
	s.Equal(r.ID(), got.ID())
	s.Equal(r.State(), got.State())

	_, err = s.store.FindByID(s.ctx, uuid.New())
	s.True(infra.IsKind(err, infra.KindNotFound))
}

func (s *ReservationStoreTestSuite) TestReturnedValuesAreCopies() {
	r := s.create(builder.NewReservationBuilder())

	got, err := s.store.FindByID(s.ctx, r.ID())
	s.Require().NoError(err)
	_, err = got.Apply(reservation.MarkPaid, builder.Today)
	s.Require().NoError(err)

	again, err := s.store.FindByID(s.ctx, r.ID())
	s.Require().NoError(err)
	s.Equal(reservation.StatePending, again.State())
}

func (s *ReservationStoreTestSuite) TestCreateRejectsOverlapOnSameRoom() {
	s.create(builder.NewReservationBuilder().WithDays(1, 4))

	err := s.store.Create(s.ctx, builder.NewReservationBuilder().WithUserID(2).WithDays(3, 5).MustBuildDomain())
	s.True(infra.IsKind(err, infra.KindConflict))

	// back-to-back stays and other rooms are fine
	s.NoError(s.store.Create(s.ctx, builder.NewReservationBuilder().WithUserID(2).WithDays(4, 6).MustBuildDomain()))
	s.NoError(s.store.Create(s.ctx, builder.NewReservationBuilder().WithRoomID(8).WithDays(1, 4).MustBuildDomain()))
}

func (s *ReservationStoreTestSuite) TestIsOverlapping() {
	r := s.create(builder.NewReservationBuilder().WithDays(1, 4))
	other := int64(99)
	owner := r.UserID()
	probe := builder.NewReservationBuilder().WithDays(2, 3).Period()

	overlapping, err := s.store.IsOverlapping(s.ctx, r.RoomID(), nil, probe)
	s.Require().NoError(err)
	s.True(overlapping)

	overlapping, err = s.store.IsOverlapping(s.ctx, r.RoomID(), &owner, probe)
	s.Require().NoError(err)
	s.True(overlapping)

	overlapping, err = s.store.IsOverlapping(s.ctx, r.RoomID(), &other, probe)
	s.Require().NoError(err)
	s.False(overlapping)

	overlapping, err = s.store.IsOverlapping(s.ctx, r.RoomID()+1, nil, probe)
	s.Require().NoError(err)
	s.False(overlapping)
}

func (s *ReservationStoreTestSuite) TestEmptyStayOverlapsNothing() {
	r := s.create(builder.NewReservationBuilder().WithDays(1, 4))
	owner := r.UserID()
	empty := builder.NewReservationBuilder().WithDays(2, 2)

	overlapping, err := s.store.IsOverlapping(s.ctx, r.RoomID(), nil, empty.Period())
	s.Require().NoError(err)
	s.False(overlapping)

	overlapping, err = s.store.IsOverlapping(s.ctx, r.RoomID(), &owner, empty.Period())
	s.Require().NoError(err)
	s.False(overlapping)

	s.create(empty.WithUserID(2))
}

func (s *ReservationStoreTestSuite) TestCancelledReservationsDoNotBlock() {
	r := s.create(builder.NewReservationBuilder().WithDays(1, 4))
	_, err := r.Apply(reservation.MarkCancelled, builder.Today)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Update(s.ctx, r))

	overlapping, err := s.store.IsOverlapping(s.ctx, r.RoomID(), nil, r.Period())
	s.Require().NoError(err)
	s.False(overlapping)

	s.NoError(s.store.Create(s.ctx, builder.NewReservationBuilder().WithUserID(3).WithDays(1, 4).MustBuildDomain()))
}

func (s *ReservationStoreTestSuite) TestUpdateIsOptimistic() {
	r := s.create(builder.NewReservationBuilder())

	first, err := s.store.FindByID(s.ctx, r.ID())
	s.Require().NoError(err)
	second, err := s.store.FindByID(s.ctx, r.ID())
	s.Require().NoError(err)

	_, err = first.Apply(reservation.MarkPaid, builder.Today)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Update(s.ctx, first))
	s.Equal(2, first.Version())

	_, err = second.Apply(reservation.MarkFailed, builder.Today)
	s.Require().NoError(err)
	err = s.store.Update(s.ctx, second)
	s.True(infra.IsKind(err, infra.KindStaleVersion))

	stored, err := s.store.FindByID(s.ctx, r.ID())
	s.Require().NoError(err)
	s.Equal(reservation.StatePaid, stored.State())
}

func (s *ReservationStoreTestSuite) TestUpdateAndDeleteMissing() {
	ghost := builder.NewReservationBuilder().MustBuildDomain()

	s.True(infra.IsKind(s.store.Update(s.ctx, ghost), infra.KindNotFound))
	s.True(infra.IsKind(s.store.Delete(s.ctx, ghost.ID()), infra.KindNotFound))
}

func (s *ReservationStoreTestSuite) TestDelete() {
	r := s.create(builder.NewReservationBuilder())

	s.Require().NoError(s.store.Delete(s.ctx, r.ID()))
	_, err := s.store.FindByID(s.ctx, r.ID())
	s.True(infra.IsKind(err, infra.KindNotFound))
}

func (s *ReservationStoreTestSuite) TestFindByUserAndRoom() {
	a := s.create(builder.NewReservationBuilder().WithDays(1, 2))
	s.create(builder.NewReservationBuilder().WithRoomID(8).WithDays(1, 2))
	s.create(builder.NewReservationBuilder().WithUserID(2).WithDays(5, 6))

	got, err := s.store.FindByUserAndRoom(s.ctx, a.UserID(), a.RoomID())
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(a.ID(), got[0].ID())
}

func (s *ReservationStoreTestSuite) TestFindByUserPaginates() {
	var ids []uuid.UUID
	for i := 0; i < 5; i++ {
		b := builder.NewReservationBuilder().WithDays(i*2+1, i*2+2)
		b.Now = builder.Today.Add(time.Duration(i) * time.Minute)
		ids = append(ids, s.create(b).ID())
	}

	page, err := s.store.FindByUser(s.ctx, 1, nil, 2)
	s.Require().NoError(err)
	s.Require().Len(page, 2)
	s.Equal(ids[4], page[0].ID())
	s.Equal(ids[3], page[1].ID())

	after := &queries.Position{BookedAt: page[1].BookedAt(), ID: page[1].ID()}
	rest, err := s.store.FindByUser(s.ctx, 1, after, 10)
	s.Require().NoError(err)
	s.Require().Len(rest, 3)
	s.Equal(ids[2], rest[0].ID())
	s.Equal(ids[0], rest[2].ID())

	none, err := s.store.FindByUser(s.ctx, 42, nil, 10)
	s.Require().NoError(err)
	s.Empty(none)
}

func TestUserAndRoomStores(t *testing.T) {
	logger := testutil.DiscardLogger()
	users := memstore.NewUserStore(logger, commands.UserSnapshot{ID: 1, Email: "guest@example.com"})
	rooms := memstore.NewRoomStore(logger, commands.RoomSnapshot{ID: 7, HotelID: 1, Name: "Deluxe"})

	u, err := users.FindByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", u.Email)

	_, err = users.FindByID(context.Background(), 2)
	assert.True(t, infra.IsKind(err, infra.KindNotFound))

	r, err := rooms.FindByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Deluxe", r.Name)

	_, err = rooms.FindByID(context.Background(), 8)
	assert.True(t, infra.IsKind(err, infra.KindNotFound))
}
