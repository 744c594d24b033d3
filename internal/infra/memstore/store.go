// Package memstore keeps users, rooms and reservations in process memory. It backs local demos
// and tests, and mirrors the guarantees of the Postgres schema: the room exclusion constraint
// and optimistic versioning.
package memstore

import (
	"bytes"
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/infra"
	"hotel-booking/internal/usecase/commands"
	"hotel-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type UserStore struct {
	mu     sync.RWMutex
	users  map[int64]commands.UserSnapshot
	logger *slog.Logger
}

func NewUserStore(logger *slog.Logger, users ...commands.UserSnapshot) *UserStore {
	s := &UserStore{users: make(map[int64]commands.UserSnapshot), logger: logger}
	for _, u := range users {
		s.Put(u)
	}
	return s
}

func (s *UserStore) Put(u commands.UserSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *UserStore) FindByID(_ context.Context, id int64) (*commands.UserSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, infra.WrapRepoErr(s.logger, infra.KindNotFound, "user not found", nil)
	}
	return &u, nil
}

type RoomStore struct {
	mu     sync.RWMutex
	rooms  map[int64]commands.RoomSnapshot
	logger *slog.Logger
}

func NewRoomStore(logger *slog.Logger, rooms ...commands.RoomSnapshot) *RoomStore {
	s := &RoomStore{rooms: make(map[int64]commands.RoomSnapshot), logger: logger}
	for _, r := range rooms {
		s.Put(r)
	}
	return s
}

func (s *RoomStore) Put(r commands.RoomSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID] = r
}

func (s *RoomStore) FindByID(_ context.Context, id int64) (*commands.RoomSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, infra.WrapRepoErr(s.logger, infra.KindNotFound, "room not found", nil)
	}
	return &r, nil
}

// ReservationStore hands out clones so callers never share state with the store.
type ReservationStore struct {
	mu           sync.RWMutex
	reservations map[uuid.UUID]*reservation.Reservation
	logger       *slog.Logger
}

func NewReservationStore(logger *slog.Logger) *ReservationStore {
	return &ReservationStore{
		reservations: make(map[uuid.UUID]*reservation.Reservation),
		logger:       logger,
	}
}

func (s *ReservationStore) FindByID(_ context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reservations[id]
	if !ok {
		return nil, infra.WrapRepoErr(s.logger, infra.KindNotFound, "reservation not found", nil)
	}
	return r.Clone(), nil
}

func (s *ReservationStore) FindByUserAndRoom(_ context.Context, userID, roomID int64) ([]*reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*reservation.Reservation
	for _, r := range s.reservations {
		if r.UserID() == userID && r.RoomID() == roomID {
			out = append(out, r.Clone())
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *ReservationStore) FindByUser(_ context.Context, userID int64, after *queries.Position, limit int) ([]*reservation.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*reservation.Reservation
	for _, r := range s.reservations {
		if r.UserID() != userID {
			continue
		}
		if after != nil && !olderThan(r, *after) {
			continue
		}
		out = append(out, r.Clone())
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ReservationStore) IsOverlapping(_ context.Context, roomID int64, userID *int64, period reservation.StayPeriod) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.overlapping(roomID, userID, period, uuid.Nil), nil
}

func (s *ReservationStore) Create(_ context.Context, r *reservation.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reservations[r.ID()]; exists {
		return infra.WrapRepoErr(s.logger, infra.KindConflict, "reservation id already exists", nil)
	}
	if r.IsActive() && s.overlapping(r.RoomID(), nil, r.Period(), uuid.Nil) {
		return infra.WrapRepoErr(s.logger, infra.KindConflict, "room already reserved for an overlapping period", nil)
	}
	s.reservations[r.ID()] = r.Clone()
	return nil
}

// Update succeeds only if r carries the stored version; r's version is bumped on success.
func (s *ReservationStore) Update(_ context.Context, r *reservation.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.reservations[r.ID()]
	if !ok {
		return infra.WrapRepoErr(s.logger, infra.KindNotFound, "reservation not found", nil)
	}
	if stored.Version() != r.Version() {
		return infra.WrapRepoErr(s.logger, infra.KindStaleVersion, "reservation was modified concurrently", nil)
	}
	if r.IsActive() && s.overlapping(r.RoomID(), nil, r.Period(), r.ID()) {
		return infra.WrapRepoErr(s.logger, infra.KindConflict, "room already reserved for an overlapping period", nil)
	}
	r.BumpVersion()
	s.reservations[r.ID()] = r.Clone()
	return nil
}

func (s *ReservationStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reservations[id]; !ok {
		return infra.WrapRepoErr(s.logger, infra.KindNotFound, "reservation not found", nil)
	}
	delete(s.reservations, id)
	return nil
}

// overlapping must be called with s.mu held.
func (s *ReservationStore) overlapping(roomID int64, userID *int64, period reservation.StayPeriod, except uuid.UUID) bool {
	for id, r := range s.reservations {
		if id == except || r.RoomID() != roomID || !r.IsActive() {
			continue
		}
		if userID != nil && r.UserID() != *userID {
			continue
		}
		if r.Period().Overlaps(period) {
			return true
		}
	}
	return false
}

func bookedKey(r *reservation.Reservation) time.Time {
	return r.BookedAt().Truncate(time.Microsecond)
}

func olderThan(r *reservation.Reservation, pos queries.Position) bool {
	t := bookedKey(r)
	if !t.Equal(pos.BookedAt) {
		return t.Before(pos.BookedAt)
	}
	id := r.ID()
	return bytes.Compare(id[:], pos.ID[:]) < 0
}

func sortNewestFirst(rs []*reservation.Reservation) {
	sort.Slice(rs, func(i, j int) bool {
		ti, tj := bookedKey(rs[i]), bookedKey(rs[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		a, b := rs[i].ID(), rs[j].ID()
		return bytes.Compare(a[:], b[:]) > 0
	})
}
