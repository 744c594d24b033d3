package commands

import (
	"strconv"
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/pkg/errs"

	"github.com/google/uuid"
)

// Keys of the payment intent metadata bag. The bag is the only state carried from intent
// creation to the webhook, so every field is validated on decode.
const (
	MetaUserID        = "userId"
	MetaRoomID        = "roomId"
	MetaStartDate     = "startDate"
	MetaEndDate       = "endDate"
	MetaBookPrice     = "bookPrice"
	MetaReservationID = "reservationId"
)

const metadataDateLayout = time.RFC3339

// Accepted on decode, most specific first.
var metadataDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	reservation.DateLayout,
}

type ReservationMetadata struct {
	UserID    int64
	RoomID    int64
	StartDate time.Time
	EndDate   time.Time
	BookPrice reservation.Money
}

func (m ReservationMetadata) Encode() map[string]string {
	return map[string]string{
		MetaUserID:    strconv.FormatInt(m.UserID, 10),
		MetaRoomID:    strconv.FormatInt(m.RoomID, 10),
		MetaStartDate: reservation.DateOf(m.StartDate).Format(metadataDateLayout),
		MetaEndDate:   reservation.DateOf(m.EndDate).Format(metadataDateLayout),
		MetaBookPrice: m.BookPrice.String(),
	}
}

func DecodeReservationMetadata(md map[string]string) (ReservationMetadata, error) {
	var (
		m   ReservationMetadata
		err error
	)
	if m.UserID, err = decodeID(md, MetaUserID); err != nil {
		return ReservationMetadata{}, err
	}
	if m.RoomID, err = decodeID(md, MetaRoomID); err != nil {
		return ReservationMetadata{}, err
	}
	if m.StartDate, err = decodeDate(md, MetaStartDate); err != nil {
		return ReservationMetadata{}, err
	}
	if m.EndDate, err = decodeDate(md, MetaEndDate); err != nil {
		return ReservationMetadata{}, err
	}

	raw, err := requireField(md, MetaBookPrice)
	if err != nil {
		return ReservationMetadata{}, err
	}
	if m.BookPrice, err = reservation.ParseMoney(raw); err != nil {
		return ReservationMetadata{}, errs.Wrapf(ErrMalformedEvent, "metadata %s=%q is not a two-decimal amount", MetaBookPrice, raw)
	}

	return m, nil
}

// ReservationIDFromMetadata returns the reservation attached to an intent after creation.
func ReservationIDFromMetadata(md map[string]string) (uuid.UUID, error) {
	raw, err := requireField(md, MetaReservationID)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, errs.Wrapf(ErrMalformedEvent, "metadata %s=%q is not a reservation id", MetaReservationID, raw)
	}
	return id, nil
}

func hasReservationID(md map[string]string) bool {
	return md[MetaReservationID] != ""
}

func requireField(md map[string]string, key string) (string, error) {
	v, ok := md[key]
	if !ok || v == "" {
		return "", errs.Wrapf(ErrMalformedEvent, "metadata %s is missing", key)
	}
	return v, nil
}

func decodeID(md map[string]string, key string) (int64, error) {
	raw, err := requireField(md, key)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.Wrapf(ErrMalformedEvent, "metadata %s=%q is not a positive id", key, raw)
	}
	return id, nil
}

func decodeDate(md map[string]string, key string) (time.Time, error) {
	raw, err := requireField(md, key)
	if err != nil {
		return time.Time{}, err
	}
	for _, layout := range metadataDateLayouts {
		if t, perr := time.Parse(layout, raw); perr == nil {
			return reservation.DateOf(t), nil
		}
	}
	return time.Time{}, errs.Wrapf(ErrMalformedEvent, "metadata %s=%q is not an ISO-8601 date", key, raw)
}
