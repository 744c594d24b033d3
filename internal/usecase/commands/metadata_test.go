//go:build unit

package commands_test

import (
	"testing"
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/pkg/errs"
	"hotel-booking/internal/usecase/commands"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var moneyCmp = cmp.Comparer(func(a, b reservation.Money) bool { return a.Cents() == b.Cents() })

func validMetadata() map[string]string {
	return map[string]string{
		commands.MetaUserID:    "1",
		commands.MetaRoomID:    "7",
		commands.MetaStartDate: "2026-10-19T00:00:00Z",
		commands.MetaEndDate:   "2026-10-21T00:00:00Z",
		commands.MetaBookPrice: "150.00",
	}
}

func TestReservationMetadata_RoundTrip(t *testing.T) {
	original := commands.ReservationMetadata{
		UserID:    1,
		RoomID:    7,
		StartDate: time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC),
		BookPrice: reservation.NewMoney(15000),
	}

	encoded := original.Encode()
	if diff := cmp.Diff(validMetadata(), encoded); diff != "" {
		t.Errorf("encoded metadata mismatch (-want +got):\n%s", diff)
	}

	decoded, err := commands.DecodeReservationMetadata(encoded)
	require.NoError(t, err)
	if diff := cmp.Diff(original, decoded, moneyCmp); diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReservationMetadata_EncodeDropsTimeOfDay(t *testing.T) {
	md := commands.ReservationMetadata{
		UserID:    3,
		RoomID:    4,
		StartDate: time.Date(2026, 12, 24, 18, 45, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 12, 26, 9, 0, 0, 0, time.UTC),
		BookPrice: reservation.NewMoney(9905),
	}.Encode()

	assert.Equal(t, "2026-12-24T00:00:00Z", md[commands.MetaStartDate])
	assert.Equal(t, "2026-12-26T00:00:00Z", md[commands.MetaEndDate])
	assert.Equal(t, "99.05", md[commands.MetaBookPrice])
}

func TestDecodeReservationMetadata_DateLayouts(t *testing.T) {
	want := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{
		"2026-10-19T00:00:00Z",
		"2026-10-19T00:00:00.0000000Z",
		"2026-10-19T00:00:00.0000000",
		"2026-10-19T00:00:00+09:00",
		"2026-10-19",
	} {
		t.Run(raw, func(t *testing.T) {
			md := validMetadata()
			md[commands.MetaStartDate] = raw

			decoded, err := commands.DecodeReservationMetadata(md)
			require.NoError(t, err)
			assert.Equal(t, want, decoded.StartDate)
		})
	}
}

func TestDecodeReservationMetadata_Malformed(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing user", func(m map[string]string) { delete(m, commands.MetaUserID) }},
		{"empty room", func(m map[string]string) { m[commands.MetaRoomID] = "" }},
		{"non-numeric room", func(m map[string]string) { m[commands.MetaRoomID] = "seven" }},
		{"zero user", func(m map[string]string) { m[commands.MetaUserID] = "0" }},
		{"negative room", func(m map[string]string) { m[commands.MetaRoomID] = "-7" }},
		{"bad start date", func(m map[string]string) { m[commands.MetaStartDate] = "19/10/2026" }},
		{"missing end date", func(m map[string]string) { delete(m, commands.MetaEndDate) }},
		{"price without decimals", func(m map[string]string) { m[commands.MetaBookPrice] = "150" }},
		{"price with three decimals", func(m map[string]string) { m[commands.MetaBookPrice] = "150.000" }},
		{"missing price", func(m map[string]string) { delete(m, commands.MetaBookPrice) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			md := validMetadata()
			tc.mutate(md)

			_, err := commands.DecodeReservationMetadata(md)
			assert.True(t, errs.Is(err, commands.ErrMalformedEvent), "got %v", err)
		})
	}

	t.Run("nil map", func(t *testing.T) {
		_, err := commands.DecodeReservationMetadata(nil)
		assert.True(t, errs.Is(err, commands.ErrMalformedEvent))
	})
}

func TestReservationIDFromMetadata(t *testing.T) {
	id := uuid.New()

	got, err := commands.ReservationIDFromMetadata(map[string]string{commands.MetaReservationID: id.String()})
	require.NoError(t, err)
	assert.Equal(t, id, got)

	for _, md := range []map[string]string{
		nil,
		{},
		{commands.MetaReservationID: "not-a-uuid"},
		{commands.MetaReservationID: uuid.Nil.String()},
	} {
		_, err := commands.ReservationIDFromMetadata(md)
		assert.True(t, errs.Is(err, commands.ErrMalformedEvent))
	}
}
