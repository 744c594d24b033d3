package repository

import (
	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/pkg/errs"
	"hotel-booking/internal/pkg/pgconv"
)

func reservationToCreateParams(r *reservation.Reservation) CreateReservationParams {
	return CreateReservationParams{
		ID:              r.ID(),
		UserID:          r.UserID(),
		RoomID:          r.RoomID(),
		StartDate:       pgconv.DateToPgtype(r.Period().Start()),
		EndDate:         pgconv.DateToPgtype(r.Period().End()),
		BookPriceCents:  r.Price().Cents(),
		BookDate:        pgconv.TimeToPgtype(r.BookedAt()),
		PaymentStatus:   r.PaymentStatus().String(),
		BookingStatus:   r.BookingStatus().String(),
		PaymentIntentID: pgconv.StringToPgtype(r.PaymentIntentID()),
		Version:         int32(r.Version()),
		UpdatedAt:       pgconv.TimeToPgtype(r.UpdatedAt()),
	}
}

func reservationToUpdateParams(r *reservation.Reservation) UpdateReservationParams {
	return UpdateReservationParams{
		ID:              r.ID(),
		PaymentStatus:   r.PaymentStatus().String(),
		BookingStatus:   r.BookingStatus().String(),
		PaymentIntentID: pgconv.StringToPgtype(r.PaymentIntentID()),
		UpdatedAt:       pgconv.TimeToPgtype(r.UpdatedAt()),
		ExpectedVersion: int32(r.Version()),
	}
}

func reservationFromRow(row Reservations) (*reservation.Reservation, error) {
	period, err := reservation.NewStayPeriod(pgconv.DateFromPgtype(row.StartDate), pgconv.DateFromPgtype(row.EndDate))
	if err != nil {
		return nil, errs.Wrapf(err, "reservation %s has an invalid stay", row.ID)
	}

	state := reservation.State{
		Payment: reservation.PaymentStatus(row.PaymentStatus),
		Booking: reservation.BookingStatus(row.BookingStatus),
	}
	if !state.Payment.IsValid() || !state.Booking.IsValid() {
		return nil, errs.Newf("reservation %s has an unknown state %s", row.ID, state)
	}

	return reservation.ReconstructReservation(
		row.ID,
		row.UserID,
		row.RoomID,
		period,
		reservation.NewMoney(row.BookPriceCents),
		pgconv.TimeFromPgtype(row.BookDate),
		state,
		pgconv.StringFromPgtype(row.PaymentIntentID),
		int(row.Version),
		pgconv.TimeFromPgtype(row.UpdatedAt),
	), nil
}

func reservationsFromRows(rows []Reservations) ([]*reservation.Reservation, error) {
	out := make([]*reservation.Reservation, 0, len(rows))
	for _, row := range rows {
		r, err := reservationFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
