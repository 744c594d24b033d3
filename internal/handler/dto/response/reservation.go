package response

import (
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/usecase/queries"

	"github.com/google/uuid"
)

type ReservationResponse struct {
	ID              uuid.UUID `json:"id"`
	UserID          int64     `json:"userId"`
	RoomID          int64     `json:"roomId"`
	StartDate       string    `json:"startDate"`
	EndDate         string    `json:"endDate"`
	BookPrice       string    `json:"bookPrice"`
	BookDate        time.Time `json:"bookDate"`
	PaymentStatus   string    `json:"paymentStatus"`
	BookingStatus   string    `json:"bookingStatus"`
	PaymentIntentID string    `json:"paymentIntentId,omitempty"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type ReservationListResponse struct {
	Items      []*ReservationResponse `json:"items"`
	NextCursor string                 `json:"nextCursor,omitempty"`
}

func FromReservationView(v *queries.ReservationView) *ReservationResponse {
	return &ReservationResponse{
		ID:              v.ID,
		UserID:          v.UserID,
		RoomID:          v.RoomID,
		StartDate:       v.StartDate.Format(reservation.DateLayout),
		EndDate:         v.EndDate.Format(reservation.DateLayout),
		BookPrice:       reservation.NewMoney(v.BookPriceCents).String(),
		BookDate:        v.BookDate,
		PaymentStatus:   v.PaymentStatus,
		BookingStatus:   v.BookingStatus,
		PaymentIntentID: v.PaymentIntentID,
		UpdatedAt:       v.UpdatedAt,
	}
}

func FromReservationViews(views []*queries.ReservationView, next *queries.Cursor) *ReservationListResponse {
	items := make([]*ReservationResponse, len(views))
	for i, v := range views {
		items[i] = FromReservationView(v)
	}
	resp := &ReservationListResponse{Items: items}
	if next != nil {
		resp.NextCursor = next.After
	}
	return resp
}
