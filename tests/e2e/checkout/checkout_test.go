//go:build e2e

package checkout_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"hotel-booking/internal/domain/reservation"
	"hotel-booking/internal/domain/user"
	reqdto "hotel-booking/internal/handler/dto/request"
	resdto "hotel-booking/internal/handler/dto/response"
	"hotel-booking/internal/usecase/commands"
	"hotel-booking/tests/common/authtest"
	"hotel-booking/tests/common/dbtest"
	"hotel-booking/tests/common/httptest"
	"hotel-booking/tests/e2e"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const (
	createIntentURL = "/api/checkout/create-payment-intent"
	webhookURL      = "/api/checkout/webhook"
	reservationsURL = "/api/reservations"
	userListURL     = "/api/users/%d/reservations"
)

type CheckoutSuite struct {
	e2e.SharedSuite
	jwt *authtest.JWTHelper
}

func (s *CheckoutSuite) SetupSuite() {
	s.SharedSuite.SetupSuite()
	s.jwt = authtest.NewJWTHelper(s.Config.JWT)
}

func (s *CheckoutSuite) SetupSubTest() {
	s.SharedSuite.SetupSubTest()
}

func TestCheckoutSuite(t *testing.T) {
	t.Parallel()
	suite.Run(t, new(CheckoutSuite))
}

type guest struct {
	id    int64
	token string
}

func (s *CheckoutSuite) newGuest(email string) guest {
	id := dbtest.CreateTestUser(s.T(), s.DB, email, string(user.RoleGuest))
	return guest{id: id, token: s.jwt.GenerateToken(s.T(), id, user.RoleGuest)}
}

func stayRequest(roomID int64, startOffset, nights int) reqdto.CreatePaymentIntentRequest {
	today := reservation.DateOf(time.Now())
	return reqdto.CreatePaymentIntentRequest{
		RoomID:    roomID,
		StartDate: today.AddDate(0, 0, startOffset).Format(reservation.DateLayout),
		EndDate:   today.AddDate(0, 0, startOffset+nights).Format(reservation.DateLayout),
		BookPrice: 240.50,
	}
}

// openIntent creates a payment intent through the API and returns its id and metadata.
func (s *CheckoutSuite) openIntent(g guest, req reqdto.CreatePaymentIntentRequest) (string, map[string]string) {
	t := s.T()
	w := httptest.PerformRequest(t, s.Router, http.MethodPost, createIntentURL, req, g.token)

	var body resdto.CreatePaymentIntentResponse
	httptest.AssertSuccessResponse(t, w, http.StatusOK, &body)
	require.NotEmpty(t, body.ClientSecret)

	return s.Gateway.LastIntent(t)
}

func (s *CheckoutSuite) deliver(eventID, eventType, intentID string, metadata map[string]string) (int, map[string]any) {
	t := s.T()
	payload, sig := e2e.SignedIntentEvent(t, s.Config.Payment.WebhookSecret, eventID, eventType, intentID, metadata)
	w := httptest.PerformRawRequest(t, s.Router, http.MethodPost, webhookURL, payload, map[string]string{
		"Stripe-Signature": sig,
	})

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func (s *CheckoutSuite) getReservation(token, id string) (*resdto.ReservationResponse, int) {
	w := httptest.PerformRequest(s.T(), s.Router, http.MethodGet, reservationsURL+"/"+id, nil, token)
	if w.Code != http.StatusOK {
		return nil, w.Code
	}
	var res resdto.ReservationResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &res))
	return &res, w.Code
}

// =============================================================================
// TestPaymentFlow
// =============================================================================

func (s *CheckoutSuite) TestPaymentFlow() {
	s.Run("intent created then succeeded confirms the reservation", func() {
		t := s.T()
		g := s.newGuest("alice@example.com")
		roomID := dbtest.CreateTestRoom(t, s.DB, "Sea View 101")
		req := stayRequest(roomID, 1, 2)

		intentID, md := s.openIntent(g, req)
		require.Equal(t, "240.50", md[commands.MetaBookPrice])

		requests := s.Gateway.CreatedRequests()
		require.Len(t, requests, 1)
		require.Equal(t, int64(24050), requests[0].AmountMinor)
		require.Equal(t, "usd", requests[0].Currency)

		status, body := s.deliver("evt_created_1", "payment_intent.created", intentID, md)
		require.Equal(t, http.StatusOK, status, body)
		require.Equal(t, "applied", body["outcome"])

		attached := s.Gateway.Metadata(t, intentID)
		reservationID := attached[commands.MetaReservationID]
		require.NotEmpty(t, reservationID, "reservation id should be attached to the intent")

		pending, code := s.getReservation(g.token, reservationID)
		require.Equal(t, http.StatusOK, code)
		require.Equal(t, "Pending", pending.PaymentStatus)
		require.Equal(t, "Pending", pending.BookingStatus)

		status, body = s.deliver("evt_succeeded_1", "payment_intent.succeeded", intentID, attached)
		require.Equal(t, http.StatusOK, status, body)
		require.Equal(t, "applied", body["outcome"])

		got, code := s.getReservation(g.token, reservationID)
		require.Equal(t, http.StatusOK, code)

		want := &resdto.ReservationResponse{
			UserID:          g.id,
			RoomID:          roomID,
			StartDate:       req.StartDate,
			EndDate:         req.EndDate,
			BookPrice:       "240.50",
			PaymentStatus:   "Completed",
			BookingStatus:   "Confirmed",
			PaymentIntentID: intentID,
		}
		opts := cmpopts.IgnoreFields(resdto.ReservationResponse{}, "ID", "BookDate", "UpdatedAt")
		if diff := cmp.Diff(want, got, opts); diff != "" {
			t.Errorf("reservation mismatch (-want +got):\n%s", diff)
		}
	})

	s.Run("redelivered events do not create or change anything", func() {
		t := s.T()
		g := s.newGuest("bob@example.com")
		roomID := dbtest.CreateTestRoom(t, s.DB, "Garden 7")

		intentID, md := s.openIntent(g, stayRequest(roomID, 3, 1))

		status, _ := s.deliver("evt_created_2", "payment_intent.created", intentID, md)
		require.Equal(t, http.StatusOK, status)

		// Redelivery of the original payload, before the metadata update was visible.
		status, body := s.deliver("evt_created_2", "payment_intent.created", intentID, md)
		require.Equal(t, http.StatusOK, status, body)
		require.Equal(t, "duplicate", body["outcome"])

		// Redelivery after the metadata update.
		status, body = s.deliver("evt_created_2", "payment_intent.created", intentID, s.Gateway.Metadata(t, intentID))
		require.Equal(t, http.StatusOK, status, body)
		require.Equal(t, "duplicate", body["outcome"])

		require.Equal(t, 1, dbtest.CountReservations(t, s.DB, roomID))

		attached := s.Gateway.Metadata(t, intentID)
		for range 2 {
			status, body = s.deliver("evt_succeeded_2", "payment_intent.succeeded", intentID, attached)
			require.Equal(t, http.StatusOK, status, body)
		}
		got, _ := s.getReservation(g.token, attached[commands.MetaReservationID])
		require.Equal(t, "Confirmed", got.BookingStatus)
	})

	s.Run("payment failure cancels the reservation and is rejected", func() {
		t := s.T()
		g := s.newGuest("carol@example.com")
		roomID := dbtest.CreateTestRoom(t, s.DB, "Attic 3")

		intentID, md := s.openIntent(g, stayRequest(roomID, 5, 2))
		status, _ := s.deliver("evt_created_3", "payment_intent.created", intentID, md)
		require.Equal(t, http.StatusOK, status)

		attached := s.Gateway.Metadata(t, intentID)
		status, body := s.deliver("evt_failed_3", "payment_intent.payment_failed", intentID, attached)
		require.Equal(t, http.StatusBadRequest, status, body)
		require.Equal(t, string(commands.OutcomeFailed), body["detail"])

		got, _ := s.getReservation(g.token, attached[commands.MetaReservationID])
		require.Equal(t, "Failed", got.PaymentStatus)
		require.Equal(t, "Cancelled", got.BookingStatus)

		// A late redelivery of the original created event must not book the room again.
		status, body = s.deliver("evt_created_3", "payment_intent.created", intentID, md)
		require.Equal(t, http.StatusOK, status, body)
		require.Equal(t, "duplicate", body["outcome"])
		require.Equal(t, 1, dbtest.CountReservations(t, s.DB, roomID))

		// The room is free again.
		other := s.newGuest("dave@example.com")
		otherIntent, otherMD := s.openIntent(other, stayRequest(roomID, 5, 2))
		status, body = s.deliver("evt_created_3b", "payment_intent.created", otherIntent, otherMD)
		require.Equal(t, http.StatusOK, status, body)
		require.Equal(t, "applied", body["outcome"])
	})

	s.Run("second guest cannot take an overlapping stay", func() {
		t := s.T()
		first := s.newGuest("erin@example.com")
		second := s.newGuest("frank@example.com")
		roomID := dbtest.CreateTestRoom(t, s.DB, "Suite 1")

		intentA, mdA := s.openIntent(first, stayRequest(roomID, 10, 3))
		status, _ := s.deliver("evt_a", "payment_intent.created", intentA, mdA)
		require.Equal(t, http.StatusOK, status)

		// [11, 12) sits inside [10, 13).
		intentB, mdB := s.openIntent(second, stayRequest(roomID, 11, 1))
		status, body := s.deliver("evt_b", "payment_intent.created", intentB, mdB)
		require.Equal(t, http.StatusBadRequest, status, body)
		require.Equal(t, string(commands.OutcomeRejected), body["detail"])

		// Checkout day is free for the next guest.
		intentC, mdC := s.openIntent(second, stayRequest(roomID, 13, 2))
		status, body = s.deliver("evt_c", "payment_intent.created", intentC, mdC)
		require.Equal(t, http.StatusOK, status, body)

		require.Equal(t, 2, dbtest.CountReservations(t, s.DB, roomID))
	})

	s.Run("succeeded event for a cancelled reservation is rejected", func() {
		t := s.T()
		g := s.newGuest("grace@example.com")
		roomID := dbtest.CreateTestRoom(t, s.DB, "Loft 2")

		intentID, md := s.openIntent(g, stayRequest(roomID, 2, 2))
		status, _ := s.deliver("evt_created_5", "payment_intent.created", intentID, md)
		require.Equal(t, http.StatusOK, status)
		reservationID := s.Gateway.Metadata(t, intentID)[commands.MetaReservationID]

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL+"/"+reservationID+"/cancel", nil, g.token)
		var cancelled resdto.ReservationResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &cancelled)
		require.Equal(t, "Canceled", cancelled.PaymentStatus)
		require.Equal(t, "Cancelled", cancelled.BookingStatus)

		status, body := s.deliver("evt_succeeded_5", "payment_intent.succeeded", intentID, s.Gateway.Metadata(t, intentID))
		require.Equal(t, http.StatusBadRequest, status, body)

		got, _ := s.getReservation(g.token, reservationID)
		require.Equal(t, "Cancelled", got.BookingStatus)
	})
}

// =============================================================================
// TestWebhookRejections
// =============================================================================

func (s *CheckoutSuite) TestWebhookRejections() {
	s.Run("bad signature", func() {
		t := s.T()
		payload, sig := e2e.SignedIntentEvent(t, "whsec_wrong", "evt_x", "payment_intent.created", "pi_x", nil)

		w := httptest.PerformRawRequest(t, s.Router, http.MethodPost, webhookURL, payload, map[string]string{"Stripe-Signature": sig})
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid signature")
	})

	s.Run("missing signature", func() {
		t := s.T()
		payload, _ := e2e.SignedIntentEvent(t, s.Config.Payment.WebhookSecret, "evt_y", "payment_intent.created", "pi_y", nil)

		w := httptest.PerformRawRequest(t, s.Router, http.MethodPost, webhookURL, payload, nil)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid signature")
	})

	s.Run("created event without metadata", func() {
		status, body := s.deliver("evt_z", "payment_intent.created", "pi_z", map[string]string{})
		require.Equal(s.T(), http.StatusBadRequest, status, body)
		require.Equal(s.T(), string(commands.OutcomeMalformed), body["detail"])
	})

	s.Run("succeeded event for an unknown reservation", func() {
		md := map[string]string{commands.MetaReservationID: "6f1c2a9e-5d1b-4c7e-9a53-0f3c9d2b8e11"}
		status, body := s.deliver("evt_u", "payment_intent.succeeded", "pi_u", md)
		require.Equal(s.T(), http.StatusBadRequest, status, body)
		require.Equal(s.T(), string(commands.OutcomeNotFound), body["detail"])
	})

	s.Run("unhandled event type is acknowledged", func() {
		status, body := s.deliver("evt_w", "payment_intent.canceled", "pi_w", nil)
		require.Equal(s.T(), http.StatusOK, status, body)
		require.Equal(s.T(), "unhandled", body["outcome"])
	})
}

// =============================================================================
// TestCreatePaymentIntent
// =============================================================================

func (s *CheckoutSuite) TestCreatePaymentIntent() {
	s.Run("stay starting yesterday is rejected", func() {
		t := s.T()
		g := s.newGuest("henry@example.com")
		roomID := dbtest.CreateTestRoom(t, s.DB, "Basement")

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, createIntentURL, stayRequest(roomID, -1, 2), g.token)
		httptest.AssertErrorResponse(t, w, http.StatusBadRequest, "Invalid date range")
		require.Empty(t, s.Gateway.CreatedRequests())
	})

	s.Run("unauthenticated", func() {
		w := httptest.PerformRequest(s.T(), s.Router, http.MethodPost, createIntentURL, stayRequest(1, 1, 1), "")
		require.Equal(s.T(), http.StatusUnauthorized, w.Code)
	})

	s.Run("expired token", func() {
		t := s.T()
		g := s.newGuest("ivy@example.com")
		token := s.jwt.CreateExpiredToken(t, g.id, user.RoleGuest)

		w := httptest.PerformRequest(t, s.Router, http.MethodPost, createIntentURL, stayRequest(1, 1, 1), token)
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// =============================================================================
// TestListReservations
// =============================================================================

func (s *CheckoutSuite) TestListReservations() {
	s.Run("pages newest first and managers can read other guests", func() {
		t := s.T()
		g := s.newGuest("judy@example.com")
		managerID := dbtest.CreateTestUser(t, s.DB, "manager@example.com", string(user.RoleManager))
		managerToken := s.jwt.GenerateToken(t, managerID, user.RoleManager)

		for i := range 3 {
			roomID := dbtest.CreateTestRoom(t, s.DB, fmt.Sprintf("Room %d", i))
			intentID, md := s.openIntent(g, stayRequest(roomID, 1, 1))
			status, body := s.deliver(fmt.Sprintf("evt_list_%d", i), "payment_intent.created", intentID, md)
			require.Equal(t, http.StatusOK, status, body)
		}

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, reservationsURL+"?limit=2", nil, g.token)
		var first resdto.ReservationListResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &first)
		require.Len(t, first.Items, 2)
		require.NotEmpty(t, first.NextCursor)
		require.False(t, first.Items[0].BookDate.Before(first.Items[1].BookDate))

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, reservationsURL+"?limit=2&after="+first.NextCursor, nil, g.token)
		var second resdto.ReservationListResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &second)
		require.Len(t, second.Items, 1)
		require.Empty(t, second.NextCursor)

		w = httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(userListURL, g.id), nil, managerToken)
		var managed resdto.ReservationListResponse
		httptest.AssertSuccessResponse(t, w, http.StatusOK, &managed)
		require.Len(t, managed.Items, 3)

		// Managers can also open a single reservation of another guest.
		_, code := s.getReservation(managerToken, managed.Items[0].ID.String())
		require.Equal(t, http.StatusOK, code)
	})

	s.Run("guests cannot read other guests", func() {
		t := s.T()
		owner := s.newGuest("kim@example.com")
		other := s.newGuest("leo@example.com")
		roomID := dbtest.CreateTestRoom(t, s.DB, "Cabin")

		intentID, md := s.openIntent(owner, stayRequest(roomID, 1, 1))
		status, _ := s.deliver("evt_priv", "payment_intent.created", intentID, md)
		require.Equal(t, http.StatusOK, status)
		reservationID := s.Gateway.Metadata(t, intentID)[commands.MetaReservationID]

		_, code := s.getReservation(other.token, reservationID)
		require.Equal(t, http.StatusForbidden, code)

		w := httptest.PerformRequest(t, s.Router, http.MethodGet, fmt.Sprintf(userListURL, owner.id), nil, other.token)
		httptest.AssertErrorResponse(t, w, http.StatusForbidden, "Insufficient permissions")

		w = httptest.PerformRequest(t, s.Router, http.MethodPost, reservationsURL+"/"+reservationID+"/cancel", nil, other.token)
		require.Equal(t, http.StatusForbidden, w.Code)
	})
}
