package api

import (
	"io"
	"log/slog"
	"net/http"

	reqdto "hotel-booking/internal/handler/dto/request"
	resdto "hotel-booking/internal/handler/dto/response"
	"hotel-booking/internal/handler/httperr"
	"hotel-booking/internal/handler/middleware"
	"hotel-booking/internal/pkg/errs"
	"hotel-booking/internal/usecase/commands"

	"github.com/gin-gonic/gin"
)

// Stripe caps event payloads well below this.
const maxWebhookBodyBytes = 64 << 10

var errUnauthenticated = errs.New("user identity missing from context")

type CheckoutHandler struct {
	payments commands.PaymentCommands
	webhooks commands.WebhookCommands
	logger   *slog.Logger
}

func NewCheckoutHandler(payments commands.PaymentCommands, webhooks commands.WebhookCommands, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{payments: payments, webhooks: webhooks, logger: logger}
}

// @Summary Create payment intent
// @Description Validate a booking request and open a payment intent for it. The reservation is created once the gateway confirms the intent.
// @Tags checkout
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Forwarded to the payment gateway"
// @Param request body reqdto.CreatePaymentIntentRequest true "Booking request"
// @Success 200 {object} resdto.CreatePaymentIntentResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /api/checkout/create-payment-intent [post]
func (h *CheckoutHandler) CreatePaymentIntent(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.Abort(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized")
		return
	}

	var req reqdto.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httperr.Abort(c, http.StatusBadRequest, err, "Invalid request")
		return
	}

	in, err := req.ToInput(c.GetHeader("Idempotency-Key"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", err.Error())
		return
	}

	clientSecret, err := h.payments.CreateIntent(c.Request.Context(), in, userID)
	if err != nil {
		switch {
		case errs.Is(err, commands.ErrInvalidDateRange):
			httperr.Abort(c, http.StatusBadRequest, err, "Invalid date range")
		case errs.Is(err, commands.ErrInvalidPrice):
			httperr.Abort(c, http.StatusBadRequest, err, "Invalid book price")
		default:
			h.logger.Error("create payment intent failed", slog.Int64("user_id", userID), slog.String("error", err.Error()))
			httperr.Abort(c, http.StatusInternalServerError, err, "Failed to create payment intent")
		}
		return
	}

	c.JSON(http.StatusOK, resdto.CreatePaymentIntentResponse{ClientSecret: clientSecret})
}

// @Summary Payment webhook
// @Description Receives signed payment gateway events and reconciles reservations with them.
// @Tags checkout
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Gateway signature"
// @Success 200 {object} resdto.WebhookResponse
// @Failure 400 {object} httperr.Response
// @Failure 500 {object} httperr.Response
// @Router /api/checkout/webhook [post]
func (h *CheckoutHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		httperr.Abort(c, http.StatusBadRequest, err, "Unreadable body")
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		signature = c.GetHeader("X-Signature")
	}

	outcome, err := h.webhooks.Receive(c.Request.Context(), payload, signature)
	if err != nil {
		switch {
		case errs.Is(err, commands.ErrSignatureInvalid):
			httperr.Abort(c, http.StatusBadRequest, err, "Invalid signature")
		case errs.Is(err, commands.ErrMalformedEvent):
			httperr.Abort(c, http.StatusBadRequest, err, "Malformed event")
		default:
			h.logger.Error("webhook processing failed", slog.String("error", err.Error()))
			httperr.Abort(c, http.StatusInternalServerError, err, "Webhook processing failed")
		}
		return
	}

	if !outcome.Accepted && outcome.Kind != commands.OutcomeUnhandled {
		httperr.AbortWithError(c, http.StatusBadRequest, errs.New(outcome.Message), "Webhook rejected", outcome.Kind)
		return
	}

	c.JSON(http.StatusOK, resdto.FromEventOutcome(outcome))
}
