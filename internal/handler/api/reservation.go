package api

import (
	"log/slog"
	"net/http"
	"strconv"

	reqdto "hotel-booking/internal/handler/dto/request"
	resdto "hotel-booking/internal/handler/dto/response"
	"hotel-booking/internal/handler/httperr"
	"hotel-booking/internal/handler/middleware"
	"hotel-booking/internal/pkg/errs"
	"hotel-booking/internal/usecase/commands"
	"hotel-booking/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	cmds   commands.ReservationCommands
	q      queries.ReservationQueries
	logger *slog.Logger
}

func NewReservationHandler(cmds commands.ReservationCommands, q queries.ReservationQueries, logger *slog.Logger) *ReservationHandler {
	return &ReservationHandler{cmds: cmds, q: q, logger: logger}
}

func actorFrom(c *gin.Context) (queries.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return queries.Actor{}, false
	}
	role, _ := middleware.GetUserRole(c)
	return queries.Actor{ID: userID, Role: role}, true
}

// @Summary Get reservation
// @Description Get one of the caller's reservations. Managers may read any reservation.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Router /api/reservations/{id} [get]
func (h *ReservationHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		httperr.Abort(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.Abort(c, http.StatusBadRequest, err, "Invalid id")
		return
	}

	view, err := h.q.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		switch {
		case errs.Is(err, queries.ErrReservationNotFound):
			httperr.Abort(c, http.StatusNotFound, err, "Reservation not found")
		case errs.Is(err, queries.ErrReservationAccessDenied):
			httperr.Abort(c, http.StatusForbidden, err, "Forbidden")
		default:
			httperr.Abort(c, http.StatusInternalServerError, err, "Internal error")
		}
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

// @Summary List my reservations
// @Description Newest first, keyset paginated.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param after query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-200)"
// @Success 200 {object} resdto.ReservationListResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Router /api/reservations [get]
func (h *ReservationHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.Abort(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized")
		return
	}
	h.list(c, userID)
}

// @Summary List a guest's reservations
// @Description Manager view of another user's reservations.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Param after query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-200)"
// @Success 200 {object} resdto.ReservationListResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Router /api/users/{userId}/reservations [get]
func (h *ReservationHandler) ListByUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil || userID <= 0 {
		httperr.Abort(c, http.StatusBadRequest, errs.Newf("invalid user id %q", c.Param("userId")), "Invalid user id")
		return
	}
	h.list(c, userID)
}

func (h *ReservationHandler) list(c *gin.Context, userID int64) {
	var query reqdto.ListReservationsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		httperr.Abort(c, http.StatusBadRequest, err, "Invalid query")
		return
	}

	var after *queries.Cursor
	if query.After != "" {
		after = &queries.Cursor{After: query.After}
	}

	views, next, err := h.q.ListByUser(c.Request.Context(), userID, after, query.Limit)
	if err != nil {
		if errs.Is(err, queries.ErrInvalidCursor) {
			httperr.Abort(c, http.StatusBadRequest, err, "Invalid cursor")
			return
		}
		httperr.Abort(c, http.StatusInternalServerError, err, "Internal error")
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationViews(views, next))
}

// @Summary Cancel reservation
// @Description Cancel one of the caller's pending reservations.
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 400 {object} httperr.Response
// @Failure 401 {object} httperr.Response
// @Failure 403 {object} httperr.Response
// @Failure 404 {object} httperr.Response
// @Failure 409 {object} httperr.Response
// @Router /api/reservations/{id}/cancel [post]
func (h *ReservationHandler) Cancel(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		httperr.Abort(c, http.StatusUnauthorized, errUnauthenticated, "Unauthorized")
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.Abort(c, http.StatusBadRequest, err, "Invalid id")
		return
	}

	if err := h.cmds.CancelReservation(c.Request.Context(), id, actor.ID); err != nil {
		switch {
		case errs.Is(err, commands.ErrNotFound):
			httperr.Abort(c, http.StatusNotFound, err, "Reservation not found")
		case errs.Is(err, commands.ErrNotOwner):
			httperr.Abort(c, http.StatusForbidden, err, "Forbidden")
		case errs.Is(err, commands.ErrConflict):
			httperr.Abort(c, http.StatusConflict, err, "Reservation can no longer be cancelled")
		default:
			h.logger.Error("cancel reservation failed", slog.String("reservation_id", id.String()), slog.String("error", err.Error()))
			httperr.Abort(c, http.StatusInternalServerError, err, "Internal error")
		}
		return
	}

	view, err := h.q.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		httperr.Abort(c, http.StatusInternalServerError, err, "Failed to load reservation")
		return
	}
	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}
