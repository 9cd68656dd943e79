package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rideshare-inventory/internal/model"
	"github.com/iliyamo/rideshare-inventory/internal/repository"
)

type NotificationHandler struct {
	Inbox NotificationInbox
	Log   *slog.Logger
}

func NewNotificationHandler(inbox NotificationInbox, log *slog.Logger) *NotificationHandler {
	return &NotificationHandler{Inbox: inbox, Log: log}
}

// List handles GET /v1/notifications?limit=N.
func (h *NotificationHandler) List(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	list, err := h.Inbox.ListByUser(c.Request().Context(), uid, limit)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if list == nil {
		list = []model.Notification{}
	}
	return c.JSON(http.StatusOK, list)
}

// MarkRead handles PATCH /v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid notification id")
	}
	if err := h.Inbox.MarkRead(c.Request().Context(), id, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fail(c, http.StatusNotFound, "not_found", "notification not found")
		}
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
