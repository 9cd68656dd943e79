package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rideshare-inventory/internal/inventory"
	"github.com/iliyamo/rideshare-inventory/internal/model"
	"github.com/iliyamo/rideshare-inventory/internal/repository"
)

// VehicleHandler manages the vehicles a driver can publish rides with.
type VehicleHandler struct {
	Inv      Inventory
	Vehicles VehicleDirectory
	Log      *slog.Logger
}

func NewVehicleHandler(inv Inventory, vehicles VehicleDirectory, log *slog.Logger) *VehicleHandler {
	return &VehicleHandler{Inv: inv, Vehicles: vehicles, Log: log}
}

// Create handles POST /v1/vehicles.
func (h *VehicleHandler) Create(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req struct {
		VehicleNumber string `json:"vehicle_number"`
		Model         string `json:"model"`
		Seats         int    `json:"seats"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if strings.TrimSpace(req.VehicleNumber) == "" || strings.TrimSpace(req.Model) == "" {
		return badRequest(c, "vehicle_number and model are required")
	}
	if req.Seats < 1 {
		return badRequest(c, "seats must be at least 1")
	}
	v := model.Vehicle{UserID: uid, VehicleNumber: req.VehicleNumber, Model: strings.TrimSpace(req.Model), Seats: req.Seats}
	if err := h.Vehicles.Create(c.Request().Context(), &v); err != nil {
		if errors.Is(err, repository.ErrVehicleExists) {
			return fail(c, http.StatusConflict, "vehicle_exists", "vehicle number already registered")
		}
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// Mine handles GET /v1/vehicles/mine. With ride_date and ride_time it
// lists only the vehicles free for a ride departing then.
func (h *VehicleHandler) Mine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	ctx := c.Request().Context()
	list, err := h.Vehicles.ListByUser(ctx, uid)
	if err != nil {
		return respondError(c, h.Log, err)
	}

	date, clock := c.QueryParam("ride_date"), c.QueryParam("ride_time")
	if date != "" && clock != "" {
		at, err := departure(date, clock)
		if err != nil {
			return badRequest(c, "ride_date must be YYYY-MM-DD and ride_time HH:MM")
		}
		free := list[:0]
		for _, v := range list {
			ok, err := h.Inv.VehicleAvailable(ctx, v.ID, at)
			if err != nil {
				return respondError(c, h.Log, err)
			}
			if ok {
				free = append(free, v)
			}
		}
		list = free
	}
	if len(list) == 0 {
		return c.JSON(http.StatusOK, []model.Vehicle{})
	}
	return c.JSON(http.StatusOK, list)
}

// Delete handles DELETE /v1/vehicles/:id.
func (h *VehicleHandler) Delete(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, ok := parseID(c, "id")
	if !ok {
		return badRequest(c, "invalid vehicle id")
	}
	err = h.Vehicles.Delete(c.Request().Context(), id, uid)
	switch {
	case err == nil:
		return c.NoContent(http.StatusNoContent)
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, http.StatusNotFound, inventory.KindNotFound.String(), "vehicle not found")
	case errors.Is(err, repository.ErrForbidden):
		return fail(c, http.StatusForbidden, inventory.KindForbidden.String(), "not your vehicle")
	case errors.Is(err, repository.ErrConflict):
		return fail(c, http.StatusConflict, inventory.KindVehicleConflict.String(), "vehicle is still referenced by rides")
	}
	return respondError(c, h.Log, err)
}
