package rest

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/fourinarow-backend/internal/usecase"
)

type HealthHandler interface {
	Health(ctx echo.Context) error
	Ping(ctx echo.Context) error
}

type snapshotter interface {
	Snapshot() usecase.Snapshot
}

type healthHandler struct {
	manager snapshotter
}

func NewHealth(manager snapshotter) HealthHandler {
	return &healthHandler{
		manager: manager,
	}
}

type healthResponse struct {
	Status string `json:"status"`
	usecase.Snapshot
}

func (that *healthHandler) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, healthResponse{
		Status:   "ok",
		Snapshot: that.manager.Snapshot(),
	})
}

func (that *healthHandler) Ping(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "pong")
}
