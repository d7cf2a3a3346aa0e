package metrics

import (
	"net/http"

	"github.com/Egor213/LogDash/pkg/postgres"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
)

func ConfigureRouter(handler *echo.Echo, stats func() postgres.Stats) {
	handler.GET("/metrics", echoprometheus.NewHandler())
	handler.GET("/healthz", func(c echo.Context) error {
		st := stats()
		return c.JSON(http.StatusOK, map[string]int{
			"capacity": st.Capacity,
			"leased":   st.Leased,
			"idle":     st.Idle,
		})
	})
}
