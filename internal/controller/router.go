package controller

import (
	"tender-aggregator-api/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutesHandlers(handler *echo.Echo, services *service.Services) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	api := handler.Group("/api")
	newDiagnosticRoutesHandler(api, services)
	newTenderRoutesHandler(api, services, validate, services.Downloader)

	handler.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}
