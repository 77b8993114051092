package controller

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo"
)

// LoadProgress is the downloader's readable estimate surface.
type LoadProgress interface {
	TimeLeft() time.Duration
}

const unavailableBody = "The application has to load all tenders first - please wait just a moment."

// unavailableWhileLoading rejects requests with 503 and a Retry-After
// hint while the initial tender load is still in progress.
func unavailableWhileLoading(progress LoadProgress) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			timeLeft := progress.TimeLeft()
			if timeLeft > 0 {
				retryAfter := strconv.FormatFloat(timeLeft.Seconds(), 'f', 0, 64)
				c.Response().Header().Set("Retry-After", retryAfter)

				return c.String(http.StatusServiceUnavailable, unavailableBody)
			}

			return next(c)
		}
	}
}
