package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/handmade_market/internal/logging"
	"github.com/Skotchmaster/handmade_market/internal/mykafka"
)

type Response struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// errorResponse renders the error envelope. Server-side failures are
// logged and answered generically; driver and ORM messages stay out of
// the response body.
func errorResponse(c echo.Context, code int, err error) error {
	msg := err.Error()
	if code >= http.StatusInternalServerError {
		logging.FromContext(c.Request().Context()).Error("request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
		msg = "something went wrong, please try again"
	}
	return c.JSON(code, Response{
		Status:  "error",
		Message: msg,
	})
}

// stepRedirect is the JSON equivalent of a flash-and-redirect: wizard and
// cart preconditions answer 303 with the page the client should go to.
func stepRedirect(c echo.Context, location, message string) error {
	return c.JSON(http.StatusSeeOther, echo.Map{
		"redirect": location,
		"message":  message,
	})
}

// validationFailed reports missing form fields and echoes the submitted
// input back so the client can re-render the form.
func validationFailed(c echo.Context, missing []string, form any) error {
	return c.JSON(http.StatusBadRequest, echo.Map{
		"status": "error",
		"errors": missing,
		"form":   form,
	})
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func paramID(c echo.Context) (uint, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return uint(id), nil
}

func publish(c echo.Context, producer *mykafka.Producer, topic string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := producer.PublishEvent(ctx, topic, fmt.Sprint(event["userID"]), event); err != nil {
		logging.FromContext(ctx).Error("kafka publish failed", "topic", topic, "error", err)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
