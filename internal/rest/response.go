package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"myGroupBuy/business/groupbuy"
	"myGroupBuy/business/interaction"
	"myGroupBuy/business/recommendation"
	"myGroupBuy/business/user"
	"myGroupBuy/domain"

	"github.com/labstack/echo/v4"
)

type ResponseError struct {
	Message string `json:"message"`
}

// statusFor maps service errors onto HTTP codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrGroupBuyNotFound),
		errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, recommendation.ErrArtifactNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrGroupBuyClosed),
		errors.Is(err, domain.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, interaction.ErrInvalidKind),
		errors.Is(err, groupbuy.ErrInvalid),
		errors.Is(err, user.ErrInvalid),
		errors.Is(err, recommendation.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, recommendation.ErrUpstreamUnavailable),
		errors.Is(err, recommendation.ErrChecksumMismatch),
		errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorJSON(c echo.Context, err error) error {
	return c.JSON(statusFor(err), ResponseError{Message: err.Error()})
}

func currentUserID(c echo.Context) (uint, bool) {
	userID, ok := c.Get("user_id").(uint)
	return userID, ok
}

func pathUint(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
