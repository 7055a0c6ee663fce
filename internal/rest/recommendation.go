package rest

import (
	"context"
	"net/http"

	"myGroupBuy/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type (
	RecommendationHandler struct {
		validate *validator.Validate
		recoSvc  RecommendationService
		tracker  InteractionTracker
	}

	RecommendationService interface {
		Recommend(ctx context.Context, userID uint, k int) ([]domain.Recommendation, error)
		DebugRecommend(ctx context.Context, userID uint, k int) ([]domain.DebugRecommendation, error)
	}

	InteractionTracker interface {
		Track(ctx context.Context, userID uint, eventID, kind string) error
	}

	RecommendQuery struct {
		K int `query:"k" validate:"gte=0"`
	}

	InteractionRequest struct {
		EventID string `json:"event_id" validate:"required"`
		Kind    string `json:"kind" validate:"required,oneof=clicked joined"`
	}
)

func NewRecommendationHandler(svc RecommendationService, tracker InteractionTracker) *RecommendationHandler {
	return &RecommendationHandler{
		validate: validator.New(),
		recoSvc:  svc,
		tracker:  tracker,
	}
}

// GET /api/v1/recommendations?k=10
func (h *RecommendationHandler) Recommend(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var q RecommendQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	recs, err := h.recoSvc.Recommend(c.Request().Context(), userID, q.K)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}

// GET /api/v1/recommendations/debug?k=10
func (h *RecommendationHandler) DebugRecommend(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var q RecommendQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	recs, err := h.recoSvc.DebugRecommend(c.Request().Context(), userID, q.K)
	if err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(recs))
}

// POST /api/v1/recommendations/interactions
func (h *RecommendationHandler) Interaction(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req InteractionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.tracker.Track(c.Request().Context(), userID, req.EventID, req.Kind); err != nil {
		return errorJSON(c, err)
	}

	return c.JSON(http.StatusAccepted, fres.Response.StatusOK("interaction recorded"))
}
