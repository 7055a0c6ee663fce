package rest

import (
	"context"
	"net/http"
	"strconv"

	"myGroupBuy/business/recommendation"
	"myGroupBuy/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type RecommendationAdminService interface {
	Train(ctx context.Context) (domain.ModelArtifact, error)
	ListArtifacts(ctx context.Context, limit int) ([]domain.ModelArtifact, error)
	ActivateArtifact(ctx context.Context, version string) error
	Config(ctx context.Context) recommendation.Config
	UpdateConfig(ctx context.Context, row domain.RecommendationConfig) error
	ClusterOf(ctx context.Context, userID uint) (domain.ClusterAssignment, bool, error)
	Features(ctx context.Context, userID uint) (recommendation.UserFeatureVector, bool, error)
}

type RecommendationAdminHandler struct {
	svc RecommendationAdminService
}

func NewRecommendationAdminHandler(svc RecommendationAdminService) *RecommendationAdminHandler {
	return &RecommendationAdminHandler{svc: svc}
}

// POST /api/v1/admin/recommendations/train
func (h *RecommendationAdminHandler) Train(c echo.Context) error {
	rec, err := h.svc.Train(c.Request().Context())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(rec))
}

// GET /api/v1/admin/recommendations/artifacts?limit=20
func (h *RecommendationAdminHandler) ListArtifacts(c echo.Context) error {
	limit := 20
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid limit"})
		}
		limit = n
	}

	rows, err := h.svc.ListArtifacts(c.Request().Context(), limit)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(rows))
}

// POST /api/v1/admin/recommendations/artifacts/:version/activate
func (h *RecommendationAdminHandler) ActivateArtifact(c echo.Context) error {
	version := c.Param("version")
	if version == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "version is required"})
	}

	if err := h.svc.ActivateArtifact(c.Request().Context(), version); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(echo.Map{"active_version": version}))
}

// GET /api/v1/admin/recommendations/config
// returns the effective config after overrides
func (h *RecommendationAdminHandler) GetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, fres.Response.StatusOK(h.svc.Config(c.Request().Context())))
}

// PUT /api/v1/admin/recommendations/config
// body: RecommendationConfig JSON, zero fields keep the defaults
func (h *RecommendationAdminHandler) UpsertConfig(c echo.Context) error {
	var body domain.RecommendationConfig
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid body: " + err.Error()})
	}

	if err := h.svc.UpdateConfig(c.Request().Context(), body); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(h.svc.Config(c.Request().Context())))
}

// GET /api/v1/users/:id/cluster
func (h *RecommendationAdminHandler) GetCluster(c echo.Context) error {
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid user id"})
	}

	as, ok, err := h.svc.ClusterOf(c.Request().Context(), uint(id))
	if err != nil {
		return errorJSON(c, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "user has no cluster assignment"})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(as))
}

// GET /api/v1/admin/recommendations/users/:id/features
func (h *RecommendationAdminHandler) GetFeatures(c echo.Context) error {
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid user id"})
	}

	v, ok, err := h.svc.Features(c.Request().Context(), uint(id))
	if err != nil {
		return errorJSON(c, err)
	}
	if !ok {
		return c.JSON(http.StatusNotFound, ResponseError{Message: "no cached features for user"})
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(v))
}
