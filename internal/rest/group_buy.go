package rest

import (
	"context"
	"net/http"
	"time"

	"myGroupBuy/business/interaction"
	"myGroupBuy/domain"
	"myGroupBuy/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type GroupBuyService interface {
	ListOpen(ctx context.Context) ([]domain.GroupBuy, error)
	Get(ctx context.Context, id uint64) (domain.GroupBuy, error)
	Create(ctx context.Context, gb *domain.GroupBuy) (*domain.GroupBuy, error)
	Update(ctx context.Context, gb *domain.GroupBuy) (*domain.GroupBuy, error)
	Cancel(ctx context.Context, id uint64) error
	Join(ctx context.Context, userID uint, groupBuyID uint64, quantity int) (domain.Contribution, error)
}

type GroupBuyHandler struct {
	groupBuyService GroupBuyService
	tracker         InteractionTracker
	validator       *validator.Validate
	timeout         time.Duration
}

func NewGroupBuyHandler(svc GroupBuyService, tracker InteractionTracker) *GroupBuyHandler {
	return &GroupBuyHandler{
		groupBuyService: svc,
		tracker:         tracker,
		validator:       validator.New(),
		timeout:         10 * time.Second,
	}
}

type GroupBuyRequest struct {
	ProductID    uint64    `json:"product_id"`
	Title        string    `json:"title" validate:"required"`
	Category     string    `json:"category" validate:"required"`
	Description  string    `json:"description"`
	LocationZone string    `json:"location_zone"`
	UnitPrice    float64   `json:"unit_price" validate:"gt=0"`
	BulkPrice    float64   `json:"bulk_price" validate:"gte=0"`
	MOQ          int       `json:"moq" validate:"gt=0"`
	Deadline     time.Time `json:"deadline" validate:"required"`
}

func (r GroupBuyRequest) toDomain() *domain.GroupBuy {
	return &domain.GroupBuy{
		ProductID:    r.ProductID,
		Title:        r.Title,
		Category:     r.Category,
		Description:  r.Description,
		LocationZone: r.LocationZone,
		UnitPrice:    r.UnitPrice,
		BulkPrice:    r.BulkPrice,
		MOQ:          r.MOQ,
		Deadline:     r.Deadline,
	}
}

// JoinRequest optionally names the recommendation that led to the join.
type JoinRequest struct {
	Quantity int    `json:"quantity" validate:"gt=0"`
	EventID  string `json:"event_id"`
}

func (h *GroupBuyHandler) ListOpen(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	gbs, err := h.groupBuyService.ListOpen(ctx)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(gbs))
}

func (h *GroupBuyHandler) Get(c echo.Context) error {
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid group-buy id"})
	}

	gb, err := h.groupBuyService.Get(c.Request().Context(), id)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(gb))
}

func (h *GroupBuyHandler) Create(c echo.Context) error {
	var req GroupBuyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	gb, err := h.groupBuyService.Create(c.Request().Context(), req.toDomain())
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(gb))
}

func (h *GroupBuyHandler) Update(c echo.Context) error {
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid group-buy id"})
	}

	var req GroupBuyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	gb := req.toDomain()
	gb.ID = id
	updated, err := h.groupBuyService.Update(c.Request().Context(), gb)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK(updated))
}

func (h *GroupBuyHandler) Cancel(c echo.Context) error {
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid group-buy id"})
	}

	if err := h.groupBuyService.Cancel(c.Request().Context(), id); err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(http.StatusOK, fres.Response.StatusOK("group-buy cancelled"))
}

// POST /api/v1/group-buys/:id/join
func (h *GroupBuyHandler) Join(c echo.Context) error {
	userID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}
	id, err := pathUint(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid group-buy id"})
	}

	var req JoinRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	contribution, err := h.groupBuyService.Join(c.Request().Context(), userID, id, req.Quantity)
	if err != nil {
		return errorJSON(c, err)
	}

	// the join itself succeeded, tracking is best effort
	if req.EventID != "" && h.tracker != nil {
		if err := h.tracker.Track(c.Request().Context(), userID, req.EventID, interaction.KindJoined); err != nil {
			logger.Warn("failed to track recommended join", "event_id", req.EventID, "user_id", userID, "error", err)
		}
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(contribution))
}
