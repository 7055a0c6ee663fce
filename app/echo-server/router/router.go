package router

import (
	"myGroupBuy/internal/middleware"
	"myGroupBuy/internal/rest"

	"github.com/labstack/echo/v4"
)

func SetRecommendationRoutes(api *echo.Group, handler *rest.RecommendationHandler, authRequired echo.MiddlewareFunc) {
	reco := api.Group("/recommendations", authRequired, middleware.TraceID())
	reco.GET("", handler.Recommend, middleware.RecommendMetrics("recommend"))
	reco.GET("/debug", handler.DebugRecommend, middleware.RecommendMetrics("recommend_debug"))
	reco.POST("/interactions", handler.Interaction)
}

func SetGroupBuyRoutes(api *echo.Group, handler *rest.GroupBuyHandler, authRequired echo.MiddlewareFunc) {
	groupBuys := api.Group("/group-buys", authRequired)

	groupBuys.GET("", handler.ListOpen)
	groupBuys.GET("/:id", handler.Get)
	groupBuys.POST("/:id/join", handler.Join, middleware.TraceID())

	groupBuys.POST("", handler.Create, middleware.SupplierOrAdmin())
	groupBuys.PUT("/:id", handler.Update, middleware.SupplierOrAdmin())
	groupBuys.DELETE("/:id", handler.Cancel, middleware.SupplierOrAdmin())
}

func SetRecommendationAdminRoutes(api *echo.Group, handler *rest.RecommendationAdminHandler, authRequired echo.MiddlewareFunc) {
	admin := api.Group("/admin/recommendations", authRequired, middleware.AdminOnly())

	admin.POST("/train", handler.Train)
	admin.GET("/artifacts", handler.ListArtifacts)
	admin.POST("/artifacts/:version/activate", handler.ActivateArtifact)
	admin.GET("/config", handler.GetConfig)
	admin.PUT("/config", handler.UpsertConfig)
	admin.GET("/users/:id/features", handler.GetFeatures)

	// users may look at their own segment
	api.GET("/users/:id/cluster", handler.GetCluster, authRequired, middleware.SelfOrAdmin())
}

func SetupUserRoutes(api *echo.Group, handler *rest.UserHandler, authRequired echo.MiddlewareFunc) {
	users := api.Group("/users", authRequired)

	users.POST("", handler.Register, middleware.AdminOnly())
	users.GET("", handler.GetAllUsers, middleware.AdminOnly())
	users.GET("/:id", handler.GetUserByID, middleware.SelfOrAdmin())
	users.PUT("/:id/profile", handler.UpdateProfile, middleware.SelfOrAdmin())
}
