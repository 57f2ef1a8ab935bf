package api

import (
	stdhttp "net/http"

	intconfig "backoffice/internal/config"
	h "backoffice/internal/http/handlers"
	"backoffice/internal/http/middleware"
	"backoffice/internal/repositories"
	"backoffice/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func NewRouter(env intconfig.Env) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS())

	if err := r.SetTrustedProxies(nil); err != nil {
		log.Warn().Err(err).Msg("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	organizer := services.NewOrganizer(repositories.MySQLStore{}, env.TagColors)
	manifest := h.ManifestHandler{Org: organizer}

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", h.DBCheck)

		trips := api.Group("/trips")
		trips.GET("/:id/manifest", manifest.GetManifest)
		trips.GET("/:id/manifest/pdf", manifest.GetManifestPDF)
		trips.PUT("/:id/manifest/order", manifest.Reorder)
		trips.POST("/:id/manifest/order/sync", manifest.SyncOrder)
		trips.POST("/:id/manifest/move", manifest.Move)
		trips.POST("/:id/dispatch/selection", manifest.Selection)
		trips.POST("/:id/dispatch/assign", manifest.BulkAssign)

		bookings := api.Group("/bookings")
		bookings.POST("/:id/link", manifest.Link)
		bookings.POST("/:id/unlink", manifest.Unlink)
		bookings.PUT("/:id/tag", manifest.SetTag)
		bookings.POST("/:id/seat", manifest.BindSeat)
		bookings.DELETE("/:id/seat", manifest.UnbindSeat)

		vehicles := api.Group("/vehicles")
		vehicles.GET("/:id/seat-map", manifest.SeatMap)
	}

	return r
}
