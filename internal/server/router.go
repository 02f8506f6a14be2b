package server

import (
	"net/http"
	"time"

	"timed-auction/internal/metrics"
	"timed-auction/services/auction/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps holds what the router needs. Rooms and Gatherer may be nil.
type Deps struct {
	Service  handler.AuctionServiceInterface
	Rooms    handler.RoomServer
	Window   time.Duration
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(d Deps) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging
	router.Use(MetricsMiddleware(d.Metrics))

	auctionHandler := handler.NewAuctionHandler(d.Service, d.Rooms, d.Window)

	goods := router.Group("/goods")
	{
		goods.POST("", auctionHandler.CreateListingHandler)
		goods.GET("", auctionHandler.ListActiveHandler)
		goods.GET("/:good_id", auctionHandler.GetListingHandler)
		goods.GET("/:good_id/bids", auctionHandler.GetBidsHandler)
		goods.POST("/:good_id/bids", auctionHandler.PlaceBidHandler)
		goods.GET("/:good_id/ws", auctionHandler.RoomHandler)
	}

	users := router.Group("/users")
	{
		users.GET("/:user_id", auctionHandler.GetUserHandler)
		users.GET("/:user_id/won", auctionHandler.ListWonHandler)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	return router
}
