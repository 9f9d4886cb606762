package api

import (
	"fmt"
	"net/http"

	"cinebook/internal/broadcast"
	"cinebook/internal/cache"
	"cinebook/internal/config"
	"cinebook/internal/database"
	"cinebook/internal/external"
	"cinebook/internal/handlers"
	"cinebook/internal/logger"
	"cinebook/internal/messaging"
	"cinebook/internal/middleware"
	"cinebook/internal/repository"
	"cinebook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server is the booking API process: HTTP surface, storage, messaging
// and the availability fanout wired together.
type Server struct {
	router      *gin.Engine
	config      *config.Config
	db          *database.DB
	nats        *messaging.NATSClient
	redis       *cache.Client
	services    *service.Services
	repos       *repository.Repositories
	broadcaster *broadcast.Broadcaster
}

func NewServer(cfg *config.Config) *Server {
	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", "error", err)
	}

	if err := db.RunMigrations(); err != nil {
		logger.Fatal("failed to run migrations", "error", err)
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		logger.Fatal("failed to connect to NATS", "error", err)
	}

	redisClient, err := cache.NewClient(cfg.Redis)
	if err != nil {
		logger.Fatal("failed to connect to Redis", "error", err)
	}

	paymentClient := external.NewPaymentClient(cfg.Payment)

	repos := repository.NewRepositories(db)
	services := service.NewServices(repos, natsClient, redisClient, paymentClient, cfg.Booking)

	broadcaster := broadcast.New()
	if err := broadcaster.Start(natsClient); err != nil {
		logger.Fatal("failed to start availability broadcaster", "error", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	server := &Server{
		router:      router,
		config:      cfg,
		db:          db,
		nats:        natsClient,
		redis:       redisClient,
		services:    services,
		repos:       repos,
		broadcaster: broadcaster,
	}

	server.setupRoutes()

	return server
}

func (s *Server) setupRoutes() {
	h := handlers.NewHandlers(s.services, s.broadcaster)

	api := s.router.Group("/api")
	{
		shows := api.Group("/shows")
		{
			shows.POST("", h.CreateShow)
			shows.GET("", h.ListShows)
			shows.GET("/:id/seats", h.GetSeatMap)
			shows.GET("/:id/availability", h.GetAvailability)
			shows.GET("/:id/stream", h.StreamAvailability)
		}

		// Holds and bookings are owned by an actor; these routes require
		// the X-Actor-ID header.
		holds := api.Group("/holds")
		holds.Use(middleware.Actor())
		{
			holds.POST("", h.CreateHold)
			holds.POST("/:token/extend", h.ExtendHold)
			holds.DELETE("/:token", h.ReleaseHold)
		}

		bookings := api.Group("/bookings")
		bookings.Use(middleware.Actor())
		{
			bookings.POST("", h.SubmitBooking)
			bookings.GET("", h.ListBookings)
			bookings.POST("/cancel", h.CancelBooking)
		}
	}

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/health", s.healthCheck)
}

func (s *Server) healthCheck(c *gin.Context) {
	dbHealth := s.db.HealthCheck(c.Request.Context())
	if dbHealth.Status != "healthy" {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "degraded",
			"database": dbHealth,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "cinebook-api",
		"version":  "1.0.0",
		"database": dbHealth,
	})
}

// Run starts the HTTP server
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%s", s.config.Port)
	return s.router.Run(addr)
}

// GetRouter exposes the router for tests
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// Cleanup closes the outbound connections
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			logger.Get().Error("error closing NATS connection", "error", err)
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logger.Get().Error("error closing Redis connection", "error", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			logger.Get().Error("error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
