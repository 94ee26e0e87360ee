// Package httpapi assembles the catalog HTTP API.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bookstore/internal/config"
	"bookstore/internal/microservices/http-api/handler"
	"bookstore/internal/microservices/http-api/middleware"
	"bookstore/internal/microservices/http-api/repository"
	"bookstore/internal/microservices/http-api/service"
)

// Deps are the resources the router wires into repositories and services.
// Cache may be nil.
type Deps struct {
	DB     *gorm.DB
	Config *config.Config
	Logger *slog.Logger
	Cache  *repository.BookCache
}

func NewRouter(d Deps) *gin.Engine {
	handler.RegisterValidation()

	userRepo := repository.NewUserRepository(d.DB)
	bookRepo := repository.NewBookRepository(d.DB)
	relationRepo := repository.NewRelationRepository(d.DB)

	authService := service.NewAuthService(userRepo, d.Config, d.Logger)
	bookService := service.NewBookService(bookRepo, d.Cache, d.Logger)
	relationService := service.NewRelationService(d.DB, relationRepo, bookRepo, d.Cache, d.Logger)

	r := gin.New()
	// ClientIP keys the rate limiter; only listed proxies may set X-Forwarded-For.
	if err := r.SetTrustedProxies(d.Config.TrustedProxies); err != nil {
		d.Logger.Warn("ignoring invalid trusted proxies", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(d.Logger))
	r.Use(middleware.NewRateLimiter(d.Config.RateLimitRPS, d.Config.RateLimitBurst).Middleware())

	r.GET("/check-conn", checkConn(d.DB))

	api := r.Group("/api")
	api.Use(middleware.Authenticate(authService))

	handler.NewAuthHandler(authService).RegisterRoutes(api.Group("/auth"))
	handler.NewBookHandler(bookService).RegisterRoutes(api.Group("/books"))
	handler.NewRelationHandler(relationService).RegisterRoutes(api.Group("/book_relation"))

	return r
}

func checkConn(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"detail": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "API is alive and database connected"})
	}
}
