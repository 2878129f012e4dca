package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/bloghub/internal/auth"
	"github.com/geocoder89/bloghub/internal/cache"
	"github.com/geocoder89/bloghub/internal/config"
	"github.com/geocoder89/bloghub/internal/http/handlers"
	"github.com/geocoder89/bloghub/internal/http/middlewares"
	"github.com/geocoder89/bloghub/internal/observability"
	"github.com/geocoder89/bloghub/internal/redisclient"
	"github.com/geocoder89/bloghub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB is plenty for blog payloads

// Deps carries the router's collaborators; Redis and Metrics are optional.
type Deps struct {
	Log     *slog.Logger
	Pool    *pgxpool.Pool
	Cfg     config.Config
	Redis   *redisclient.Client
	Metrics *observability.Prom
	Tracing bool
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	if d.Metrics != nil {
		r.Use(d.Metrics.GinHandleMiddleware())
	}

	if d.Tracing {
		r.Use(otelgin.Middleware("bloghub"))
	}

	// health + metrics
	pings := map[string]func() error{}

	if d.Pool != nil {
		pings["db"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()

			return d.Pool.Ping(ctx)
		}
	}

	if d.Redis != nil {
		pings["redis"] = func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
			defer cancel()

			return d.Redis.Ping(ctx)
		}
	}

	health := handlers.NewHealthHandler(pings)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	r.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "Blog API is running"})
	})

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(d.Pool, d.Metrics)
	postsRepo := postgres.NewPostsRepo(d.Pool, d.Metrics)
	commentsRepo := postgres.NewCommentsRepo(d.Pool, d.Metrics)

	jwtManager := auth.NewManager(d.Cfg.JWTSecret, d.Cfg.SessionTTL())
	guard := middlewares.NewAuthMiddleware(jwtManager, usersRepo, d.Cfg.SessionCookieName)

	postListCache := cache.New(5 * time.Second)

	// login attempts share a counter across processes when Redis is up
	var loginCounter middlewares.WindowCounter
	if d.Redis != nil {
		loginCounter = d.Redis
	}
	loginLimiter := middlewares.NewRateLimiter(d.Cfg.LoginRateLimit, d.Cfg.LoginRateWindow, loginCounter)

	authHandler := handlers.NewAuthHandler(usersRepo, jwtManager, d.Cfg, d.Metrics)
	usersHandler := handlers.NewUsersHandler(usersRepo, guard, postListCache)
	postsHandler := handlers.NewPostsHandler(postsRepo, postListCache)
	commentsHandler := handlers.NewCommentsHandler(commentsRepo, postsRepo)

	requireJSON := middlewares.RequireJSON()
	requireAuth := guard.RequireAuth()

	// auth
	authGroup := r.Group("/auth")
	authGroup.POST("/login", requireJSON, loginLimiter.Middleware(middlewares.KeyByIP), authHandler.Login)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	// users: reads are public, create enforces bootstrap/admin rules
	// itself, delete is admin only
	usersGroup := r.Group("/users")
	usersGroup.POST("", requireJSON, usersHandler.CreateUser)
	usersGroup.GET("", usersHandler.ListUsers)
	usersGroup.GET("/:id", usersHandler.GetUser)
	usersGroup.PUT("/:id", requireJSON, requireAuth, usersHandler.UpdateUser)
	usersGroup.DELETE("/:id", requireAuth, guard.RequireAdmin(), usersHandler.DeleteUser)

	// posts
	postsGroup := r.Group("/posts")
	postsGroup.POST("", requireJSON, requireAuth, postsHandler.CreatePost)
	postsGroup.GET("", postsHandler.ListPosts)
	postsGroup.GET("/:id", postsHandler.GetPost)
	postsGroup.PUT("/:id", requireJSON, requireAuth, postsHandler.UpdatePost)
	postsGroup.DELETE("/:id", requireAuth, postsHandler.DeletePost)

	// comments
	commentsGroup := r.Group("/comments")
	commentsGroup.POST("", requireJSON, requireAuth, commentsHandler.CreateComment)
	commentsGroup.GET("/post/:post_id", commentsHandler.ListCommentsForPost)
	commentsGroup.PUT("/:id", requireJSON, requireAuth, commentsHandler.UpdateComment)
	commentsGroup.DELETE("/:id", requireAuth, commentsHandler.DeleteComment)

	return r
}
