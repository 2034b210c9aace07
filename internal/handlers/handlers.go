package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"tutoria/auth/internal/access"
	"tutoria/auth/internal/cache"
	"tutoria/auth/internal/config"
	"tutoria/auth/internal/middleware"
	"tutoria/auth/internal/models"
	"tutoria/auth/internal/notify"
	"tutoria/auth/internal/oauth"
	"tutoria/auth/internal/repository"
	"tutoria/auth/internal/security"
	"tutoria/auth/internal/service"
)

type HandlerSet struct {
	log           zerolog.Logger
	cfg           *config.AppConfig
	tokens        *security.TokenIssuer
	authService   *service.AuthService
	googleService *service.GoogleService
	userService   *service.UserService
	google        *oauth.GoogleClient
	db            *pgxpool.Pool
	cache         *redis.Client
}

func NewHandlerSet(log zerolog.Logger, db *pgxpool.Pool, redisClient *redis.Client, cfg *config.AppConfig) HandlerSet {
	userRepo := repository.NewUserRepository(db)
	readModels := cache.NewReadModelStore(redisClient)
	dispatcher := notify.NewDispatcher(redisClient, cfg.Notify.Stream, log)
	tokens := security.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	lockout := service.NewLockoutPolicy(cfg.Auth.MaxLoginFails, cfg.Auth.LockoutDuration)

	return HandlerSet{
		log:           log,
		cfg:           cfg,
		tokens:        tokens,
		authService:   service.NewAuthService(userRepo, tokens, lockout, dispatcher, cfg.Auth.StudentDomain, log),
		googleService: service.NewGoogleService(userRepo, tokens, dispatcher, log),
		userService:   service.NewUserService(userRepo, readModels, cfg.Auth.ListingCacheTTL, log),
		google:        oauth.NewGoogleClient(cfg.Google),
		db:            db,
		cache:         redisClient,
	}
}

func (h HandlerSet) Register(router *gin.RouterGroup) {
	public := access.Descriptor{Public: true}
	anyUser := access.Descriptor{}
	adminOnly := access.Descriptor{Roles: []models.UserRole{models.UserRoleAdmin}}

	router.GET("/healthz", middleware.Guard(h.tokens, public), h.Health)

	v1 := router.Group("/v1")
	{
		auth := v1.Group("/auth", middleware.Guard(h.tokens, public))
		auth.POST("/register", h.RegisterUser)
		auth.POST("/login", h.Login)
		auth.GET("/google", h.GoogleRedirect)
		auth.GET("/google/callback", h.GoogleCallback)

		v1.GET("/auth/me", middleware.Guard(h.tokens, anyUser), h.Me)

		me := v1.Group("/users/me", middleware.Guard(h.tokens, anyUser))
		me.PATCH("", h.UpdateMyProfile)
		me.DELETE("", h.DeleteMyAccount)

		admin := v1.Group("/users", middleware.Guard(h.tokens, adminOnly))
		admin.GET("", h.ListUsers)
		admin.PATCH("/:id/role", h.ChangeRole)
		admin.PATCH("/:id/status", h.ChangeStatus)
		admin.DELETE("/:id", h.DeleteUser)

		stats := v1.Group("/stats", middleware.Guard(h.tokens, adminOnly))
		stats.GET("/users", h.UserStats)
		stats.GET("/roles", h.RoleStats)
	}
}
