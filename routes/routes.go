package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sharath018/event-gift-backend/config"
	"github.com/sharath018/event-gift-backend/internal/auditlog"
	"github.com/sharath018/event-gift-backend/internal/auth"
	"github.com/sharath018/event-gift-backend/internal/event"
	"github.com/sharath018/event-gift-backend/internal/gift"
	"github.com/sharath018/event-gift-backend/internal/guest"
	"github.com/sharath018/event-gift-backend/internal/media"
	"github.com/sharath018/event-gift-backend/internal/metrics"
	"github.com/sharath018/event-gift-backend/internal/notification"
	"github.com/sharath018/event-gift-backend/internal/user"
	"github.com/sharath018/event-gift-backend/middleware"
	"github.com/sharath018/event-gift-backend/utils"
	"gorm.io/gorm"

	_ "github.com/sharath018/event-gift-backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const maxBodyBytes = 5 << 20

// Deps are the process-wide resources the HTTP layer is built from. Redis is
// optional; without it sessions and rate limits stay in process.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Redis     *redis.Client
	Images    *media.DiskStore
	Publisher notification.Publisher
	Metrics   *metrics.Recorder
	Gatherer  prometheus.Gatherer
	Logger    zerolog.Logger
}

// NewRouter builds the gin engine with middleware and every route mounted.
func NewRouter(d Deps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(utils.RequestLogger(d.Logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if err := Setup(r, d); err != nil {
		return nil, err
	}
	return r, nil
}

func Setup(r *gin.Engine, d Deps) error {
	cfg := d.Config

	r.Static(media.PublicPrefix, d.Images.Root())
	r.GET("/healthz", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	apiStore, err := middleware.NewLimiterStore(d.Redis, "giftdesk_api")
	if err != nil {
		return err
	}
	registerStore, err := middleware.NewLimiterStore(d.Redis, "giftdesk_register")
	if err != nil {
		return err
	}

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimiter(apiStore, cfg.RateLimitPerMinute))
	api.Use(middleware.AuditMiddleware())
	api.Use(middleware.MaxBodySize(maxBodyBytes))

	// ========== Audit Log ==========
	auditSvc := auditlog.NewService(auditlog.NewRepository(d.DB))
	auditHandler := auditlog.NewHandler(auditSvc)

	// ========== Auth ==========
	var sessions auth.SessionStore
	if d.Redis != nil {
		sessions = auth.NewRedisSessionStore(d.Redis)
	} else {
		sessions = auth.NewMemorySessionStore()
	}
	authSvc := auth.NewService(auth.NewRepository(d.DB), sessions, cfg)
	authHandler := auth.NewHandler(authSvc, auditSvc, cfg.IsProduction(), cfg.RefreshTTL())

	requireAuth := middleware.AuthMiddleware(authSvc)
	adminOnly := middleware.RBACMiddleware(auth.RoleAdmin)
	staff := middleware.RBACMiddleware(auth.RoleAdmin, auth.RoleAgent)

	// ========== Services ==========
	giftRepo := gift.NewRepository(d.DB)
	giftSvc := gift.NewService(giftRepo, d.Images, auditSvc)
	giftHandler := gift.NewHandler(giftSvc)

	userSvc := user.NewService(user.NewRepository(d.DB), auditSvc)
	userHandler := user.NewHandler(userSvc)

	eventSvc := event.NewService(event.NewRepository(d.DB), giftRepo, d.Images, auditSvc, cfg.FrontendURL)
	eventHandler := event.NewHandler(eventSvc)

	guestSvc := guest.NewService(guest.NewRepository(d.DB), eventSvc, d.Publisher, d.Metrics, auditSvc,
		guest.Options{Location: cfg.ReportLocation()})
	guestHandler := guest.NewHandler(guestSvc, cfg.RevealGuestCode)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.POST("/register", requireAuth, adminOnly, userHandler.Create)
	}

	// ========== Public ==========
	api.GET("/events/public/:id", eventHandler.GetPublic)
	api.POST("/guests/register",
		middleware.RateLimiter(registerStore, cfg.GuestRegisterPerMinute),
		guestHandler.Register)

	protected := api.Group("")
	protected.Use(requireAuth)

	// ========== Gifts ==========
	gifts := protected.Group("/gifts")
	{
		gifts.GET("", giftHandler.List)
		gifts.GET("/:id", giftHandler.Get)
		gifts.POST("", adminOnly, giftHandler.Create)
		gifts.PUT("/:id", adminOnly, giftHandler.Update)
		gifts.DELETE("/:id", adminOnly, giftHandler.Delete)
	}

	// ========== Events ==========
	events := protected.Group("/events")
	{
		events.GET("", staff, eventHandler.List)
		events.GET("/active/:agentId", staff, eventHandler.ListActiveForAgent)
		events.GET("/:id", staff, eventHandler.Get)
		events.POST("", adminOnly, eventHandler.Create)
		events.PUT("/:id", adminOnly, eventHandler.Update)
		events.PUT("/:id/status", adminOnly, eventHandler.SetStatus)
		events.DELETE("/:id", adminOnly, eventHandler.Delete)
	}

	// ========== Guests ==========
	guests := protected.Group("/guests")
	{
		guests.POST("/verify-otp", staff, guestHandler.Redeem)
		guests.GET("/verified", staff, guestHandler.ListRedeemed)
		guests.GET("/verified/:eventId", staff, guestHandler.ListRedeemed)
		guests.GET("", adminOnly, guestHandler.List)
		guests.GET("/export", adminOnly, guestHandler.Export)
		guests.PUT("/:id", adminOnly, guestHandler.Update)
		guests.DELETE("/:id", adminOnly, guestHandler.Delete)
	}

	// ========== Users ==========
	users := protected.Group("/users")
	{
		users.GET("/me", userHandler.Me)
		users.GET("", adminOnly, userHandler.List)
		users.GET("/:id", adminOnly, userHandler.Get)
		users.PUT("/:id", adminOnly, userHandler.Update)
		users.DELETE("/:id", adminOnly, userHandler.Delete)
	}

	// ========== Audit Logs (Admin Only) ==========
	audit := protected.Group("/auditlogs", adminOnly)
	{
		audit.GET("", auditHandler.GetAuditLogs)
		audit.GET("/:id", auditHandler.GetAuditLogByID)
	}

	d.Logger.Debug().Int("routes", len(r.Routes())).Msg("routes mounted")
	return nil
}
