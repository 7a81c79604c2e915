package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/musiccamp/internal/cache"
	"github.com/geocoder89/musiccamp/internal/domain/user"
	"github.com/geocoder89/musiccamp/internal/enrollment"
	"github.com/geocoder89/musiccamp/internal/http/handlers"
	"github.com/geocoder89/musiccamp/internal/http/middlewares"
	"github.com/geocoder89/musiccamp/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

type Deps struct {
	Service  *enrollment.Service
	Verifier middlewares.TokenVerifier
	Issuer   handlers.TokenIssuer
	Cache    cache.Store
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	// Ping backs /readyz; nil means always ready.
	Ping func(ctx context.Context) error

	Env          string
	ServiceName  string
	EnforceRoles bool
	// TrustedProxies lists the proxy addresses or CIDRs whose
	// X-Forwarded-For is believed. Empty trusts none.
	TrustedProxies []string
	// TokenRateLimit caps /jwt-token and POST /users per client IP per
	// minute; 0 uses 20.
	TokenRateLimit int
}

func NewRouter(log *slog.Logger, d Deps) *gin.Engine {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(d.TrustedProxies); err != nil {
		slog.Default().Warn("invalid trusted proxies, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if d.ServiceName != "" {
		r.Use(otelgin.Middleware(d.ServiceName))
	}
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	health := handlers.NewHealthHandler(d.Ping)
	r.GET("/", health.Root)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	limit := d.TokenRateLimit
	if limit <= 0 {
		limit = 20
	}
	publicLimiter := middlewares.NewRateLimiter(limit, time.Minute)

	authMW := middlewares.NewAuthMiddleware(d.Verifier)
	requireAuth := authMW.RequireAuth()
	adminOnly := authMW.RequireAnyRole(d.EnforceRoles, d.Service, user.RoleAdmin)
	teaches := authMW.RequireAnyRole(d.EnforceRoles, d.Service, user.RoleInstructor, user.RoleAdmin)

	authH := handlers.NewAuthHandler(d.Service, d.Issuer)
	usersH := handlers.NewUsersHandler(d.Service)
	offeringsH := handlers.NewOfferingsHandler(d.Service, d.Cache)
	instructorsH := handlers.NewInstructorsHandler(d.Service)
	cartH := handlers.NewCartHandler(d.Service)
	paymentsH := handlers.NewPaymentsHandler(d.Service)

	r.POST("/jwt-token", publicLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authH.IssueToken)

	// catalog
	r.GET("/classes", offeringsH.List)
	r.POST("/classes", requireAuth, teaches, offeringsH.Submit)
	r.PATCH("/classes/music-class/:id", requireAuth, adminOnly, offeringsH.Approve)
	r.GET("/instructors", instructorsH.List)

	// users
	r.POST("/users", publicLimiter.RateLimiterMiddleware(middlewares.KeyByIP), usersH.Upsert)
	users := r.Group("/users", requireAuth)
	{
		users.GET("", usersH.List)
		users.PATCH("/admin/:id", adminOnly, usersH.SetRole(user.RoleAdmin))
		users.PATCH("/instructor/:id", adminOnly, usersH.SetRole(user.RoleInstructor))
		users.PATCH("/student/:id", adminOnly, usersH.SetRole(user.RoleStudent))
		users.DELETE("/:id", adminOnly, usersH.Delete)
	}

	// cart
	cartGroup := r.Group("/course-cart", requireAuth)
	{
		cartGroup.POST("", cartH.Add)
		cartGroup.GET("", cartH.List)
		cartGroup.DELETE("/:id", cartH.Remove)
	}

	// payments
	r.POST("/payment-intend", requireAuth, paymentsH.CreateIntent)
	r.POST("/course-payment", requireAuth, paymentsH.Record)
	r.GET("/course-payment", requireAuth, paymentsH.List)

	return r
}
