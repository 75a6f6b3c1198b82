package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	auditdomain "github.com/office562/campbaraisa-sub000/internal/audit/domain"
	camperdomain "github.com/office562/campbaraisa-sub000/internal/camper/domain"
	"github.com/office562/campbaraisa-sub000/internal/clock"
	"github.com/office562/campbaraisa-sub000/internal/config"
	feedomain "github.com/office562/campbaraisa-sub000/internal/fee/domain"
	invoicedomain "github.com/office562/campbaraisa-sub000/internal/invoice/domain"
	"github.com/office562/campbaraisa-sub000/internal/observability/logger"
	"github.com/office562/campbaraisa-sub000/internal/observability/metrics"
	"github.com/office562/campbaraisa-sub000/internal/observability/tracing"
	paymentdomain "github.com/office562/campbaraisa-sub000/internal/payment/domain"
	"github.com/office562/campbaraisa-sub000/internal/payment/gateway"
	portaldomain "github.com/office562/campbaraisa-sub000/internal/portal/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Cfg        config.Config
	Log        *zap.Logger
	DB         *gorm.DB
	GenID      *snowflake.Node
	Clock      clock.Clock
	CamperSvc  camperdomain.Service
	FeeSvc     feedomain.Service
	InvoiceSvc invoicedomain.Service
	PaymentSvc paymentdomain.Service
	PortalSvc  portaldomain.Service
	AuditSvc   auditdomain.Service
	Gateway    gateway.Adapter
}

type Server struct {
	cfg        config.Config
	log        *zap.Logger
	db         *gorm.DB
	genID      *snowflake.Node
	clock      clock.Clock
	camperSvc  camperdomain.Service
	feeSvc     feedomain.Service
	invoiceSvc invoicedomain.Service
	paymentSvc paymentdomain.Service
	portalSvc  portaldomain.Service
	auditSvc   auditdomain.Service
	gateway    gateway.Adapter
	loginLimit *rateLimiter
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:        p.Cfg,
		log:        p.Log.Named("server"),
		db:         p.DB,
		genID:      p.GenID,
		clock:      p.Clock,
		camperSvc:  p.CamperSvc,
		feeSvc:     p.FeeSvc,
		invoiceSvc: p.InvoiceSvc,
		paymentSvc: p.PaymentSvc,
		portalSvc:  p.PortalSvc,
		auditSvc:   p.AuditSvc,
		gateway:    p.Gateway,
		loginLimit: newRateLimiter(p.Cfg.Auth.LoginRateLimit, p.Cfg.Auth.LoginRateWindow),
	}
}

// NewEngine builds the gin engine with the shared middleware chain.
func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(tracing.GinMiddleware("campbaraisa"))
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	return engine
}

// RegisterRoutes mounts every endpoint. Admin routes sit behind the JWT
// middleware; the portal and webhook are reached with their own credentials.
func (s *Server) RegisterRoutes(engine *gin.Engine) {
	engine.GET("/healthz", s.Healthz)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := engine.Group("/api/v1")

	v1.POST("/auth/login", s.Login)

	portal := v1.Group("/portal")
	{
		portal.GET("/:token", s.GetPortal)
		portal.POST("/:token/payments", s.PortalInitiateCardPayment)
	}

	v1.POST("/webhooks/gateway", s.GatewayWebhook)

	admin := v1.Group("")
	admin.Use(s.AdminRequired())
	{
		admin.GET("/campers", s.ListCampers)
		admin.POST("/campers", s.CreateCamper)
		admin.GET("/campers/:id", s.GetCamper)

		admin.GET("/fees", s.ListFees)
		admin.POST("/fees", s.CreateFee)
		admin.PATCH("/fees/:id", s.UpdateFee)
		admin.DELETE("/fees/:id", s.DeleteFee)

		admin.GET("/invoices", s.ListInvoices)
		admin.POST("/invoices", s.CreateInvoice)
		admin.GET("/invoices/:id", s.GetInvoice)
		admin.POST("/invoices/:id/reminders", s.SendInvoiceReminder)

		admin.GET("/payments", s.ListPayments)
		admin.POST("/payments", s.RecordPayment)
		admin.POST("/payments/surcharge-quote", s.QuoteSurcharge)

		admin.GET("/dashboard/stats", s.GetDashboardStats)
		admin.GET("/activities", s.ListActivities)

		admin.POST("/test/cleanup", s.TestCleanup)
	}
}

func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil || sqlDB.Ping() != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(200, gin.H{"status": "ok"})
}
