package main

import (
	limits "github.com/gin-contrib/size"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/hrm-case-api/internal/middleware"
	"github.com/noah-isme/hrm-case-api/internal/models"
	"github.com/noah-isme/hrm-case-api/internal/service"
	"github.com/noah-isme/hrm-case-api/pkg/config"
	"github.com/noah-isme/hrm-case-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hrm-case-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hrm-case-api/pkg/middleware/requestid"
)

// multipartOverhead leaves room for form fields next to the evidence files.
// One extra file is admitted so that oversized batches reach validation and get a 400.
const multipartOverhead = 1 << 20

// Router builds the gin engine with every route mounted.
func (a *application) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(a.logger))
	r.Use(corsmiddleware.New(a.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(a.metrics))

	r.GET("/health", a.metricsHandler.Health)
	r.GET("/ready", a.metricsHandler.Ready)
	r.GET("/metrics", a.metricsHandler.Prometheus)
	if a.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(a.cfg.APIPrefix)
	authn := middleware.JWT(a.auth)

	api.POST("/auth/login", a.authHandler.Login)
	api.GET("/auth/me", authn, a.authHandler.Me)

	maxBody := int64(models.MaxEvidencePerReport+1)*a.cfg.Evidence.MaxFileSizeBytes + multipartOverhead
	api.POST("/reports",
		limits.RequestSizeLimiter(maxBody),
		middleware.OptionalJWT(a.auth),
		middleware.SubmitRateLimit(a.cfg.Reports.SubmitRateLimit, a.cfg.Reports.SubmitRateWindow),
		a.reportHandler.Submit,
	)

	reports := api.Group("/reports", authn)
	reports.GET("", a.reportHandler.List)
	reports.GET("/:id", a.reportHandler.Get)
	reports.GET("/:id/history", a.reportHandler.History)
	review := reports.Group("", middleware.RequireCapability(service.CapReviewReports))
	review.POST("/:id/review", a.reportHandler.StartReview)
	review.PUT("/:id/decision", a.reportHandler.Decide)
	review.POST("/:id/promote", middleware.RequireCapability(service.CapManageCases), a.reportHandler.Promote)

	cases := api.Group("/cases", authn)
	cases.GET("/export", middleware.RequireCapability(service.CapExportCases), a.caseHandler.Export)
	cases.GET("", a.caseHandler.List)
	cases.GET("/:id", a.caseHandler.Get)
	cases.GET("/:id/history", a.caseHandler.History)
	manage := cases.Group("", middleware.RequireCapability(service.CapManageCases))
	manage.POST("", a.caseHandler.Create)
	manage.PATCH("/:id", a.caseHandler.Update)
	manage.POST("/:id/archive", a.caseHandler.Archive)

	api.GET("/evidence/download", a.evidenceHandler.Download)
	api.GET("/evidence/:id/link", authn, a.evidenceHandler.Link)

	labels := api.Group("/violation-types", authn)
	labels.GET("", a.labelHandler.List)
	labels.POST("", a.labelHandler.Suggest)
	labels.PUT("/:id/review", middleware.RequireCapability(service.CapReviewViolationType), a.labelHandler.Review)

	if a.cfg.Analytics.Enabled {
		analytics := api.Group("/analytics", authn, middleware.RequireCapability(service.CapViewAnalytics))
		analytics.GET("/violations", a.analyticsHandler.Violations)
		analytics.GET("/timeline", a.analyticsHandler.Timeline)
		analytics.GET("/geodata", a.analyticsHandler.GeoData)
		analytics.GET("/system", a.analyticsHandler.System)
	}

	return r
}
