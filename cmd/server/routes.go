package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/itinventory/inventory/internal/config"
	"github.com/itinventory/inventory/internal/handlers"
	"github.com/itinventory/inventory/internal/middleware"
	"github.com/itinventory/inventory/pkg/logger"
	"github.com/itinventory/inventory/web"
)

// pageMethods are accepted by list and search pages, whose sort and filter
// forms post back to the same URL.
var pageMethods = []string{http.MethodGet, http.MethodPost}

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(ctx context.Context, r *gin.Engine, cfg *config.Config, svc *appServices) error {
	// Search criteria may contain escaped slashes.
	r.UseRawPath = true
	r.UnescapePathValues = true

	r.Use(logger.GinLogger("/health", "/metrics", "/static/style.css"), logger.GinRecovery())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(svc.sessions.Middleware())

	staticFS, err := web.StaticFS()
	if err != nil {
		return err
	}
	r.StaticFS("/static", http.FS(staticFS))

	r.GET("/health", svc.health.CheckHealth)
	r.GET("/metrics", handlers.Metrics(svc.metrics))

	r.GET("/", svc.pages.Root)
	r.GET("/toggle-view", svc.pages.ToggleView)

	loginLimiter := middleware.NewRateLimiter(ctx, cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst)
	r.GET("/login", svc.auth.LoginPage)
	r.POST("/login", loginLimiter.Middleware(), middleware.AuditTrail(), svc.auth.Login)
	r.GET("/logout", svc.auth.Logout)

	user := r.Group("", middleware.RequireUser(), middleware.AuditTrail())
	{
		user.GET("/error/:code", svc.pages.Error)

		inv := svc.inventory
		user.Match(pageMethods, "/inventory", inv.List)
		user.GET("/inventory/add-record", inv.AddForm)
		user.POST("/inventory/add-record", inv.Add)
		user.GET("/inventory/edit-record/:barcode", inv.EditForm)
		user.POST("/inventory/edit-record/:barcode", inv.Edit)
		user.GET("/inventory/remove-record/:barcode", inv.RemoveForm)
		user.POST("/inventory/remove-record/:barcode", inv.Remove)
		user.GET("/inventory/search", inv.SearchForm)
		user.POST("/inventory/search", inv.SearchSubmit)
		user.Match(pageMethods, "/inventory/search/:category/:criteria", inv.Search)

		trans := svc.transactions
		user.Match(pageMethods, "/transactions", trans.List)
		user.GET("/transactions/add-record", trans.AddForm)
		user.POST("/transactions/add-record", trans.Add)
		user.GET("/transactions/edit-record/:transactionid", trans.EditForm)
		user.POST("/transactions/edit-record/:transactionid", trans.Edit)
		user.GET("/transactions/remove-record/:transactionid", trans.RemoveForm)
		user.POST("/transactions/remove-record/:transactionid", trans.Remove)
		user.GET("/transactions/search", trans.SearchForm)
		user.POST("/transactions/search", trans.SearchSubmit)
		user.Match(pageMethods, "/transactions/search/:category/:criteria", trans.Search)

		hosts := svc.hostnames
		user.Match(pageMethods, "/hostnames", hosts.List)
		user.GET("/hostnames/add", hosts.AddForm)
		user.POST("/hostnames/add", hosts.Add)
		user.GET("/hostnames/edit/:hostname", hosts.EditForm)
		user.POST("/hostnames/edit/:hostname", hosts.Edit)
		user.GET("/hostnames/remove/:hostname", hosts.RemoveForm)
		user.POST("/hostnames/remove/:hostname", hosts.Remove)
		user.GET("/hostnames/search", hosts.SearchForm)
		user.POST("/hostnames/search", hosts.SearchSubmit)
		user.Match(pageMethods, "/hostnames/search/:category/:criteria", hosts.Search)
	}

	admin := r.Group("/admin-tools", middleware.RequireAdmin(), middleware.AuditTrail())
	{
		a := svc.admin
		admin.GET("", a.Tools)
		admin.Match(pageMethods, "/logs", a.Logs)
		admin.GET("/logs/search", a.SearchLogsForm)
		admin.POST("/logs/search", a.SearchLogsSubmit)
		admin.Match(pageMethods, "/logs/search/:category/:criteria", a.SearchLogs)
		admin.Match(pageMethods, "/dropdowns", a.Dropdowns)
		admin.GET("/dropdowns/add", a.AddOptionForm)
		admin.POST("/dropdowns/add", a.AddOption)
		admin.GET("/dropdowns/remove", a.RemoveOptionForm)
		admin.POST("/dropdowns/remove", a.RemoveOption)
		admin.GET("/dropdowns/remove/:list/:value", a.ConfirmRemoveOption)
		admin.POST("/dropdowns/remove/:list/:value", a.RemoveOptionConfirmed)
	}

	return nil
}
