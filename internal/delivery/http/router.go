package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	custommiddleware "copydesk/internal/middleware"
)

// RouterConfig holds all dependencies for routing
type RouterConfig struct {
	AuthHandler       *AuthHandler
	AccountHandler    *AccountHandler
	MembershipHandler *MembershipHandler
	AdminHandler      *AdminHandler
	AllowedIPs        []string
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(e *echo.Echo, config *RouterConfig) {
	// Client IP is the socket peer; forwarded headers are caller controlled
	e.IPExtractor = echo.ExtractIPDirect()

	// Middleware
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/health"
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(middleware.Secure())

	// Health check
	e.GET("/health", config.AdminHandler.Health)

	// API group
	api := e.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/login", config.AuthHandler.Login)
		auth.POST("/logout", config.AuthHandler.Logout)
	}

	// Admin routes (protected with IP allow-list, Auth and Admin middleware)
	admin := api.Group("",
		custommiddleware.IPAllowList(config.AllowedIPs),
		custommiddleware.AuthMiddleware,
		custommiddleware.AdminMiddleware,
	)
	{
		admin.POST("/master-add", config.AccountHandler.AddMaster)
		admin.GET("/all-masters", config.AccountHandler.ListMasters)
		admin.POST("/master-status", config.AccountHandler.SetMasterStatus)

		admin.POST("/slave-add", config.AccountHandler.AddSlave)
		admin.GET("/all-slaves", config.AccountHandler.ListSlaves)
		admin.POST("/slave-status", config.AccountHandler.SetSlaveStatus)
		admin.POST("/slave-login", config.AccountHandler.UpdateSlaveLogin)
		admin.DELETE("/slave-delete", config.AccountHandler.DeleteSlave)

		admin.POST("/groups/join", config.MembershipHandler.Join)
		admin.POST("/groups/switch", config.MembershipHandler.Switch)
		admin.POST("/groups/leave", config.MembershipHandler.Leave)
		admin.GET("/groups/membership/:user_id", config.MembershipHandler.GetMembership)

		admin.GET("/admin/statistics", config.AdminHandler.GetStatistics)
	}
}
