package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/phishing-awareness/internal/handler"
	"github.com/iliyamo/phishing-awareness/internal/middleware"
	"github.com/iliyamo/phishing-awareness/internal/model"
)

// AdminHandlers groups the handlers mounted under the admin prefix.
type AdminHandlers struct {
	Clients     *handler.ClientHandler
	Users       *handler.UserHandler
	Groups      *handler.GroupHandler
	Attachments *handler.AttachmentHandler
	Templates   *handler.TemplateHandler
	Campaigns   *handler.CampaignAdminHandler
	Forms       *handler.FormHandler
	Logs        *handler.LogHandler
}

// RegisterAdmin mounts the tenant-scoped admin surface under prefix.  Every
// route requires a staff token of the resolved tenant (or a platform
// token); client management additionally requires the request to resolve
// to the platform client.  limit and dashboardCache may be nil.
func RegisterAdmin(e *echo.Echo, prefix string, h AdminHandlers, jwtSecret string, limit, dashboardCache echo.MiddlewareFunc) {
	g := e.Group(prefix)
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireTenantMember())
	g.Use(middleware.RequireRole(model.RoleStaff))
	g.Use(orNoop(limit))

	cl := g.Group("/clients", middleware.RequireSuperadmin())
	cl.GET("", h.Clients.List)
	cl.POST("", h.Clients.Create)
	cl.GET("/:id", h.Clients.Get)
	cl.PUT("/:id", h.Clients.Update)
	cl.DELETE("/:id", h.Clients.Delete)

	g.GET("/users", h.Users.List)
	g.POST("/users", h.Users.Create)
	g.GET("/users/:id", h.Users.Get)
	g.PUT("/users/:id", h.Users.Update)
	g.DELETE("/users/:id", h.Users.Delete)

	g.GET("/groups", h.Groups.List)
	g.POST("/groups", h.Groups.Create)
	g.GET("/groups/:id", h.Groups.Get)
	g.PUT("/groups/:id", h.Groups.Update)
	g.DELETE("/groups/:id", h.Groups.Delete)

	g.GET("/attachments", h.Attachments.List)
	g.POST("/attachments/upload", h.Attachments.Upload)
	g.GET("/attachments/:id", h.Attachments.Get)
	g.PUT("/attachments/:id", h.Attachments.Update)
	g.DELETE("/attachments/:id", h.Attachments.Delete)

	g.GET("/templates", h.Templates.List)
	g.POST("/templates", h.Templates.Create)
	g.POST("/templates/images", h.Templates.UploadImage)
	g.GET("/templates/:id", h.Templates.Get)
	g.PUT("/templates/:id", h.Templates.Update)
	g.DELETE("/templates/:id", h.Templates.Delete)

	var dash []echo.MiddlewareFunc
	if dashboardCache != nil {
		dash = append(dash, dashboardCache)
	}
	g.GET("/campaigns/dashboard", h.Campaigns.Dashboard, dash...)
	g.GET("/campaigns", h.Campaigns.List)
	g.POST("/campaigns", h.Campaigns.Create)
	g.GET("/campaigns/:id", h.Campaigns.Get)
	g.PUT("/campaigns/:id", h.Campaigns.Update)
	g.DELETE("/campaigns/:id", h.Campaigns.Delete)
	g.POST("/campaigns/:id/send", h.Campaigns.Send)

	g.GET("/forms/:entity", h.Forms.Get)
	g.GET("/logs", h.Logs.List)
}
