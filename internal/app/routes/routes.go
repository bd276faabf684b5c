package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/impactlink/impactlink/internal/app/controllers"
	"github.com/impactlink/impactlink/internal/app/models"
	"github.com/impactlink/impactlink/internal/middleware"
	"github.com/impactlink/impactlink/internal/pkg/metrics"
	"github.com/impactlink/impactlink/internal/pkg/websocket"
)

// Controllers groups every handler the route table needs
type Controllers struct {
	Auth        *controllers.AuthController
	Opportunity *controllers.OpportunityController
	Application *controllers.ApplicationController
	Saved       *controllers.SavedOpportunityController
	Message     *controllers.MessageController
	Profile     *controllers.ProfileController
	WebSocket   *websocket.Handler
}

// SetupRouter configures all application routes. rateLimiter may be nil, in
// which case mutating routes are not throttled.
func SetupRouter(
	router *gin.Engine,
	c Controllers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter *middleware.RateLimiter,
) {
	router.GET("/ping", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// throttled wraps a mutating handler with the rate limiter
	throttled := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		if rateLimiter == nil {
			return []gin.HandlerFunc{handler}
		}
		return []gin.HandlerFunc{rateLimiter.Limit(), handler}
	}

	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", throttled(c.Auth.Register)...)
		auth.POST("/login", throttled(c.Auth.Login)...)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())

	ngoOnly := authMiddleware.RoleRequired(models.RoleNGO)
	expertOnly := authMiddleware.RoleRequired(models.RoleExpert)

	me := authenticated.Group("/me")
	{
		me.GET("", c.Auth.Me)
		me.PATCH("/profile", throttled(c.Profile.UpdateProfile)...)
		me.PATCH("/ngo", append([]gin.HandlerFunc{ngoOnly}, throttled(c.Profile.UpdateNGO)...)...)
		me.PATCH("/expert", append([]gin.HandlerFunc{expertOnly}, throttled(c.Profile.UpdateExpert)...)...)
	}

	opportunities := authenticated.Group("/opportunities")
	{
		opportunities.GET("", c.Opportunity.ListOpenOpportunities)
		opportunities.POST("", append([]gin.HandlerFunc{ngoOnly}, throttled(c.Opportunity.CreateOpportunity)...)...)
		opportunities.GET("/:id", c.Opportunity.GetOpportunity)
		opportunities.PATCH("/:id/status", throttled(c.Opportunity.TransitionOpportunity)...)

		opportunities.GET("/:id/applications", c.Application.ListOpportunityApplications)
		opportunities.POST("/:id/applications", throttled(c.Application.Apply)...)

		opportunities.GET("/:id/save", c.Saved.SavedState)
		opportunities.POST("/:id/save", throttled(c.Saved.ToggleSaved)...)
	}

	applications := authenticated.Group("/applications")
	{
		applications.GET("/:id", c.Application.GetApplication)
		applications.POST("/:id/accept", throttled(c.Application.AcceptApplication)...)
		applications.POST("/:id/reject", throttled(c.Application.RejectApplication)...)
		applications.POST("/:id/withdraw", throttled(c.Application.WithdrawApplication)...)
	}

	experts := authenticated.Group("/experts")
	{
		experts.GET("", c.Profile.ExploreExperts)
		experts.GET("/me/applications", c.Application.ListMyApplications)
		experts.GET("/me/saved", c.Saved.ListSaved)
		experts.GET("/:id", c.Profile.GetExpertPage)
	}

	ngos := authenticated.Group("/ngos")
	{
		ngos.GET("/me/dashboard", c.Opportunity.Dashboard)
		ngos.GET("/me/opportunities", c.Opportunity.MyOpportunities)
		ngos.GET("/:id", c.Profile.GetNGOPage)
		ngos.GET("/:id/opportunities", c.Opportunity.ListNGOOpportunities)
	}

	authenticated.POST("/messages", throttled(c.Message.SendMessage)...)
	authenticated.POST("/messages/:id/read", c.Message.MarkRead)
	authenticated.GET("/conversations", c.Message.ListConversations)
	authenticated.GET("/conversations/:partnerId", c.Message.GetConversation)

	if c.WebSocket != nil {
		authenticated.GET("/ws", c.WebSocket.HandleConnection)
	}
}
