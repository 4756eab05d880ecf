package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/middleware"
)

// RegisterRoutes mounts every API endpoint on api, normally /api/v1
func (h *Handlers) RegisterRoutes(api *gin.RouterGroup) {
	users := api.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("", h.CreateUser)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}

	search := api.Group("/search")
	{
		search.Use(middleware.RateLimit(middleware.SearchRateLimitConfig()))
		search.GET("/athletes", h.SearchAthletes)
		search.GET("/professionals", h.SearchProfessionals)
	}

	career := api.Group("/career-experiences")
	{
		career.GET("", h.ListCareerExperiences)
		career.POST("", h.CreateCareerExperience)
		career.PUT("/:id", h.UpdateCareerExperience)
		career.DELETE("/:id", h.DeleteCareerExperience)
	}

	api.GET("/physical-stats", h.GetPhysicalStats)
	api.POST("/physical-stats", h.SavePhysicalStats)
	api.PUT("/physical-stats", h.SavePhysicalStats)

	api.GET("/verifications", h.ListVerifications)
	api.POST("/verifications", h.CreateVerification)
	api.DELETE("/verifications", h.DeleteVerification)

	api.GET("/favorites", h.ListFavorites)
	api.POST("/favorites", h.CreateFavorite)
	api.DELETE("/favorites", h.DeleteFavorite)

	// Social feed
	api.GET("/posts", h.ListPosts)
	api.POST("/posts", h.CreatePost)
	api.DELETE("/posts/:id", h.DeletePost)
	api.GET("/likes", h.ListLikes)
	api.POST("/likes", h.ToggleLike)
	api.GET("/comments", h.ListComments)
	api.POST("/comments", h.CreateComment)
	api.GET("/follows", h.ListFollows)
	api.POST("/follows", h.CreateFollow)
	api.DELETE("/follows", h.DeleteFollow)

	api.GET("/messages", h.ListMessages)
	api.POST("/messages", h.SendMessage)
	api.PATCH("/messages", h.MarkMessagesRead)

	clubs := api.Group("/clubs")
	{
		clubs.GET("", h.ListClubs)
		clubs.POST("", h.CreateClub)
		clubs.GET("/:id", h.GetClub)
		clubs.PUT("/:id", h.UpdateClub)
		clubs.DELETE("/:id", h.DeleteClub)
	}

	memberships := api.Group("/club-memberships")
	{
		memberships.GET("", h.ListMemberships)
		memberships.POST("", h.CreateMembership)
		memberships.PUT("/:id", h.UpdateMembership)
		memberships.DELETE("/:id", h.DeleteMembership)
	}

	joinRequests := api.Group("/club-join-requests")
	{
		joinRequests.GET("", h.ListJoinRequests)
		joinRequests.POST("", h.CreateJoinRequest)
		joinRequests.PUT("/:id", h.RespondJoinRequest)
		joinRequests.POST("/:id/accept", h.AcceptJoinRequest)
		joinRequests.DELETE("/:id", h.DeleteJoinRequest)
	}

	opportunities := api.Group("/opportunities")
	{
		opportunities.GET("", h.ListOpportunities)
		opportunities.POST("", h.CreateOpportunity)
		opportunities.GET("/:id", h.GetOpportunity)
		opportunities.PUT("/:id", h.UpdateOpportunity)
		opportunities.DELETE("/:id", h.DeleteOpportunity)
	}

	applications := api.Group("/applications")
	{
		applications.GET("", h.ListApplications)
		applications.POST("", h.CreateApplication)
		applications.PUT("/:id", h.UpdateApplication)
		applications.DELETE("/:id", h.DeleteApplication)
	}

	affiliations := api.Group("/affiliations")
	{
		affiliations.GET("", h.ListAffiliations)
		affiliations.POST("", h.CreateAffiliation)
		affiliations.PUT("/:id", h.RespondAffiliation)
		affiliations.DELETE("/:id", h.DeleteAffiliation)
	}

	api.GET("/sports-organizations", h.ListSportsOrganizations)
	api.POST("/sports-organizations", h.CreateSportsOrganization)

	orgRequests := api.Group("/organization-requests")
	{
		orgRequests.GET("", h.ListOrganizationRequests)
		orgRequests.POST("", h.CreateOrganizationRequest)
		orgRequests.PATCH("/:id/approve", h.ApproveOrganizationRequest)
	}

	api.POST("/match", h.Match)

	api.GET("/blocked-agents", h.ListBlockedAgents)
	api.POST("/blocked-agents", h.BlockAgent)
	api.DELETE("/blocked-agents", h.UnblockAgent)

	notifications := api.Group("/notifications")
	{
		notifications.GET("", h.GetNotifications)
		notifications.POST("", h.CreateNotification)
		notifications.PUT("", h.MarkNotificationsRead)
		notifications.DELETE("", h.DeleteNotifications)
		notifications.GET("/unread-count", h.GetUnreadCount)
		notifications.GET("/stream", h.StreamNotifications)
		notifications.GET("/stream/stats", h.StreamStats)
		notifications.GET("/ws", h.NotificationsWebSocket)
	}

	api.GET("/notification-preferences", h.GetNotificationPreferences)
	api.POST("/notification-preferences", h.UpdateNotificationPreferences)

	api.GET("/dashboard/:userId", h.GetDashboard)

	api.POST("/upload", middleware.RateLimit(middleware.UploadRateLimitConfig()), h.UploadImage)
}
