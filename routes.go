package main

import "github.com/gin-gonic/gin"

func SetupRoutes(r *gin.Engine, a *API) {

	// Public Routes
	r.POST("/signup", a.Signup)
	r.POST("/login", a.Login)
	r.GET("/api/health", a.Health)

	// Protected Routes
	authorized := r.Group("/api")
	authorized.Use(AuthMiddleware(a.Tokens))
	{
		// EVENTS
		registerEventRoutes(authorized, a)

		// FRIENDS
		authorized.GET("/friends", a.ListFriends)
		authorized.DELETE("/friends/:user_id", a.RemoveFriend)
		authorized.GET("/friends/requests", a.ListFriendRequests)
		authorized.POST("/friends/requests", a.SendFriendRequest)
		authorized.POST("/friends/requests/:user_id/accept", a.AcceptFriendRequest)
		authorized.POST("/friends/requests/:user_id/decline", a.DeclineFriendRequest)

		// USERS
		authorized.GET("/users/me", a.Me)
		authorized.DELETE("/users/me", a.DeleteMe)
		authorized.GET("/users", a.FindUsers)
		authorized.GET("/users/:id", a.GetUser)

		// GAMES
		authorized.GET("/games", a.ListGames)
		authorized.POST("/games", a.CreateGame)
		authorized.GET("/games/:id", a.GetGame)
	}

	// Integration Routes
	keyed := IntegrationKeyMiddleware(a.IntegrationKeys)
	channel := r.Group("/api/channels/:channel_id", keyed, ChannelMiddleware())
	{
		registerEventRoutes(channel, a)
		channel.POST("/events/:id/system-messages", a.PostAnnouncement)
	}

	// Agent Tools
	r.Any("/mcp", a.AgentAuth(), a.AgentHandler())
}

// registerEventRoutes mounts the event surface shared by the personal and
// channel groups.
func registerEventRoutes(g *gin.RouterGroup, a *API) {
	g.POST("/events", a.CreateEvent)
	g.GET("/events", a.ListEvents)
	g.GET("/events/:id", a.GetEvent)
	g.DELETE("/events/:id", a.DeleteEvent)
	g.PATCH("/events/:id/plan", a.UpdatePlan)
	g.POST("/events/:id/status", a.SetStatus)
	g.POST("/events/:id/confirm-plan", a.ConfirmPlan)

	// INVITATIONS
	g.POST("/events/:id/invites", a.InviteMember)
	g.POST("/events/:id/accept", a.AcceptInvite)
	g.POST("/events/:id/decline", a.DeclineInvite)
	g.POST("/events/:id/leave", a.LeaveEvent)

	// MESSAGES
	g.POST("/events/:id/messages", a.PostMessage)
	g.GET("/events/:id/messages", a.ListMessages)
}
