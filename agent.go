package main

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"gamenight-backend/internal/actor"
	"gamenight-backend/internal/agenttools"
)

type agentUserKey struct{}

// AgentAuth admits /mcp requests. Channel sessions (X-Channel-ID set) need an
// integration API key; personal sessions need a user's bearer token.
func (a *API) AgentAuth() gin.HandlerFunc {
	keyed := IntegrationKeyMiddleware(a.IntegrationKeys)
	bearer := AuthMiddleware(a.Tokens)
	return func(c *gin.Context) {
		channelID := c.GetHeader(headerChannelID)
		if channelID == "" {
			bearer(c)
			return
		}
		if len(channelID) > maxChannelIDLen {
			jsonError(c, http.StatusBadRequest, "channel id is too long")
			c.Abort()
			return
		}
		keyed(c)
	}
}

// AgentHandler serves the agent tools over streamable HTTP. A channel session
// gets the channel toolset for the platform its API key belongs to. A
// personal session gets the personal toolset bound to the token's user. The
// scope is fixed when the session is initialised.
func (a *API) AgentHandler() gin.HandlerFunc {
	deps := agenttools.Deps{Events: a.Events, Games: a.Games, Users: a.Users, Logger: a.Log}
	h := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		if r.Header.Get(headerChannelID) != "" {
			return agenttools.NewServer(deps, a.channelAgentScope(r), a.Version)
		}
		userID, ok := r.Context().Value(agentUserKey{}).(uuid.UUID)
		if !ok {
			return nil
		}
		return agenttools.NewServer(deps, actor.Personal(), a.Version, agenttools.ActingAs(actor.AppUser(userID)))
	}, nil)

	return func(c *gin.Context) {
		if userID, ok := getUserIDFromContext(c); ok {
			c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), agentUserKey{}, userID))
		}
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func (a *API) channelAgentScope(r *http.Request) actor.Scope {
	// AgentAuth already vetted the key.
	source, _ := actor.ParsePlatform(a.IntegrationKeys[r.Header.Get(headerAPIKey)])
	members, labels := parseChannelMembers(r.Header.Get(headerChannelMembers))
	return actor.Channel(r.Header.Get(headerChannelID), source, members).WithLabels(labels)
}
