package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gamenight-backend/internal/actor"
	"gamenight-backend/internal/models"
)

const (
	ctxUserID = "user_id"
	ctxScope  = "scope"
	ctxActor  = "actor"
	ctxSource = "platform"

	headerAPIKey         = "X-API-Key"
	headerActor          = "X-Actor"
	headerChannelID      = "X-Channel-ID"
	headerChannelMembers = "X-Channel-Members"

	// maxChannelIDLen matches the width of events.channel_id.
	maxChannelIDLen = 128
)

// AuthMiddleware authenticates app users by bearer token and puts them in
// the personal scope.
func AuthMiddleware(tokens *TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			jsonError(c, http.StatusUnauthorized, "Missing Authorization header")
			c.Abort()
			return
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			jsonError(c, http.StatusUnauthorized, "Invalid token format")
			c.Abort()
			return
		}

		userID, err := tokens.ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token", "details": err.Error()})
			c.Abort()
			return
		}

		c.Set(ctxUserID, userID)
		c.Set(ctxScope, actor.Personal())
		c.Set(ctxActor, actor.AppUser(userID))
		c.Next()
	}
}

// IntegrationKeyMiddleware admits integrations that present a known API key
// and records the platform the key belongs to.
func IntegrationKeyMiddleware(keys map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name, ok := keys[c.GetHeader(headerAPIKey)]
		if !ok || c.GetHeader(headerAPIKey) == "" {
			jsonError(c, http.StatusUnauthorized, "invalid API key")
			c.Abort()
			return
		}
		platform, err := actor.ParsePlatform(name)
		if err != nil {
			jsonError(c, http.StatusUnauthorized, "API key is bound to an unknown platform")
			c.Abort()
			return
		}
		c.Set(ctxSource, platform)
		c.Next()
	}
}

// ChannelMiddleware resolves the acting channel member for routes under
// /api/channels/:channel_id. It runs after IntegrationKeyMiddleware.
func ChannelMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		channelID := c.Param("channel_id")
		if len(channelID) > maxChannelIDLen {
			jsonError(c, http.StatusBadRequest, "channel id is too long")
			c.Abort()
			return
		}
		scope := channelScope(c, channelID)
		who, err := actor.Resolve(c.GetHeader(headerActor), scope)
		if err != nil {
			jsonError(c, http.StatusBadRequest, err.Error())
			c.Abort()
			return
		}
		c.Set(ctxScope, scope)
		c.Set(ctxActor, who)
		c.Next()
	}
}

// channelScope builds the scope of a channel request.
func channelScope(c *gin.Context, channelID string) actor.Scope {
	platform, _ := c.Get(ctxSource)
	source, _ := platform.(models.MemberSource)
	members, labels := parseChannelMembers(c.GetHeader(headerChannelMembers))
	return actor.Channel(channelID, source, members).WithLabels(labels)
}

// parseChannelMembers reads an X-Channel-Members header: the external ids
// present in the channel, comma separated, each optionally followed by
// "=Display Name". An empty header yields a nil list.
func parseChannelMembers(raw string) ([]string, map[string]string) {
	if raw == "" {
		return nil, nil
	}
	members := []string{}
	labels := map[string]string{}
	for _, part := range strings.Split(raw, ",") {
		id, label, _ := strings.Cut(strings.TrimSpace(part), "=")
		if id == "" {
			continue
		}
		members = append(members, id)
		if label = strings.TrimSpace(label); label != "" {
			labels[id] = label
		}
	}
	return members, labels
}

// getUserIDFromContext returns the user id set by AuthMiddleware.
func getUserIDFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// callerFromContext returns the scope and actor set by AuthMiddleware or
// ChannelMiddleware.
func callerFromContext(c *gin.Context) (actor.Scope, actor.MemberRef, bool) {
	s, ok := c.Get(ctxScope)
	if !ok {
		return actor.Scope{}, actor.MemberRef{}, false
	}
	w, ok := c.Get(ctxActor)
	if !ok {
		return actor.Scope{}, actor.MemberRef{}, false
	}
	scope, ok1 := s.(actor.Scope)
	who, ok2 := w.(actor.MemberRef)
	return scope, who, ok1 && ok2
}
