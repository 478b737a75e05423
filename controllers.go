package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gamenight-backend/internal/actor"
	"gamenight-backend/internal/events"
	"gamenight-backend/internal/models"
)

// The event handlers serve both the personal routes under /api/events and
// the channel routes under /api/channels/:channel_id/events. The middleware
// in front decides the scope and the actor.

// eventCall loads the caller and the :id path parameter.
func eventCall(c *gin.Context) (actor.Scope, actor.MemberRef, uuid.UUID, bool) {
	scope, who, ok := callerFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return actor.Scope{}, actor.MemberRef{}, uuid.Nil, false
	}
	id, ok := pathID(c, "id")
	if !ok {
		return actor.Scope{}, actor.MemberRef{}, uuid.Nil, false
	}
	return scope, who, id, true
}

func (a *API) CreateEvent(c *gin.Context) {
	scope, who, ok := callerFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body events.CreateInput
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	ev, err := a.Events.Create(c.Request.Context(), scope, who, body)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ev)
}

// ListEvents handles GET .../events?status=&include_cancelled=&members_only=&limit=&offset=
func (a *API) ListEvents(c *gin.Context) {
	scope, who, ok := callerFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
		return
	}
	var f events.ListFilter
	if raw := c.Query("status"); raw != "" {
		st, err := actor.ParseEventStatus(raw)
		if err != nil {
			a.respondError(c, err)
			return
		}
		f.Status = &st
	}
	f.IncludeCancelled, _ = strconv.ParseBool(c.Query("include_cancelled"))
	f.MembersOnly, _ = strconv.ParseBool(c.Query("members_only"))
	if f.Limit, ok = queryInt(c, "limit"); !ok {
		return
	}
	if f.Offset, ok = queryInt(c, "offset"); !ok {
		return
	}

	list, err := a.Events.List(c.Request.Context(), scope, who, f)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) GetEvent(c *gin.Context) {
	scope, who, id, ok := eventCall(c)
	if !ok {
		return
	}
	ev, err := a.Events.Get(c.Request.Context(), scope, who, id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (a *API) UpdatePlan(c *gin.Context) {
	scope, who, id, ok := eventCall(c)
	if !ok {
		return
	}
	var body events.PlanUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	ev, err := a.Events.UpdatePlan(c.Request.Context(), scope, who, id, body)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (a *API) SetStatus(c *gin.Context) {
	scope, who, id, ok := eventCall(c)
	if !ok {
		return
	}
	var body StatusRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	ev, err := a.Events.SetStatus(c.Request.Context(), scope, who, id, models.EventStatus(body.Status))
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

func (a *API) ConfirmPlan(c *gin.Context) {
	scope, who, id, ok := eventCall(c)
	if !ok {
		return
	}
	m, err := a.Events.ConfirmPlan(c.Request.Context(), scope, who, id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (a *API) DeleteEvent(c *gin.Context) {
	scope, who, id, ok := eventCall(c)
	if !ok {
		return
	}
	if err := a.Events.Delete(c.Request.Context(), scope, who, id); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "event deleted"})
}

type InviteRequest struct {
	// Invitee is a user id, or a platform id on channel routes.
	Invitee string `json:"invitee" binding:"required"`
	Role    string `json:"role"`
}

func (a *API) InviteMember(c *gin.Context) {
	scope, who, id, ok := eventCall(c)
	if !ok {
		return
	}
	var body InviteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	invitee, err := actor.Resolve(body.Invitee, scope)
	if err != nil {
		a.respondError(c, err)
		return
	}
	role := models.RoleAttendee
	if body.Role != "" {
		if role, err = actor.ParseRole(body.Role); err != nil {
			a.respondError(c, err)
			return
		}
	}
	m, err := a.Events.Invite(c.Request.Context(), scope, who, id, invitee, role)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (a *API) AcceptInvite(c *gin.Context) {
	scope, who, id, ok := eventCall(c)
	if !ok {
		return
	}
	m, err := a.Events.Accept(c.Request.Context(), scope, who, id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (a *API) DeclineInvite(c *gin.Context) {
	scope, who, id, ok := eventCall(c)
	if !ok {
		return
	}
	if err := a.Events.Decline(c.Request.Context(), scope, who, id); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "invitation declined"})
}

func (a *API) LeaveEvent(c *gin.Context) {
	scope, who, id, ok := eventCall(c)
	if !ok {
		return
	}
	if err := a.Events.Leave(c.Request.Context(), scope, who, id); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "left event"})
}

type MessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func (a *API) PostMessage(c *gin.Context) {
	scope, who, id, ok := eventCall(c)
	if !ok {
		return
	}
	var body MessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	msg, err := a.Events.PostMessage(c.Request.Context(), scope, who, id, body.Content)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// ListMessages handles GET .../messages?before=<message id>&limit=
func (a *API) ListMessages(c *gin.Context) {
	scope, who, id, ok := eventCall(c)
	if !ok {
		return
	}
	var before *uuid.UUID
	if raw := c.Query("before"); raw != "" {
		b, err := uuid.Parse(raw)
		if err != nil {
			jsonError(c, http.StatusBadRequest, "invalid before")
			return
		}
		before = &b
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	msgs, err := a.Events.ListMessages(c.Request.Context(), scope, who, id, before, limit)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

// PostAnnouncement lets an integration post a SYSTEM message on one of its
// channel's events.
func (a *API) PostAnnouncement(c *gin.Context) {
	scope, who, id, ok := eventCall(c)
	if !ok {
		return
	}
	var body MessageRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	if _, err := a.Events.Get(c.Request.Context(), scope, who, id); err != nil {
		a.respondError(c, err)
		return
	}
	msg, err := a.Events.PostSystemMessage(c.Request.Context(), id, body.Content)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
