package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentUser returns the authenticated user id or writes a 401.
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := getUserIDFromContext(c)
	if !ok {
		jsonError(c, http.StatusUnauthorized, "unauthorized")
	}
	return id, ok
}

func (a *API) ListFriends(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	list, err := a.Friends.List(c.Request.Context(), me)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) ListFriendRequests(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	reqs, err := a.Friends.Requests(c.Request.Context(), me)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

type FriendRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

func (a *API) SendFriendRequest(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	var body FriendRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	f, err := a.Friends.Send(c.Request.Context(), me, body.UserID)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, f)
}

func (a *API) AcceptFriendRequest(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	from, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	if err := a.Friends.Accept(c.Request.Context(), me, from); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "friend request accepted"})
}

func (a *API) DeclineFriendRequest(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	from, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	if err := a.Friends.Decline(c.Request.Context(), me, from); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "friend request declined"})
}

func (a *API) RemoveFriend(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	other, ok := pathID(c, "user_id")
	if !ok {
		return
	}
	if err := a.Friends.Remove(c.Request.Context(), me, other); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "friend removed"})
}
