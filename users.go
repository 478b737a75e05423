package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *API) Me(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	u, err := a.Users.Get(c.Request.Context(), me)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// FindUsers handles GET /api/users?username=&email=&limit=
func (a *API) FindUsers(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	list, err := a.Users.Find(c.Request.Context(), c.Query("username"), c.Query("email"), limit)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) GetUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := a.Users.Get(c.Request.Context(), id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (a *API) DeleteMe(c *gin.Context) {
	me, ok := currentUser(c)
	if !ok {
		return
	}
	if err := a.Users.Delete(c.Request.Context(), me); err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}
