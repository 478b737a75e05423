package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gamenight-backend/internal/games"
)

// ListGames handles GET /api/games?q=&limit=&offset=
func (a *API) ListGames(c *gin.Context) {
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset")
	if !ok {
		return
	}
	list, err := a.Games.List(c.Request.Context(), c.Query("q"), limit, offset)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (a *API) CreateGame(c *gin.Context) {
	var body games.CreateInput
	if err := c.ShouldBindJSON(&body); err != nil {
		jsonError(c, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	g, err := a.Games.Create(c.Request.Context(), body)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (a *API) GetGame(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	g, err := a.Games.Get(c.Request.Context(), id)
	if err != nil {
		a.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}
