package main

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"gamenight-backend/internal/apperr"
	"gamenight-backend/internal/events"
	"gamenight-backend/internal/friends"
	"gamenight-backend/internal/games"
	"gamenight-backend/internal/users"
)

// API holds the services behind the HTTP handlers.
type API struct {
	Events  *events.Service
	Friends *friends.Service
	Users   *users.Service
	Games   *games.Service
	Tokens  *TokenIssuer
	Log     *slog.Logger
	// IntegrationKeys maps integration API keys to their platform name.
	IntegrationKeys map[string]string
	Version         string
}

func jsonError(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"error": msg})
}

// respondError writes err using the status its kind maps to. Errors without
// a kind are logged and reported as a bare 500.
func (a *API) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		a.Log.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
		jsonError(c, status, "internal error")
		return
	}
	c.JSON(status, gin.H{"error": err.Error(), "kind": apperr.KindOf(err)})
}

// pathID parses the UUID path parameter name. On failure it writes a 400 and
// returns false.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		jsonError(c, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		jsonError(c, http.StatusBadRequest, name+" must be an integer")
		return 0, false
	}
	return n, true
}

func (a *API) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": a.Version})
}
