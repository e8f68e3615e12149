package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircsession/internal/auth"
	"github.com/vovakirdan/ircsession/internal/core"
	"github.com/vovakirdan/ircsession/internal/proto"
	"github.com/vovakirdan/ircsession/internal/store"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	session     *core.Session
	encoder     *core.Encoder
	entries     store.EntryStore
	authService *auth.Service
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance. entries may be nil
// when the transcript is disabled.
func NewAPIHandlers(deps Deps, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		session:     deps.Session,
		encoder:     deps.Encoder,
		entries:     deps.Entries,
		authService: deps.Auth,
		log:         logger,
	}
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Login exchanges the operator password for a token.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Login(req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		case errors.Is(err, auth.ErrDisabled):
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "authentication disabled"})
		default:
			h.log.Error().Err(err).Msg("failed to login operator")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Msg("operator logged in")
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

// Self returns the session identity and connection status.
// GET /api/self
func (h *APIHandlers) Self(c *gin.Context) {
	self := h.session.Self()
	c.JSON(http.StatusOK, proto.Self{
		Nick:     self.Nick,
		Username: self.Username,
		Realname: self.Realname,
		Status:   h.session.Status().String(),
	})
}

// ListChannels returns snapshots of all joined channels.
// GET /api/channels
func (h *APIHandlers) ListChannels(c *gin.Context) {
	channels := []proto.Channel{}
	for ch := range h.session.Channels() {
		channels = append(channels, channelToProto(ch))
	}
	c.JSON(http.StatusOK, gin.H{"channels": channels})
}

// GetChannel returns one channel snapshot.
// GET /api/channels/:name
func (h *APIHandlers) GetChannel(c *gin.Context) {
	ch, ok := h.session.Channel(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "channel not found"})
		return
	}
	c.JSON(http.StatusOK, channelToProto(ch))
}

// GetUser returns a snapshot of a user sharing a channel with the session.
// GET /api/users/:nick
func (h *APIHandlers) GetUser(c *gin.Context) {
	u, ok := h.session.User(c.Param("nick"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		return
	}
	c.JSON(http.StatusOK, userToProto(u))
}

// History returns transcript entries for a channel or query partner.
// GET /api/channels/:name/history?limit=50&before=123
func (h *APIHandlers) History(c *gin.Context) {
	if h.entries == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "transcript disabled"})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	var beforeID *int64
	if raw := c.Query("before"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid before"})
			return
		}
		beforeID = &id
	}

	target := c.Param("name")
	entries, err := h.entries.ListEntries(c.Request.Context(), h.session.Fold(target), limit, beforeID)
	if err != nil {
		h.log.Error().Err(err).Str("target", target).Msg("failed to list transcript")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	out := make([]proto.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToProto(e))
	}
	c.JSON(http.StatusOK, gin.H{"target": target, "entries": out})
}

// ListTargets returns every channel or query partner with transcript entries.
// GET /api/targets
func (h *APIHandlers) ListTargets(c *gin.Context) {
	if h.entries == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "transcript disabled"})
		return
	}

	targets, err := h.entries.ListTargets(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list transcript targets")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if targets == nil {
		targets = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"targets": targets})
}
