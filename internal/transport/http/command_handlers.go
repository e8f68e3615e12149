package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vovakirdan/ircsession/internal/core"
	"github.com/vovakirdan/ircsession/internal/proto"
)

// SentResponse is returned once a command was handed to the connection.
type SentResponse struct {
	Status string `json:"status"`
}

// Say sends a message, notice or action.
// POST /api/say
func (h *APIHandlers) Say(c *gin.Context) {
	var req proto.SayRequest
	if !h.bind(c, &req) {
		return
	}

	var err error
	switch {
	case req.Action:
		err = h.encoder.Action(req.Target, req.Text)
	case req.Notice:
		err = h.encoder.Notice(req.Target, req.Text)
	default:
		err = h.encoder.Say(req.Target, req.Text)
	}
	h.respond(c, "say", err)
}

// Join joins a channel.
// POST /api/join
func (h *APIHandlers) Join(c *gin.Context) {
	var req proto.JoinRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c, "join", h.encoder.Join(req.Channel, req.Key))
}

// Part leaves a channel.
// POST /api/part
func (h *APIHandlers) Part(c *gin.Context) {
	var req proto.PartRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c, "part", h.encoder.Part(req.Channel, req.Reason))
}

// Topic sets a channel topic; an empty topic clears it. With query set the
// current topic is requested instead and arrives as a topic_changed reply.
// POST /api/topic
func (h *APIHandlers) Topic(c *gin.Context) {
	var req proto.TopicRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Query {
		h.respond(c, "topic", h.encoder.GetTopic(req.Channel))
		return
	}
	h.respond(c, "topic", h.encoder.SetTopic(req.Channel, req.Topic))
}

// Names asks the server for a fresh channel roster.
// POST /api/names
func (h *APIHandlers) Names(c *gin.Context) {
	var req proto.NamesRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c, "names", h.encoder.Names(req.Channel))
}

// Ping sends a PING with the given token, or the current time when empty.
// The server's PONG shows up on the event feed as a raw event.
// POST /api/ping
func (h *APIHandlers) Ping(c *gin.Context) {
	var req proto.PingRequest
	if !h.bind(c, &req) {
		return
	}
	if req.Token == "" {
		req.Token = strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	h.respond(c, "ping", h.encoder.Ping(req.Token))
}

// Raw sends one protocol line as is.
// POST /api/raw
func (h *APIHandlers) Raw(c *gin.Context) {
	var req proto.RawRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c, "raw", h.encoder.Raw(req.Line))
}

// Nick requests a nick change.
// POST /api/nick
func (h *APIHandlers) Nick(c *gin.Context) {
	var req proto.NickRequest
	if !h.bind(c, &req) {
		return
	}
	h.respond(c, "nick", h.encoder.ChangeNick(req.Nick))
}

func (h *APIHandlers) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("invalid command request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func (h *APIHandlers) respond(c *gin.Context, command string, err error) {
	if err == nil {
		c.JSON(http.StatusAccepted, SentResponse{Status: "sent"})
		return
	}

	code := core.ErrorCode(err)
	switch {
	case errors.Is(err, core.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: code})
	case errors.Is(err, core.ErrMessageTooLong):
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: err.Error(), Code: code})
	case errors.Is(err, core.ErrNotConnected):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "not connected", Code: code})
	default:
		h.log.Error().Err(err).Str("command", command).Msg("failed to send command")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: "send failed"})
	}
}
