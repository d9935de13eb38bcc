package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/examguard/examguard-backend/internal/config"
	"github.com/examguard/examguard-backend/internal/middleware"
	"github.com/examguard/examguard-backend/internal/model"
	ws "github.com/examguard/examguard-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler relays live proctoring signaling between a student under
// exam and admin watchers. The relay is stateless: frames travel through
// per-student Redis pub/sub channels, so watcher and student may land on
// different server instances.
type MonitorHandler struct {
	rdb      *redis.Client
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(rdb *redis.Client, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		rdb:      rdb,
		log:      log.With().Str("component", "monitor_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// Publish godoc
// WS /ws/v1/monitor/publish?token=...
// The student's side of the relay. Inbound signal frames are published to
// the student's signal channel; control frames from watchers are forwarded
// back over the socket.
func (h *MonitorHandler) Publish(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.Role != model.RoleStudent {
		c.JSON(http.StatusForbidden, gin.H{"error": "student token required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	studentID := claims.UserID
	wsLog := h.log.With().Int("student_id", studentID).Logger()
	wsLog.Info().Msg("Student publisher connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Forward admin control frames back to the student.
	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.MonitorControlChannel(studentID))
	defer pubsub.Close()

	go func() {
		for msg := range pubsub.Channel() {
			if err := ws.WriteTyped(conn, ws.SignalResponse{
				Event: ws.EventSignal,
				Data:  msg.Payload,
			}); err != nil {
				return
			}
		}
	}()

	signalChannel := config.CacheKey.MonitorSignalChannel(studentID)

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Publisher disconnected")
			}
			return
		}

		switch msg.Action {
		case ws.ActionSignal:
			if err := h.rdb.Publish(ctx, signalChannel, msg.Data).Err(); err != nil {
				wsLog.Error().Err(err).Msg("Signal publish failed")
				ws.WriteError(conn, "relay unavailable")
			}
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}

// Watch godoc
// WS /ws/v1/monitor/watch/:student_id?token=...
// The admin's side of the relay. The watcher receives everything the
// student publishes and can send control frames back.
func (h *MonitorHandler) Watch(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil || claims.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin token required"})
		return
	}

	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid student ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().
		Int("admin_id", claims.UserID).
		Int("student_id", studentID).
		Logger()
	wsLog.Info().Msg("Admin watcher attached")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.rdb.Subscribe(ctx, config.CacheKey.MonitorSignalChannel(studentID))
	defer pubsub.Close()

	go func() {
		for msg := range pubsub.Channel() {
			if err := ws.WriteTyped(conn, ws.SignalResponse{
				Event: ws.EventSignal,
				From:  studentID,
				Data:  msg.Payload,
			}); err != nil {
				return
			}
		}
	}()

	controlChannel := config.CacheKey.MonitorControlChannel(studentID)

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			wsLog.Debug().Msg("Watcher disconnected")
			return
		}

		switch msg.Action {
		case ws.ActionSignal:
			if err := h.rdb.Publish(ctx, controlChannel, msg.Data).Err(); err != nil {
				wsLog.Error().Err(err).Msg("Control publish failed")
				ws.WriteError(conn, "relay unavailable")
			}
		case ws.ActionPing:
			ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
		default:
			ws.WriteError(conn, "unknown action: "+string(msg.Action))
		}
	}
}
