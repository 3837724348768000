package socket

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Handler handles websocket connections
type Handler struct {
	service *Service
	rdb     *redis.Client
}

// NewHandler creates a new socket handler
func NewHandler(service *Service, rdb *redis.Client) *Handler {
	return &Handler{service, rdb}
}

// CurrentConnectionCount returns the number of connected clients
func (h *Handler) CurrentConnectionCount() int {
	return h.service.CurrentConnectionCount()
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connect upgrades the request and relays namespace events. The client
// sends a ChannelRequest to select channels; a later request replaces the
// selection.
func (h *Handler) Connect(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("failed to upgrade websocket", slog.String("error", err.Error()))
		return err
	}

	h.service.AddClient(ws)
	defer func() {
		h.service.RemoveClient(ws)
		ws.Close()
	}()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	pubsub := h.rdb.Subscribe(ctx)
	defer pubsub.Close()

	go func() {
		for {
			msg, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}

			err = ws.WriteMessage(websocket.TextMessage, []byte(msg.Payload))
			if err != nil {
				slog.Error("failed to write websocket message", slog.String("error", err.Error()))
				return
			}
		}
	}()

	for {
		var request ChannelRequest
		err := ws.ReadJSON(&request)
		if err != nil {
			break
		}

		err = pubsub.Unsubscribe(ctx)
		if err != nil {
			slog.Error("failed to unsubscribe", slog.String("error", err.Error()))
			break
		}

		if len(request.Channels) > 0 {
			err = pubsub.Subscribe(ctx, request.Channels...)
			if err != nil {
				slog.Error("failed to subscribe", slog.String("error", err.Error()))
				break
			}
		}
	}

	return nil
}
