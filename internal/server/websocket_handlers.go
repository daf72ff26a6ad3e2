package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"thrift/internal/geo"
	"thrift/internal/marketplace"
	"thrift/internal/middleware"
	"thrift/internal/notifications"
)

// wsCommand is a client request sent over the marketplace socket.
type wsCommand struct {
	Type     string         `json:"type"`
	Filter   *filterRequest `json:"filter,omitempty"`
	ItemID   uint           `json:"item_id,omitempty"`
	Location *geo.Point     `json:"location,omitempty"`
}

// MarketplaceWebSocket handles GET /api/ws/marketplace. The socket receives a
// state frame on connect and after every change to the viewer's marketplace.
// Clients may send set_filter, toggle_wishlist, set_location, refresh and resync
// commands.
func (s *Server) MarketplaceWebSocket() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		viewerID, _ := conn.Locals(middleware.ViewerLocal).(uint)
		ctx := context.WithValue(context.Background(), middleware.ViewerIDKey, viewerID)

		ctrl, err := s.registry.Open(ctx, viewerID)
		if err != nil {
			s.logger.WarnContext(ctx, "websocket: failed to open marketplace", slog.String("error", err.Error()))
			writeWSError(conn, err.Error())
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(viewerID, conn)
		if err != nil {
			s.logger.WarnContext(ctx, "websocket: failed to register", slog.String("error", err.Error()))
			writeWSError(conn, err.Error())
			_ = conn.Close()
			return
		}

		client.IncomingHandler = func(c *notifications.Client, message []byte) {
			s.handleWSCommand(ctx, c, ctrl, message)
		}

		if payload, err := notifications.Encode(notifications.EventState, ctrl.State()); err == nil {
			client.TrySend(payload)
		}

		// Write pump in a goroutine; read pump blocks until the peer goes away.
		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}

func (s *Server) handleWSCommand(ctx context.Context, c *notifications.Client, ctrl *marketplace.Controller, message []byte) {
	var cmd wsCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		sendWSError(c, "invalid message")
		return
	}

	// Every successful command ends in a state push through the registry's
	// change hook, so nothing is echoed here.
	switch strings.ToLower(strings.TrimSpace(cmd.Type)) {
	case "set_filter":
		if cmd.Filter == nil {
			sendWSError(c, "filter is required")
			return
		}
		if err := applyFilter(ctrl, *cmd.Filter); err != nil {
			sendWSError(c, err.Error())
		}
	case "toggle_wishlist":
		if _, err := s.itemSvc().GetItem(ctx, cmd.ItemID); err != nil {
			sendWSError(c, err.Error())
			return
		}
		ctrl.ToggleWishlist(ctx, cmd.ItemID)
	case "set_location":
		// Session-only; the stored profile changes through PUT /api/profile.
		p := cmd.Location
		if p == nil || p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			sendWSError(c, "a valid location is required")
			return
		}
		ctrl.SetLocation(*p)
	case "refresh":
		ctrl.Refresh()
	case "resync":
		if payload, err := notifications.Encode(notifications.EventState, ctrl.State()); err == nil {
			c.TrySend(payload)
		}
	default:
		sendWSError(c, "unknown command "+cmd.Type)
	}
}

func sendWSError(c *notifications.Client, msg string) {
	if payload, err := notifications.Encode(notifications.EventError, fiber.Map{"message": msg}); err == nil {
		c.TrySend(payload)
	}
}

func writeWSError(conn *websocket.Conn, msg string) {
	if payload, err := notifications.Encode(notifications.EventError, fiber.Map{"message": msg}); err == nil {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
}
