package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"thrift/internal/geo"
	"thrift/internal/marketplace"
	"thrift/internal/notifications"
	"thrift/models"
)

type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// drainFrames empties the client's send buffer without blocking.
func drainFrames(t *testing.T, c *notifications.Client) []wsFrame {
	t.Helper()
	var frames []wsFrame
	for {
		select {
		case raw := <-c.Send:
			var f wsFrame
			require.NoError(t, json.Unmarshal(raw, &f))
			frames = append(frames, f)
		default:
			return frames
		}
	}
}

func TestHandleWSCommand(t *testing.T) {
	downtown := geo.Point{Lat: 29.7604, Lng: -95.3698}

	tests := []struct {
		name      string
		message   string
		wantEvent string
		check     func(t *testing.T, ctrl *marketplace.Controller)
	}{
		{
			name:      "Invalid JSON",
			message:   `{"type":`,
			wantEvent: notifications.EventError,
		},
		{
			name:      "Set filter without filter",
			message:   `{"type":"set_filter"}`,
			wantEvent: notifications.EventError,
		},
		{
			name:    "Set filter",
			message: `{"type":"set_filter","filter":{"college":"McMurtry","sort":"price_desc"}}`,
			check: func(t *testing.T, ctrl *marketplace.Controller) {
				assert.Equal(t, models.McMurtry, ctrl.Filter().College)
				assert.Equal(t, []uint{2}, listingIDs(ctrl.Listings()))
			},
		},
		{
			name:      "Set filter with zero distance",
			message:   `{"type":"set_filter","filter":{"max_distance_miles":0}}`,
			wantEvent: notifications.EventError,
			check: func(t *testing.T, ctrl *marketplace.Controller) {
				assert.Zero(t, ctrl.Filter().MaxDistanceMiles)
			},
		},
		{
			name:    "Toggle wishlist",
			message: `{"type":"toggle_wishlist","item_id":2}`,
			check: func(t *testing.T, ctrl *marketplace.Controller) {
				assert.True(t, ctrl.IsWishlisted(2))
			},
		},
		{
			name:      "Toggle wishlist unknown item",
			message:   `{"type":"toggle_wishlist","item_id":99}`,
			wantEvent: notifications.EventError,
			check: func(t *testing.T, ctrl *marketplace.Controller) {
				assert.False(t, ctrl.IsWishlisted(99))
			},
		},
		{
			name:    "Set location",
			message: `{"type":"set_location","location":{"lat":29.7604,"lng":-95.3698}}`,
			check: func(t *testing.T, ctrl *marketplace.Controller) {
				assert.Zero(t, ctrl.Distance(downtown))
			},
		},
		{
			name:      "Set location out of range",
			message:   `{"type":"set_location","location":{"lat":91,"lng":0}}`,
			wantEvent: notifications.EventError,
			check: func(t *testing.T, ctrl *marketplace.Controller) {
				assert.Zero(t, ctrl.Distance(campus), "viewer stays put")
			},
		},
		{
			name:      "Set location missing",
			message:   `{"type":"set_location"}`,
			wantEvent: notifications.EventError,
		},
		{
			name:    "Refresh",
			message: `{"type":"refresh"}`,
		},
		{
			name:      "Resync sends state",
			message:   `{"type":"resync"}`,
			wantEvent: notifications.EventState,
		},
		{
			name:      "Unknown command",
			message:   `{"type":"teleport"}`,
			wantEvent: notifications.EventError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t).withCatalog()
			ts.items.On("GetByID", mock.Anything, uint(99)).Return(nil, models.NewNotFoundError("Item", 99))

			ctx := context.Background()
			ctrl, err := ts.registry.Open(ctx, 1)
			require.NoError(t, err)

			hub := notifications.NewHub()
			client, err := hub.Register(1, nil)
			require.NoError(t, err)
			t.Cleanup(func() { hub.UnregisterClient(client) })

			ts.handleWSCommand(ctx, client, ctrl, []byte(tt.message))

			frames := drainFrames(t, client)
			if tt.wantEvent == "" {
				assert.Empty(t, frames)
			} else {
				require.Len(t, frames, 1)
				assert.Equal(t, tt.wantEvent, frames[0].Type)
			}
			if tt.wantEvent == notifications.EventState {
				var st marketplace.State
				require.NoError(t, json.Unmarshal(frames[0].Payload, &st))
				assert.Equal(t, uint(1), st.ViewerID)
			}
			if tt.check != nil {
				tt.check(t, ctrl)
			}
		})
	}
}

func listingIDs(views []marketplace.ListingView) []uint {
	out := make([]uint, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}
