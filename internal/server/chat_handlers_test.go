package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"thrift/models"
)

func TestSendMessage(t *testing.T) {
	tests := []struct {
		name           string
		viewer         string
		path           string
		body           string
		mockSetup      func(ts *testServer)
		expectedStatus int
	}{
		{
			name:   "Buyer writes to seller",
			viewer: "1",
			path:   "/chats/1/messages",
			body:   `{"receiver_id":2,"text":"  still available?  "}`,
			mockSetup: func(ts *testServer) {
				thread := &models.ChatThread{ID: 5, ItemID: 1, BuyerID: 1, SellerID: 2}
				ts.chats.On("FindOrCreateThread", mock.Anything, uint(1), uint(1), uint(2)).Return(thread, nil)
				ts.chats.On("AppendMessage", mock.Anything, thread, mock.MatchedBy(func(m *models.ChatMessage) bool {
					return m.Text == "still available?" && m.SenderID == 1 && m.ReceiverID == 2 && m.ID != ""
				})).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "Missing receiver",
			viewer:         "1",
			path:           "/chats/1/messages",
			body:           `{"text":"hi"}`,
			mockSetup:      func(*testServer) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Seller messaging themselves",
			viewer:         "2",
			path:           "/chats/1/messages",
			body:           `{"receiver_id":2,"text":"hi"}`,
			mockSetup:      func(*testServer) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Neither party is the seller",
			viewer:         "1",
			path:           "/chats/1/messages",
			body:           `{"receiver_id":3,"text":"hi"}`,
			mockSetup:      func(*testServer) {},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Blank text",
			viewer:         "1",
			path:           "/chats/1/messages",
			body:           `{"receiver_id":2,"text":"   "}`,
			mockSetup:      func(*testServer) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid item ID",
			viewer:         "1",
			path:           "/chats/x/messages",
			body:           `{"receiver_id":2,"text":"hi"}`,
			mockSetup:      func(*testServer) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t).withCatalog()
			tt.mockSetup(ts)
			app := ts.app()
			app.Post("/chats/:itemId/messages", ts.SendMessage)

			req := httptest.NewRequest(http.MethodPost, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("X-Viewer-ID", tt.viewer)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			ts.chats.AssertExpectations(t)
		})
	}
}

func TestGetThread(t *testing.T) {
	ts := newTestServer(t).withCatalog()
	ts.chats.On("GetThread", mock.Anything, uint(1), uint(1)).
		Return(&models.ChatThread{ID: 5, ItemID: 1, BuyerID: 1, SellerID: 2}, nil)
	app := ts.app()
	app.Get("/chats/:itemId", ts.GetThread)

	tests := []struct {
		name           string
		viewer         string
		path           string
		expectedStatus int
	}{
		{name: "Buyer", viewer: "1", path: "/chats/1", expectedStatus: http.StatusOK},
		{name: "Seller names buyer", viewer: "2", path: "/chats/1?with=1", expectedStatus: http.StatusOK},
		{name: "Seller without buyer", viewer: "2", path: "/chats/1", expectedStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("X-Viewer-ID", tt.viewer)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestGetInbox(t *testing.T) {
	ts := newTestServer(t)
	ts.chats.On("ListInbox", mock.Anything, uint(1)).Return([]models.InboxEntry{
		{Thread: models.ChatThread{ID: 5, ItemID: 1, BuyerID: 1, SellerID: 2}},
	}, nil)
	app := ts.app()
	app.Get("/chats", ts.GetInbox)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/chats", nil))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
