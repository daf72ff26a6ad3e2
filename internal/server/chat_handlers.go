package server

import (
	"github.com/gofiber/fiber/v2"

	"thrift/internal/middleware"
	"thrift/internal/service"
	"thrift/models"
)

func (s *Server) chatSvc() *service.ChatService {
	if s.chatService == nil {
		s.chatService = service.NewChatService(s.chatRepo, s.itemRepo)
	}
	return s.chatService
}

// GetInbox handles GET /api/chats
// @Summary Viewer's inbox
// @Description Threads newest activity first, each with its item and last message.
// @Tags chat
// @Produce json
// @Success 200 {array} models.InboxEntry
// @Router /chats [get]
func (s *Server) GetInbox(c *fiber.Ctx) error {
	entries, err := s.chatSvc().Inbox(c.UserContext(), middleware.ViewerID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// GetThread handles GET /api/chats/:itemId
// Sellers pass ?with=<buyer id> to pick a conversation.
func (s *Server) GetThread(c *fiber.Ctx) error {
	itemID, err := s.parseID(c, "itemId")
	if err != nil {
		return nil
	}
	with := c.QueryInt("with", 0)
	if with < 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid with"))
	}

	thread, err := s.chatSvc().Thread(c.UserContext(), middleware.ViewerID(c), itemID, uint(with))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(thread)
}

// SendMessage handles POST /api/chats/:itemId/messages
// @Summary Send a chat message about an item
// @Tags chat
// @Accept json
// @Produce json
// @Param itemId path int true "Item ID"
// @Param request body object{receiver_id=int,text=string} true "Message"
// @Success 201 {object} models.ChatMessage
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /chats/{itemId}/messages [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	itemID, err := s.parseID(c, "itemId")
	if err != nil {
		return nil
	}
	var req struct {
		ReceiverID uint   `json:"receiver_id"`
		Text       string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.ReceiverID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("receiver_id is required"))
	}

	msg, err := s.chatSvc().Send(c.UserContext(), service.SendMessageInput{
		SenderID:   middleware.ViewerID(c),
		ItemID:     itemID,
		ReceiverID: req.ReceiverID,
		Text:       req.Text,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
