package handler

import (
	"net/http"
	"strconv"

	"github.com/prithvirajx-max/Driftyy-sub001/internal/repo"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChatHandler serves the REST glue beside the socket server: message
// history and the out-of-band read update.
type ChatHandler interface {
	GetPrivateHistory(c *gin.Context)
	GetGroupHistory(c *gin.Context)
	MarkMessageRead(c *gin.Context)
}

type chatHandler struct {
	messages repo.MessageRepository
	groups   repo.GroupRepository
	logger   *zap.Logger
}

func NewChatHandler(messages repo.MessageRepository, groups repo.GroupRepository, logger *zap.Logger) ChatHandler {
	return &chatHandler{
		messages: messages,
		groups:   groups,
		logger:   logger,
	}
}

// GetPrivateHistory returns a page of the conversation between two users.
func (h *chatHandler) GetPrivateHistory(c *gin.Context) {
	userID := c.Query("userId")
	peerID := c.Param("peerId")
	if userID == "" || peerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "userId and peerId are required",
		})
		return
	}

	page, ok := parsePage(c)
	if !ok {
		return
	}

	msgs, err := h.messages.ListPrivateMessages(c.Request.Context(), userID, peerID, page)
	if err != nil {
		h.logger.Error("failed to list private messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get messages",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
	})
}

// GetGroupHistory returns a page of a group's messages. The requesting user
// must be a current member.
func (h *chatHandler) GetGroupHistory(c *gin.Context) {
	userID := c.Query("userId")
	groupID := c.Param("groupId")
	if userID == "" || groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "userId and groupId are required",
		})
		return
	}

	isMember, err := h.groups.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		h.logger.Error("membership check failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to check membership",
		})
		return
	}
	if !isMember {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Not a member of this group",
		})
		return
	}

	page, ok := parsePage(c)
	if !ok {
		return
	}

	msgs, err := h.messages.ListGroupMessages(c.Request.Context(), groupID, page)
	if err != nil {
		h.logger.Error("failed to list group messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get messages",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": msgs,
	})
}

// MarkMessageRead is the out-of-band storage update for read receipts; the
// real-time receipt fanout runs over the socket path.
func (h *chatHandler) MarkMessageRead(c *gin.Context) {
	messageID := c.Param("messageId")
	if messageID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "messageId is required",
		})
		return
	}

	if err := h.messages.MarkMessageRead(c.Request.Context(), messageID); err != nil {
		h.logger.Error("failed to mark message read",
			zap.String("message_id", messageID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update message",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

func parsePage(c *gin.Context) (int64, bool) {
	page := c.DefaultQuery("page", "1")
	pageNumber, err := strconv.ParseInt(page, 10, 64)
	if err != nil || pageNumber < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid page number",
		})
		return 0, false
	}
	return pageNumber, true
}
