package handlers

import (
	"github.com/gin-gonic/gin"
)

type ChatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) ChatSend(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	reply, err := h.Chat.Send(c.Request.Context(), userID, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"reply": reply})
}

func (h *Handler) ChatHistory(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	messages, err := h.Chat.History(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"history": messages})
}

func (h *Handler) ChatClear(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		unauthorized(c)
		return
	}

	if err := h.Chat.Clear(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "Chat history cleared")
}
