package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/arizkuren/skillbluff/internal/service"
	"github.com/gin-gonic/gin"
)

// VoteHandler serves the vote endpoints.
type VoteHandler struct {
	votes *service.VoteService
}

// NewVoteHandler creates a new vote handler.
func NewVoteHandler(votes *service.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// VoteRequest is the body of POST /api/vote.
type VoteRequest struct {
	ItemID    string `json:"itemId"`
	ClientKey string `json:"clientKey"`
}

// Vote handles POST /api/vote.
func (h *VoteHandler) Vote(c *gin.Context) {
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "invalid request body")
		return
	}
	if strings.TrimSpace(req.ItemID) == "" {
		invalidInput(c, "itemId is required")
		return
	}

	clientKey := strings.TrimSpace(req.ClientKey)
	if clientKey == "" {
		clientKey = hashClientIP(c.ClientIP())
	}

	count, err := h.votes.Vote(c.Request.Context(), req.ItemID, clientKey)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"voteCount": count,
	})
}

// Count handles GET /api/vote?itemId=.
func (h *VoteHandler) Count(c *gin.Context) {
	itemID := strings.TrimSpace(c.Query("itemId"))
	if itemID == "" {
		invalidInput(c, "itemId is required")
		return
	}

	count, err := h.votes.Count(c.Request.Context(), itemID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"voteCount": count})
}

// hashClientIP keeps raw addresses out of the votes table.
func hashClientIP(ip string) string {
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}
