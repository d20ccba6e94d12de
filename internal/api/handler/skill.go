package handler

import (
	"net/http"
	"strconv"

	"github.com/arizkuren/skillbluff/internal/domain"
	"github.com/arizkuren/skillbluff/internal/logger"
	"github.com/arizkuren/skillbluff/internal/service"
	"github.com/gin-gonic/gin"
)

// SkillHandler serves generation and read endpoints.
type SkillHandler struct {
	skills *service.SkillService
}

// NewSkillHandler creates a new skill handler.
// Parameters:
//   - skills: skill service instance.
//
// Returns:
//   - *SkillHandler: initialized handler.
func NewSkillHandler(skills *service.SkillService) *SkillHandler {
	return &SkillHandler{skills: skills}
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// Generate handles POST /api/generate.
func (h *SkillHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidInput(c, "prompt must be a string")
		return
	}

	skill, err := h.skills.Generate(c.Request.Context(), req.Prompt)
	if err != nil {
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"item":    skill,
	})
}

// Random handles GET /api/random.
func (h *SkillHandler) Random(c *gin.Context) {
	skill, err := h.skills.Random(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": skill})
}

// Top handles GET /api/top?page=&limit=. Missing or unparsable values fall
// back to page 0 and limit 12 before clamping.
func (h *SkillHandler) Top(c *gin.Context) {
	page := queryInt(c, "page", 0)
	limit := queryInt(c, "limit", service.DefaultTopLimit)

	result, err := h.skills.Top(c.Request.Context(), page, limit)
	if err != nil {
		// The leaderboard page renders an empty list on failure.
		logger.FromContext(c.Request.Context()).WithError(err).Error("Failed to load top skills")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "could not load top skills",
			"items":   []domain.Skill{},
			"page":    0,
			"hasMore": false,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":   result.Items,
		"page":    result.Page,
		"hasMore": result.HasMore,
	})
}

// Get handles GET /api/skills/:id.
func (h *SkillHandler) Get(c *gin.Context) {
	skill, err := h.skills.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"item": skill})
}

func queryInt(c *gin.Context, key string, def int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
