package recipe

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"touille/internal/pkg/common"
)

// HandleListRecipes 列出使用者的食譜，最新的在前
func (h *Handler) HandleListRecipes(c *gin.Context) {
	requestID := getRequestID(c)

	userID, err := requireUserID(c)
	if err != nil {
		h.respondError(c, requestID, err)
		return
	}

	list, err := h.store.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, requestID, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// HandleGetRecipe 只回傳屬於 user_id 的食譜，沒有 user_id 時查匿名範圍
func (h *Handler) HandleGetRecipe(c *gin.Context) {
	requestID := getRequestID(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(c, requestID, common.NewValidationError("id must be a positive integer"))
		return
	}

	rec, err := h.store.GetByID(c.Request.Context(), id, strings.TrimSpace(c.Query("user_id")))
	if err != nil {
		h.respondError(c, requestID, err)
		return
	}
	if rec == nil {
		h.respondError(c, requestID, common.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, rec)
}
