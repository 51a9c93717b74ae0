package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nutrilog/internal/service"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, message)
		return false
	}
	return true
}

// parseIntQuery 读取正整数查询参数，缺失时返回 fallback
func parseIntQuery(c *gin.Context, key string, fallback int) (int, bool) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, false
	}
	return value, true
}

// handleLedgerError 把账本错误映射为 HTTP 状态码与本地化提示，存储错误记录日志
func (a *API) handleLedgerError(c *gin.Context, action string, err error) {
	lang := a.requestLocale(c).Language
	switch {
	case errors.Is(err, service.ErrMissingUser):
		respondError(c, http.StatusUnauthorized, msg(lang, "Please sign in", "请先登录"))
	case errors.Is(err, service.ErrInvalidDateKey):
		respondError(c, http.StatusBadRequest, msg(lang, "Invalid date, expected YYYY-MM-DD", "无效的日期，格式应为 YYYY-MM-DD"))
	case errors.Is(err, service.ErrInvalidRange):
		respondError(c, http.StatusBadRequest, msg(lang, "Start date is after end date", "开始日期晚于结束日期"))
	case errors.Is(err, service.ErrInvalidEntry), errors.Is(err, service.ErrInvalidFood):
		respondError(c, http.StatusBadRequest, msg(lang, "Servings and nutrient values must be non-negative numbers", "份量与营养值必须为非负数"))
	case errors.Is(err, service.ErrInvalidGoal):
		respondError(c, http.StatusBadRequest, msg(lang, "Goal targets must be non-negative numbers", "目标值必须为非负数"))
	default:
		log.Printf("[ledger] %s failed user=%s: %v", action, currentUser(c), err)
		respondError(c, http.StatusInternalServerError, msg(lang, "Something went wrong, please try again", "操作失败，请重试"))
	}
}
