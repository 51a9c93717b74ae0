package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nutrilog/internal/service"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	entries     *service.EntryService
	foods       *service.FoodService
	goals       *service.GoalService
	auth        *service.AuthService
	window      *service.DateWindow
	historyDays int
}

const userContextKey = "__user_uid"

var foodNameSanitizer = bluemonday.StrictPolicy()

// NewAPI constructs a handler set over an assembled ledger.
func NewAPI(ledger *service.Ledger, historyDays int) *API {
	if historyDays <= 0 {
		historyDays = service.DefaultHistoryDays
	}
	return &API{
		entries:     ledger.Entries,
		foods:       ledger.Foods,
		goals:       ledger.Goals,
		auth:        ledger.Auth,
		window:      ledger.Window,
		historyDays: historyDays,
	}
}

// currentUser 返回鉴权中间件写入的用户 UID
func currentUser(c *gin.Context) string {
	return c.GetString(userContextKey)
}
