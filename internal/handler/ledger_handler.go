package handler

import (
	"html"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nutrilog/internal/db"
	"github.com/nutrilog/internal/service"
)

type entryPayload struct {
	Date       string   `json:"date"`
	Food       string   `json:"food"`
	Servings   *float64 `json:"servings"`
	KcalPer    float64  `json:"kcal_per"`
	ProteinPer float64  `json:"protein_per"`
}

type dayPayload struct {
	Date        string           `json:"date"`
	DisplayDate string           `json:"display_date"`
	Entries     []db.Entry       `json:"entries"`
	Totals      service.Totals   `json:"totals"`
	Goal        db.Goal          `json:"goal"`
	Progress    service.Progress `json:"progress"`
}

type historyDayPayload struct {
	Date        string         `json:"date"`
	DisplayDate string         `json:"display_date"`
	Entries     []db.Entry     `json:"entries"`
	Totals      service.Totals `json:"totals"`
}

// GetDay 返回某日的记录、合计与目标完成度，date 可为 today
func (a *API) GetDay(c *gin.Context) {
	lang := a.requestLocale(c).Language
	date := a.resolveDateParam(c.Param("date"))

	summary, err := a.entries.DaySummary(c.Request.Context(), currentUser(c), date)
	if err != nil {
		a.handleLedgerError(c, "load day", err)
		return
	}

	c.JSON(http.StatusOK, a.dayToPayload(lang, summary))
}

// CreateEntry 添加一条记录并刷新食物目录，返回刷新后的当日列表与最近食物
func (a *API) CreateEntry(c *gin.Context) {
	lang := a.requestLocale(c).Language

	var payload entryPayload
	if !bindJSON(c, &payload, msg(lang, "Invalid request", "请求参数不合法")) {
		return
	}

	food := sanitizeFoodName(payload.Food)
	if food == "" {
		respondError(c, http.StatusBadRequest, msg(lang, "Food name is required", "请填写食物名称"))
		return
	}

	servings := 1.0
	if payload.Servings != nil {
		servings = *payload.Servings
	}

	ctx := c.Request.Context()
	userID := currentUser(c)
	input := service.EntryInput{
		Date:       a.resolveDateParam(payload.Date),
		Food:       food,
		Servings:   servings,
		KcalPer:    payload.KcalPer,
		ProteinPer: payload.ProteinPer,
	}

	result, err := a.entries.AddEntry(ctx, userID, input)
	if err != nil {
		a.handleLedgerError(c, "add entry", err)
		return
	}

	response := gin.H{"entry": result.Entry}
	if result.Food != nil {
		response["food"] = result.Food
	}
	if result.CatalogErr != nil {
		log.Printf("[ledger] catalog refresh failed user=%s food=%q: %v", userID, food, result.CatalogErr)
		response["catalog_error"] = msg(lang, "Entry saved, but the food list could not be updated", "记录已保存，但食物列表更新失败")
	}

	if summary, err := a.entries.DaySummary(ctx, userID, input.Date); err == nil {
		response["day"] = a.dayToPayload(lang, summary)
	} else {
		log.Printf("[ledger] reload day failed user=%s date=%s: %v", userID, input.Date, err)
	}
	if recent, err := a.foods.Recent(ctx, userID, 0); err == nil {
		response["recent_foods"] = recent
	} else {
		log.Printf("[ledger] reload recent foods failed user=%s: %v", userID, err)
	}

	c.JSON(http.StatusCreated, response)
}

// DeleteEntry 幂等删除一条记录
func (a *API) DeleteEntry(c *gin.Context) {
	if err := a.entries.DeleteEntry(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		a.handleLedgerError(c, "delete entry", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetHistory 返回最近若干天的记录，按日期倒序分组
func (a *API) GetHistory(c *gin.Context) {
	lang := a.requestLocale(c).Language

	days, ok := parseIntQuery(c, "days", a.historyDays)
	if !ok {
		respondError(c, http.StatusBadRequest, msg(lang, "days must be a positive integer", "days 必须为正整数"))
		return
	}
	days = min(days, 366)

	history, err := a.entries.History(c.Request.Context(), currentUser(c), days)
	if err != nil {
		a.handleLedgerError(c, "load history", err)
		return
	}

	items := make([]historyDayPayload, 0, len(history.Days))
	for _, day := range history.Days {
		items = append(items, historyDayPayload{
			Date:        day.Date,
			DisplayDate: a.window.DisplayFormatIn(lang, day.Date),
			Entries:     day.Entries,
			Totals:      day.Totals,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"range":  gin.H{"start": history.Start, "end": history.End},
		"days":   items,
		"totals": history.Totals,
	})
}

// RecentFoods 返回最近使用的食物
func (a *API) RecentFoods(c *gin.Context) {
	lang := a.requestLocale(c).Language

	limit, ok := parseIntQuery(c, "limit", 0)
	if !ok {
		respondError(c, http.StatusBadRequest, msg(lang, "limit must be a positive integer", "limit 必须为正整数"))
		return
	}

	foods, err := a.foods.Recent(c.Request.Context(), currentUser(c), limit)
	if err != nil {
		a.handleLedgerError(c, "recent foods", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"foods": foods})
}

// sanitizeFoodName 去除名称中的 HTML 标记，保留纯文本
func sanitizeFoodName(raw string) string {
	return strings.TrimSpace(html.UnescapeString(foodNameSanitizer.Sanitize(raw)))
}

func (a *API) resolveDateParam(raw string) string {
	date := strings.TrimSpace(raw)
	if date == "" || strings.EqualFold(date, "today") {
		return a.window.Today()
	}
	return date
}

func (a *API) dayToPayload(lang string, summary *service.DaySummary) dayPayload {
	return dayPayload{
		Date:        summary.Date,
		DisplayDate: a.window.DisplayFormatIn(lang, summary.Date),
		Entries:     summary.Entries,
		Totals:      summary.Totals,
		Goal:        summary.Goal,
		Progress:    summary.Progress,
	}
}
