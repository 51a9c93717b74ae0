package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nutrilog/internal/service"
)

type goalPayload struct {
	KcalTarget    *float64 `json:"kcal_target"`
	ProteinTarget *float64 `json:"protein_target"`
}

// GetGoals 返回当前目标，未设置时为默认值
func (a *API) GetGoals(c *gin.Context) {
	goal, err := a.goals.Get(c.Request.Context(), currentUser(c))
	if err != nil {
		a.handleLedgerError(c, "load goal", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// UpdateGoals 部分更新目标，未提供的字段保持不变
func (a *API) UpdateGoals(c *gin.Context) {
	lang := a.requestLocale(c).Language

	var payload goalPayload
	if !bindJSON(c, &payload, msg(lang, "Invalid request", "请求参数不合法")) {
		return
	}
	if payload.KcalTarget == nil && payload.ProteinTarget == nil {
		respondError(c, http.StatusBadRequest, msg(lang, "Provide kcal_target or protein_target", "请提供 kcal_target 或 protein_target"))
		return
	}

	goal, err := a.goals.Save(c.Request.Context(), currentUser(c), service.GoalPatch{
		KcalTarget:    payload.KcalTarget,
		ProteinTarget: payload.ProteinTarget,
	})
	if err != nil {
		a.handleLedgerError(c, "save goal", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"goal": goal})
}
