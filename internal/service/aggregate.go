package service

import (
	"cmp"
	"slices"

	"github.com/nutrilog/internal/db"
)

// Totals 是一组记录的能量与蛋白质合计，保留未取整的浮点和
type Totals struct {
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein"`
}

// DayGroup 是按日期分组后的单日数据
type DayGroup struct {
	Date    string     `json:"date"`
	Entries []db.Entry `json:"entries"`
	Totals  Totals     `json:"totals"`
}

// NutrientProgress 描述单项营养相对目标的完成度
type NutrientProgress struct {
	Consumed float64 `json:"consumed"`
	Target   float64 `json:"target"`
	Percent  float64 `json:"percent"`
}

// Progress 汇总能量与蛋白质的完成度
type Progress struct {
	Kcal    NutrientProgress `json:"kcal"`
	Protein NutrientProgress `json:"protein"`
}

// TotalsOf 累加记录中已落库的合计值，空输入返回零值
func TotalsOf(entries []db.Entry) Totals {
	var totals Totals
	for _, entry := range entries {
		totals.Kcal += entry.KcalTotal
		totals.Protein += entry.ProteinTotal
	}
	return totals
}

// GroupByDate 按日期键划分记录，组内保持输入顺序
func GroupByDate(entries []db.Entry) map[string]*DayGroup {
	groups := make(map[string]*DayGroup)
	for _, entry := range entries {
		group, ok := groups[entry.Date]
		if !ok {
			group = &DayGroup{Date: entry.Date, Entries: []db.Entry{}}
			groups[entry.Date] = group
		}
		group.Entries = append(group.Entries, entry)
	}

	for _, group := range groups {
		group.Totals = TotalsOf(group.Entries)
	}
	return groups
}

// SortedDates 返回按日期倒序排列的分组键，展示前需显式排序
func SortedDates(groups map[string]*DayGroup) []string {
	dates := make([]string, 0, len(groups))
	for date := range groups {
		dates = append(dates, date)
	}
	slices.SortFunc(dates, func(a, b string) int {
		return cmp.Compare(b, a)
	})
	return dates
}

// ProgressOf 计算合计相对目标的完成度，完成度封顶为 1，目标为 0 时记为 0
func ProgressOf(totals Totals, goal db.Goal) Progress {
	return Progress{
		Kcal:    nutrientProgress(totals.Kcal, goal.KcalTarget),
		Protein: nutrientProgress(totals.Protein, goal.ProteinTarget),
	}
}

func nutrientProgress(consumed, target float64) NutrientProgress {
	progress := NutrientProgress{Consumed: consumed, Target: target}
	if target > 0 {
		progress.Percent = min(consumed/target, 1)
	}
	return progress
}
