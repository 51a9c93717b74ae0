package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/juju/clock"
	"github.com/nutrilog/internal/db"
)

// DefaultHistoryDays 是历史视图默认覆盖的天数
const DefaultHistoryDays = 14

var (
	// ErrInvalidEntry 在份量或营养值不合法时返回
	ErrInvalidEntry = errors.New("invalid entry")
	// ErrInvalidRange 在查询区间起点晚于终点时返回
	ErrInvalidRange = errors.New("invalid date range")
)

// EntryInput 定义添加记录时的输入，营养值均为每份数值
type EntryInput struct {
	Date       string
	Food       string
	Servings   float64
	KcalPer    float64
	ProteinPer float64
}

// AddEntryResult 是两步添加流程的结果。
// Entry 已落库；CatalogErr 非空表示目录刷新失败，记录本身仍然有效，
// 调用方可单独通过 FoodService.Upsert 重试目录写入。
type AddEntryResult struct {
	Entry      *db.Entry
	Food       *db.Food
	CatalogErr error
}

// DaySummary 汇总单日的记录、合计与目标
type DaySummary struct {
	Date     string     `json:"date"`
	Entries  []db.Entry `json:"entries"`
	Totals   Totals     `json:"totals"`
	Goal     db.Goal    `json:"goal"`
	Progress Progress   `json:"progress"`
}

// History 是多日窗口内按日期倒序排列的分组结果
type History struct {
	Start  string     `json:"start"`
	End    string     `json:"end"`
	Days   []DayGroup `json:"days"`
	Totals Totals     `json:"totals"`
}

// EntryService 负责摄入记录的增删查，添加记录时顺带刷新食物目录
type EntryService struct {
	entries EntryRepository
	foods   *FoodService
	goals   *GoalService
	window  *DateWindow
	stamps  *stampSource
}

// NewEntryService 构造 EntryService
func NewEntryService(entries EntryRepository, foods *FoodService, goals *GoalService, window *DateWindow, clk clock.Clock) *EntryService {
	return &EntryService{
		entries: entries,
		foods:   foods,
		goals:   goals,
		window:  window,
		stamps:  newStampSource(clk),
	}
}

// AddEntry 校验输入、计算合计并写入记录，然后写入食物目录。
// 两次写入相互独立：记录写入失败时不会触碰目录。
func (s *EntryService) AddEntry(ctx context.Context, userID string, input EntryInput) (*AddEntryResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if err := validateEntryInput(input); err != nil {
		return nil, err
	}

	createdAt := s.stamps.Next()
	entry := &db.Entry{
		UserID:       userID,
		Date:         input.Date,
		Food:         strings.TrimSpace(input.Food),
		Servings:     input.Servings,
		KcalPer:      input.KcalPer,
		ProteinPer:   input.ProteinPer,
		KcalTotal:    input.Servings * input.KcalPer,
		ProteinTotal: input.Servings * input.ProteinPer,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("add entry: %w", err)
	}

	result := &AddEntryResult{Entry: entry}
	// 重新读取以获取存储层分配的字段；失败时沿用已写入的值
	if saved, err := s.entries.Get(ctx, userID, entry.ID); err == nil {
		result.Entry = saved
	}

	food, err := s.foods.Upsert(ctx, userID, input.Food, input.KcalPer, input.ProteinPer)
	if err != nil {
		result.CatalogErr = err
		return result, nil
	}
	result.Food = food

	return result, nil
}

// ListEntriesForDate 返回某日全部记录，最新的在前
func (s *EntryService) ListEntriesForDate(ctx context.Context, userID, date string) ([]db.Entry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if _, err := ParseDateKey(date); err != nil {
		return nil, err
	}

	entries, err := s.entries.ListByDate(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("list entries for %s: %w", date, err)
	}
	return nonNilEntries(entries), nil
}

// ListEntriesInRange 返回闭区间内的记录，按日期倒序、同日按创建时间倒序
func (s *EntryService) ListEntriesInRange(ctx context.Context, userID, startDate, endDate string) ([]db.Entry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrMissingUser
	}
	if _, err := ParseDateKey(startDate); err != nil {
		return nil, err
	}
	if _, err := ParseDateKey(endDate); err != nil {
		return nil, err
	}
	if startDate > endDate {
		return nil, fmt.Errorf("%w: %s after %s", ErrInvalidRange, startDate, endDate)
	}

	entries, err := s.entries.ListInRange(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("list entries in range: %w", err)
	}
	return nonNilEntries(entries), nil
}

// DeleteEntry 幂等删除：记录不存在视为已删除
func (s *EntryService) DeleteEntry(ctx context.Context, userID, entryID string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrMissingUser
	}
	if strings.TrimSpace(entryID) == "" {
		return nil
	}

	if _, err := s.entries.Delete(ctx, userID, entryID); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	return nil
}

// DaySummary 返回单日记录及其相对目标的完成度
func (s *EntryService) DaySummary(ctx context.Context, userID, date string) (*DaySummary, error) {
	entries, err := s.ListEntriesForDate(ctx, userID, date)
	if err != nil {
		return nil, err
	}

	goal, err := s.goals.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	totals := TotalsOf(entries)
	return &DaySummary{
		Date:     date,
		Entries:  entries,
		Totals:   totals,
		Goal:     goal,
		Progress: ProgressOf(totals, goal),
	}, nil
}

// History 返回最近 days 天（含今天）的记录，按日分组并倒序排列
func (s *EntryService) History(ctx context.Context, userID string, days int) (*History, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}

	window := s.window.LastNDays(days)
	start, end := window[len(window)-1], window[0]

	entries, err := s.ListEntriesInRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	groups := GroupByDate(entries)
	history := &History{
		Start:  start,
		End:    end,
		Days:   make([]DayGroup, 0, len(groups)),
		Totals: TotalsOf(entries),
	}
	for _, date := range SortedDates(groups) {
		history.Days = append(history.Days, *groups[date])
	}
	return history, nil
}

func validateEntryInput(input EntryInput) error {
	if _, err := ParseDateKey(input.Date); err != nil {
		return err
	}
	if !validAmount(input.Servings) {
		return fmt.Errorf("%w: servings must be a non-negative number", ErrInvalidEntry)
	}
	if !validAmount(input.KcalPer) {
		return fmt.Errorf("%w: kcal per serving must be a non-negative number", ErrInvalidEntry)
	}
	if !validAmount(input.ProteinPer) {
		return fmt.Errorf("%w: protein per serving must be a non-negative number", ErrInvalidEntry)
	}
	return nil
}

func nonNilEntries(entries []db.Entry) []db.Entry {
	if entries == nil {
		return []db.Entry{}
	}
	return entries
}
