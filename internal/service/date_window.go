package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/juju/clock"
	"github.com/nutrilog/internal/locale"
)

const (
	// DateKeyLayout 是日期键的格式 YYYY-MM-DD
	DateKeyLayout = "2006-01-02"

	displayLayoutEnglish = "Jan 2, 2006"
	displayLayoutChinese = "2006年1月2日"
)

// ErrInvalidDateKey 在日期键格式不合法时返回
var ErrInvalidDateKey = errors.New("invalid date key")

// DateWindow 以「今天」为锚点计算日期键
type DateWindow struct {
	clock clock.Clock
	loc   *time.Location
}

// NewDateWindow 构造 DateWindow，loc 为空时使用本地时区
func NewDateWindow(clk clock.Clock, loc *time.Location) *DateWindow {
	if clk == nil {
		clk = clock.WallClock
	}
	if loc == nil {
		loc = time.Local
	}
	return &DateWindow{clock: clk, loc: loc}
}

// Location 返回计算日期所用的时区
func (w *DateWindow) Location() *time.Location {
	return w.loc
}

// Today 返回当前日期键
func (w *DateWindow) Today() string {
	return FormatDateKey(w.clock.Now().In(w.loc))
}

// LastNDays 返回从今天开始向前的 n 个日期键：today, today-1, ..., today-(n-1)
func (w *DateWindow) LastNDays(n int) []string {
	if n <= 0 {
		return []string{}
	}

	now := w.clock.Now().In(w.loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, w.loc)

	days := make([]string, 0, n)
	for i := 0; i < n; i++ {
		days = append(days, FormatDateKey(today.AddDate(0, 0, -i)))
	}
	return days
}

// DisplayFormat 把日期键渲染为 "Jan 5, 2024"
func (w *DateWindow) DisplayFormat(key string) string {
	return w.DisplayFormatIn(locale.LanguageEnglish, key)
}

// DisplayFormatIn 按语言渲染日期键，中文渲染为 "2024年1月5日"
func (w *DateWindow) DisplayFormatIn(language, key string) string {
	day, err := time.ParseInLocation(DateKeyLayout, key, w.loc)
	if err != nil {
		return key
	}
	return day.Format(locale.Pick(language, displayLayoutEnglish, displayLayoutChinese))
}

// ParseDateKey 严格校验并解析日期键
func ParseDateKey(key string) (time.Time, error) {
	day, err := time.Parse(DateKeyLayout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateKey, key)
	}
	return day, nil
}

// FormatDateKey 把时间格式化为其所在时区的日期键
func FormatDateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}
