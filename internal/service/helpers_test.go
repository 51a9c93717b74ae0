package service

import (
	"testing"
	"time"

	"github.com/juju/clock/testclock"
	"github.com/nutrilog/internal/memstore"
)

var (
	_ EntryRepository = (*memstore.EntryRepository)(nil)
	_ FoodRepository  = (*memstore.FoodRepository)(nil)
	_ GoalRepository  = (*memstore.GoalRepository)(nil)
	_ UserRepository  = (*memstore.UserRepository)(nil)
)

type testLedger struct {
	store   *memstore.Store
	clock   *testclock.Clock
	window  *DateWindow
	foods   *FoodService
	goals   *GoalService
	entries *EntryService
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()

	store := memstore.New()
	clk := testclock.NewClock(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC))
	window := NewDateWindow(clk, time.UTC)
	foods := NewFoodService(store.Foods(), clk)
	goals := NewGoalService(store.Goals(), clk)

	return &testLedger{
		store:   store,
		clock:   clk,
		window:  window,
		foods:   foods,
		goals:   goals,
		entries: NewEntryService(store.Entries(), foods, goals, window, clk),
	}
}

func floatPtr(v float64) *float64 {
	return &v
}
