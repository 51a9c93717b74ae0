package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nutrilog/internal/memstore"
)

func TestAddEntryComputesTotalsAndRefreshesCatalog(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	result, err := ledger.entries.AddEntry(ctx, "user-1", EntryInput{
		Date:       "2024-01-05",
		Food:       "Banana",
		Servings:   2,
		KcalPer:    90,
		ProteinPer: 1.1,
	})
	if err != nil {
		t.Fatalf("AddEntry returned error: %v", err)
	}
	if result.CatalogErr != nil {
		t.Fatalf("unexpected catalog error: %v", result.CatalogErr)
	}

	entry := result.Entry
	if entry.ID == "" {
		t.Fatal("expected store-assigned id")
	}
	if entry.KcalTotal != 180 {
		t.Fatalf("expected kcalTotal 180, got %v", entry.KcalTotal)
	}
	if entry.ProteinTotal != 2.2 {
		t.Fatalf("expected proteinTotal 2.2, got %v", entry.ProteinTotal)
	}
	if entry.CreatedAt.IsZero() {
		t.Fatal("expected createdAt to be assigned")
	}

	foods, err := ledger.foods.Recent(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(foods) != 1 {
		t.Fatalf("expected 1 recent food, got %d", len(foods))
	}
	if foods[0].ID != "banana" || foods[0].KcalPer != 90 || foods[0].ProteinPer != 1.1 {
		t.Fatalf("unexpected catalog entry: %+v", foods[0])
	}
}

func TestAddEntryTotalsAreFrozen(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	first, err := ledger.entries.AddEntry(ctx, "user-1", EntryInput{Date: "2024-01-05", Food: "Oats", Servings: 1, KcalPer: 150, ProteinPer: 5})
	if err != nil {
		t.Fatalf("AddEntry returned error: %v", err)
	}

	// 目录中的营养值随后改变，不影响已有记录
	if _, err := ledger.foods.Upsert(ctx, "user-1", "oats", 400, 13); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	entries, err := ledger.entries.ListEntriesForDate(ctx, "user-1", "2024-01-05")
	if err != nil {
		t.Fatalf("ListEntriesForDate returned error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != first.Entry.ID {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].KcalTotal != 150 || entries[0].KcalPer != 150 {
		t.Fatalf("expected frozen totals, got %+v", entries[0])
	}
}

func TestAddEntryRejectsInvalidInputWithoutWriting(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	invalid := []EntryInput{
		{Date: "2024-01-05", Food: "Rice", Servings: -1, KcalPer: 100},
		{Date: "2024-01-05", Food: "Rice", Servings: 1, KcalPer: -100},
		{Date: "2024-01-05", Food: "Rice", Servings: 1, ProteinPer: -0.5},
		{Date: "2024-01-05", Food: "Rice", Servings: math.NaN()},
		{Date: "2024-01-05", Food: "Rice", Servings: 1, KcalPer: math.Inf(1)},
	}
	for _, input := range invalid {
		if _, err := ledger.entries.AddEntry(ctx, "user-1", input); !errors.Is(err, ErrInvalidEntry) {
			t.Fatalf("AddEntry(%+v) error = %v, want ErrInvalidEntry", input, err)
		}
	}

	if _, err := ledger.entries.AddEntry(ctx, "user-1", EntryInput{Date: "05/01/2024", Food: "Rice", Servings: 1}); !errors.Is(err, ErrInvalidDateKey) {
		t.Fatalf("expected ErrInvalidDateKey, got %v", err)
	}
	if _, err := ledger.entries.AddEntry(ctx, " ", EntryInput{Date: "2024-01-05", Food: "Rice", Servings: 1}); !errors.Is(err, ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}

	entries, _ := ledger.entries.ListEntriesForDate(ctx, "user-1", "2024-01-05")
	if len(entries) != 0 {
		t.Fatalf("expected no entries written, got %d", len(entries))
	}
	foods, _ := ledger.foods.Recent(ctx, "user-1", 0)
	if len(foods) != 0 {
		t.Fatalf("expected no foods written, got %d", len(foods))
	}
}

func TestAddEntryAllowsZeroValues(t *testing.T) {
	ledger := newTestLedger(t)

	result, err := ledger.entries.AddEntry(context.Background(), "user-1", EntryInput{Date: "2024-01-05", Food: "Water"})
	if err != nil {
		t.Fatalf("AddEntry returned error: %v", err)
	}
	if result.Entry.KcalTotal != 0 || result.Entry.ProteinTotal != 0 {
		t.Fatalf("expected zero totals, got %+v", result.Entry)
	}
}

func TestAddEntryCatalogFailureKeepsEntry(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	storeErr := errors.New("foods unavailable")
	ledger.store.SetFailure(memstore.CollectionFoods, storeErr)

	result, err := ledger.entries.AddEntry(ctx, "user-1", EntryInput{Date: "2024-01-05", Food: "Banana", Servings: 1, KcalPer: 90, ProteinPer: 1.1})
	if err != nil {
		t.Fatalf("AddEntry returned error: %v", err)
	}
	if !errors.Is(result.CatalogErr, storeErr) {
		t.Fatalf("expected catalog error, got %v", result.CatalogErr)
	}
	if result.Food != nil {
		t.Fatalf("expected no food on catalog failure, got %+v", result.Food)
	}

	entries, err := ledger.entries.ListEntriesForDate(ctx, "user-1", "2024-01-05")
	if err != nil {
		t.Fatalf("ListEntriesForDate returned error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected entry to persist, got %d entries", len(entries))
	}

	// 目录写入可单独重试
	ledger.store.SetFailure(memstore.CollectionFoods, nil)
	if _, err := ledger.foods.Upsert(ctx, "user-1", "Banana", 90, 1.1); err != nil {
		t.Fatalf("retry Upsert returned error: %v", err)
	}
	foods, _ := ledger.foods.Recent(ctx, "user-1", 0)
	if len(foods) != 1 || foods[0].ID != "banana" {
		t.Fatalf("expected catalog to recover, got %+v", foods)
	}
}

func TestAddEntryStoreFailureSkipsCatalog(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	storeErr := errors.New("permission denied")
	ledger.store.SetFailure(memstore.CollectionEntries, storeErr)

	result, err := ledger.entries.AddEntry(ctx, "user-1", EntryInput{Date: "2024-01-05", Food: "Banana", Servings: 1, KcalPer: 90})
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to propagate, got %v", err)
	}
	if result != nil {
		t.Fatalf("expected nil result, got %+v", result)
	}

	foods, _ := ledger.foods.Recent(ctx, "user-1", 0)
	if len(foods) != 0 {
		t.Fatalf("expected no catalog write, got %+v", foods)
	}
}

func TestListEntriesForDateOrdersNewestFirst(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	for _, food := range []string{"Eggs", "Toast", "Coffee"} {
		if _, err := ledger.entries.AddEntry(ctx, "user-1", EntryInput{Date: "2024-01-05", Food: food, Servings: 1}); err != nil {
			t.Fatalf("AddEntry returned error: %v", err)
		}
	}
	// 同一时刻的写入也要保持严格顺序
	if _, err := ledger.entries.AddEntry(ctx, "user-1", EntryInput{Date: "2024-01-04", Food: "Soup", Servings: 1}); err != nil {
		t.Fatalf("AddEntry returned error: %v", err)
	}
	if _, err := ledger.entries.AddEntry(ctx, "user-2", EntryInput{Date: "2024-01-05", Food: "Tea", Servings: 1}); err != nil {
		t.Fatalf("AddEntry returned error: %v", err)
	}

	entries, err := ledger.entries.ListEntriesForDate(ctx, "user-1", "2024-01-05")
	if err != nil {
		t.Fatalf("ListEntriesForDate returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"Coffee", "Toast", "Eggs"}
	for i, food := range want {
		if entries[i].Food != food {
			t.Fatalf("entry %d = %s, want %s", i, entries[i].Food, food)
		}
	}
	for i := 1; i < len(entries); i++ {
		if !entries[i-1].CreatedAt.After(entries[i].CreatedAt) {
			t.Fatalf("createdAt not strictly decreasing at %d", i)
		}
	}

	if _, err := ledger.entries.ListEntriesForDate(ctx, "user-1", "2024-13-01"); !errors.Is(err, ErrInvalidDateKey) {
		t.Fatalf("expected ErrInvalidDateKey, got %v", err)
	}
}

func TestListEntriesInRange(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	add := func(date, food string) {
		t.Helper()
		if _, err := ledger.entries.AddEntry(ctx, "user-1", EntryInput{Date: date, Food: food, Servings: 1, KcalPer: 100}); err != nil {
			t.Fatalf("AddEntry returned error: %v", err)
		}
		ledger.clock.Advance(time.Minute)
	}

	add("2024-01-03", "a")
	add("2024-01-05", "b")
	add("2024-01-04", "c")
	add("2024-01-05", "d")
	add("2024-01-06", "outside")
	add("2024-01-02", "outside")

	entries, err := ledger.entries.ListEntriesInRange(ctx, "user-1", "2024-01-03", "2024-01-05")
	if err != nil {
		t.Fatalf("ListEntriesInRange returned error: %v", err)
	}

	want := []string{"d", "b", "c", "a"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, food := range want {
		if entries[i].Food != food {
			t.Fatalf("entry %d = %s, want %s", i, entries[i].Food, food)
		}
	}

	if _, err := ledger.entries.ListEntriesInRange(ctx, "user-1", "2024-01-05", "2024-01-03"); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestDeleteEntryIsIdempotent(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	result, err := ledger.entries.AddEntry(ctx, "user-1", EntryInput{Date: "2024-01-05", Food: "Banana", Servings: 1, KcalPer: 90})
	if err != nil {
		t.Fatalf("AddEntry returned error: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := ledger.entries.DeleteEntry(ctx, "user-1", result.Entry.ID); err != nil {
			t.Fatalf("DeleteEntry call %d returned error: %v", i+1, err)
		}
		entries, err := ledger.entries.ListEntriesForDate(ctx, "user-1", "2024-01-05")
		if err != nil {
			t.Fatalf("ListEntriesForDate returned error: %v", err)
		}
		if len(entries) != 0 {
			t.Fatalf("expected entry to be gone after call %d", i+1)
		}
	}

	if err := ledger.entries.DeleteEntry(ctx, "user-1", "never-existed"); err != nil {
		t.Fatalf("expected unknown id to succeed, got %v", err)
	}
}

func TestDeleteEntryIsScopedToUser(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	result, err := ledger.entries.AddEntry(ctx, "owner", EntryInput{Date: "2024-01-05", Food: "Banana", Servings: 1})
	if err != nil {
		t.Fatalf("AddEntry returned error: %v", err)
	}

	if err := ledger.entries.DeleteEntry(ctx, "intruder", result.Entry.ID); err != nil {
		t.Fatalf("DeleteEntry returned error: %v", err)
	}

	entries, _ := ledger.entries.ListEntriesForDate(ctx, "owner", "2024-01-05")
	if len(entries) != 1 {
		t.Fatalf("expected owner's entry to survive, got %d entries", len(entries))
	}
}

func TestDeleteEntryPropagatesStoreFailure(t *testing.T) {
	ledger := newTestLedger(t)
	storeErr := errors.New("offline")
	ledger.store.SetFailure(memstore.CollectionEntries, storeErr)

	if err := ledger.entries.DeleteEntry(context.Background(), "user-1", "id"); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestDaySummaryUsesGoal(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	for _, kcal := range []float64{180, 220} {
		if _, err := ledger.entries.AddEntry(ctx, "user-1", EntryInput{Date: "2024-01-05", Food: "Meal", Servings: 1, KcalPer: kcal, ProteinPer: 15}); err != nil {
			t.Fatalf("AddEntry returned error: %v", err)
		}
	}

	summary, err := ledger.entries.DaySummary(ctx, "user-1", "2024-01-05")
	if err != nil {
		t.Fatalf("DaySummary returned error: %v", err)
	}
	if summary.Totals.Kcal != 400 || summary.Totals.Protein != 30 {
		t.Fatalf("unexpected totals: %+v", summary.Totals)
	}
	if summary.Goal.KcalTarget != DefaultKcalTarget || summary.Goal.ProteinTarget != DefaultProteinTarget {
		t.Fatalf("expected default goal, got %+v", summary.Goal)
	}
	if summary.Progress.Kcal.Percent != 0.2 {
		t.Fatalf("expected 20%% kcal progress, got %v", summary.Progress.Kcal.Percent)
	}
}

func TestHistoryGroupsWindowByDate(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	inputs := []EntryInput{
		{Date: "2024-01-05", Food: "Banana", Servings: 2, KcalPer: 90, ProteinPer: 1.1},
		{Date: "2024-01-05", Food: "Yogurt", Servings: 1, KcalPer: 220, ProteinPer: 20},
		{Date: "2024-01-01", Food: "Cake", Servings: 1, KcalPer: 500},
		{Date: "2023-12-23", Food: "Edge", Servings: 1, KcalPer: 10},
		{Date: "2023-12-22", Food: "Too old", Servings: 1, KcalPer: 999},
	}
	for _, input := range inputs {
		if _, err := ledger.entries.AddEntry(ctx, "user-1", input); err != nil {
			t.Fatalf("AddEntry returned error: %v", err)
		}
	}

	history, err := ledger.entries.History(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}

	if history.Start != "2023-12-23" || history.End != "2024-01-05" {
		t.Fatalf("unexpected window %s..%s", history.Start, history.End)
	}
	if len(history.Days) != 3 {
		t.Fatalf("expected 3 days, got %d", len(history.Days))
	}
	if history.Days[0].Date != "2024-01-05" || history.Days[1].Date != "2024-01-01" || history.Days[2].Date != "2023-12-23" {
		t.Fatalf("unexpected day order: %s, %s, %s", history.Days[0].Date, history.Days[1].Date, history.Days[2].Date)
	}
	if history.Days[0].Totals.Kcal != 400 {
		t.Fatalf("expected 400 kcal on 2024-01-05, got %v", history.Days[0].Totals.Kcal)
	}
	if history.Totals.Kcal != 910 {
		t.Fatalf("expected window total 910, got %v", history.Totals.Kcal)
	}
}
