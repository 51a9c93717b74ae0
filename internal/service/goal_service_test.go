package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestGoalGetDefaults(t *testing.T) {
	ledger := newTestLedger(t)

	goal, err := ledger.goals.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if goal.KcalTarget != 2000 || goal.ProteinTarget != 150 {
		t.Fatalf("unexpected defaults: %+v", goal)
	}
}

func TestGoalSaveMergesFields(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	saved, err := ledger.goals.Save(ctx, "user-1", GoalPatch{KcalTarget: floatPtr(1800)})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if saved.KcalTarget != 1800 || saved.ProteinTarget != DefaultProteinTarget {
		t.Fatalf("expected first save to seed defaults, got %+v", saved)
	}
	firstUpdate := saved.UpdatedAt

	ledger.clock.Advance(time.Hour)
	saved, err = ledger.goals.Save(ctx, "user-1", GoalPatch{ProteinTarget: floatPtr(120)})
	if err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	if saved.KcalTarget != 1800 {
		t.Fatalf("expected kcal target preserved, got %v", saved.KcalTarget)
	}
	if saved.ProteinTarget != 120 {
		t.Fatalf("expected protein target updated, got %v", saved.ProteinTarget)
	}
	if !saved.UpdatedAt.After(firstUpdate) {
		t.Fatalf("expected updatedAt refresh, got %v then %v", firstUpdate, saved.UpdatedAt)
	}

	other, _ := ledger.goals.Get(ctx, "user-2")
	if other.KcalTarget != DefaultKcalTarget {
		t.Fatalf("goal leaked across users: %+v", other)
	}
}

func TestGoalSaveRejectsNegative(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	if _, err := ledger.goals.Save(ctx, "user-1", GoalPatch{KcalTarget: floatPtr(-5)}); !errors.Is(err, ErrInvalidGoal) {
		t.Fatalf("expected ErrInvalidGoal, got %v", err)
	}

	goal, _ := ledger.goals.Get(ctx, "user-1")
	if goal.KcalTarget != DefaultKcalTarget {
		t.Fatalf("expected no write on invalid goal, got %+v", goal)
	}
}
