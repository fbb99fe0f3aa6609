package application

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"runbot/internal/domain"
	"runbot/internal/domain/entities"
)

func TestTriggerPopOnlyOrganizer(t *testing.T) {
	store := newFakeStore()
	_, popSvc, _ := newTestServices(store, &fakePoints{base: 10})
	seedRun(store, "run-1", domain.RunLive, 0)

	// Staff rank is deliberately not enough to pop someone else's key.
	_, err := popSvc.TriggerPop(context.Background(), actorWithRank(domain.RankAdministrator), "run-1", 5*time.Minute)
	if !errors.Is(err, domain.ErrNotOrganizer) {
		t.Fatalf("want ErrNotOrganizer, got %v", err)
	}
}

func TestTriggerPopRequiresLiveRun(t *testing.T) {
	store := newFakeStore()
	_, popSvc, _ := newTestServices(store, &fakePoints{base: 10})
	organizer := entities.Actor{UserID: "organizer-1"}

	for _, status := range []string{domain.RunOpen, domain.RunEnded} {
		seedRun(store, "run-"+status, status, 0)
		_, err := popSvc.TriggerPop(context.Background(), organizer, "run-"+status, 5*time.Minute)
		if !errors.Is(err, domain.ErrRunNotLive) {
			t.Errorf("status %s: want ErrRunNotLive, got %v", status, err)
		}
	}
}

func TestPopSequenceAttribution(t *testing.T) {
	store := newFakeStore()
	_, popSvc, _ := newTestServices(store, &fakePoints{base: 10})
	seedRun(store, "run-1", domain.RunLive, 0)
	joinUsers(t, store, "run-1", "A", "B")
	organizer := entities.Actor{UserID: "organizer-1"}

	pop1, err := popSvc.TriggerPop(context.Background(), organizer, "run-1", 5*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if pop1.PopNumber != 1 {
		t.Errorf("pop number = %d, want 1", pop1.PopNumber)
	}
	if pop1.Settled != 0 {
		t.Errorf("the first pop has nothing to settle, got %d", pop1.Settled)
	}
	if pop1.WindowEndsAt.IsZero() {
		t.Error("window expiry should be set")
	}

	// C joins after pop 1's window opened.
	joinUsers(t, store, "run-1", "C")

	pop2, err := popSvc.TriggerPop(context.Background(), organizer, "run-1", 5*time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if pop2.PopNumber != 2 {
		t.Errorf("pop number = %d, want 2", pop2.PopNumber)
	}
	if pop2.Settled != 2 {
		t.Errorf("pop 1 settlement credited %d users, want 2", pop2.Settled)
	}

	credited := store.creditedUsers("run-1", 1)
	sort.Strings(credited)
	if len(credited) != 2 || credited[0] != "A" || credited[1] != "B" {
		t.Errorf("pop 1 credited %v, want [A B]; C joined after the window opened", credited)
	}

	snap, err := store.FindSnapshot(context.Background(), "run-1", 2)
	if err != nil {
		t.Fatal(err)
	}
	got := append([]string(nil), snap.UserIDs...)
	sort.Strings(got)
	if len(got) != 3 {
		t.Errorf("pop 2 snapshot = %v, want [A B C]", got)
	}

	run, _ := store.FindByID(context.Background(), "run-1")
	if run.KeyPopCount != 2 {
		t.Errorf("keyPopCount = %d, want 2", run.KeyPopCount)
	}
}

func TestTriggerPopSurvivesSettlementFailure(t *testing.T) {
	store := newFakeStore()
	_, popSvc, _ := newTestServices(store, &fakePoints{base: 10})
	seedRun(store, "run-1", domain.RunLive, 1)
	store.snapshots["run-1"] = map[int]*entities.KeyPopSnapshot{
		1: {RunID: "run-1", PopNumber: 1, UserIDs: []string{"A"}},
	}
	store.failRecordSettlement = true

	result, err := popSvc.TriggerPop(context.Background(), entities.Actor{UserID: "organizer-1"}, "run-1", 5*time.Minute)
	if err != nil {
		t.Fatalf("a degraded ledger must not abort the pop: %v", err)
	}
	if result.PopNumber != 2 {
		t.Errorf("pop number = %d, want 2", result.PopNumber)
	}
	if result.Settled != 0 {
		t.Errorf("settled = %d, want 0 on failure", result.Settled)
	}
	run, _ := store.FindByID(context.Background(), "run-1")
	if run.KeyPopCount != 2 {
		t.Errorf("keyPopCount = %d, want 2", run.KeyPopCount)
	}
}
