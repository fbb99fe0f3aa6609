package application

import (
	"context"
	"errors"
	"testing"

	"runbot/internal/domain"
)

func TestJoinIsIdempotent(t *testing.T) {
	store := newFakeStore()
	_, _, roster := newTestServices(store, &fakePoints{base: 10})
	seedRun(store, "run-1", domain.RunOpen, 0)

	if err := roster.Join(context.Background(), "run-1", "A"); err != nil {
		t.Fatal(err)
	}
	if err := roster.Join(context.Background(), "run-1", "A"); err != nil {
		t.Fatalf("re-join failed: %v", err)
	}
	joined, err := roster.Summary(context.Background(), "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if joined.Joined != 1 {
		t.Errorf("joined = %d, want 1", joined.Joined)
	}
}

func TestJoinRejoinAfterLeave(t *testing.T) {
	store := newFakeStore()
	_, _, roster := newTestServices(store, &fakePoints{base: 10})
	seedRun(store, "run-1", domain.RunLive, 0)

	if err := roster.Join(context.Background(), "run-1", "A"); err != nil {
		t.Fatal(err)
	}
	if err := roster.Leave(context.Background(), "run-1", "A"); err != nil {
		t.Fatal(err)
	}
	if err := roster.Join(context.Background(), "run-1", "A"); err != nil {
		t.Fatalf("re-join after leave failed: %v", err)
	}
	entry, err := store.Find(context.Background(), "run-1", "A")
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil || entry.State != domain.ParticipantJoined {
		t.Errorf("entry state = %+v, want joined", entry)
	}
}

func TestRosterWritesRejectEndedRun(t *testing.T) {
	store := newFakeStore()
	_, _, roster := newTestServices(store, &fakePoints{base: 10})
	seedRun(store, "run-1", domain.RunEnded, 1)

	cases := []struct {
		name string
		call func() error
	}{
		{"join", func() error { return roster.Join(context.Background(), "run-1", "A") }},
		{"leave", func() error { return roster.Leave(context.Background(), "run-1", "A") }},
		{"attribute", func() error { return roster.SetAttribute(context.Background(), "run-1", "A", "tank") }},
		{"offer", func() error {
			_, err := roster.ToggleOffer(context.Background(), "run-1", "A", domain.OfferKey)
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, domain.ErrRunClosed) {
				t.Errorf("err = %v, want ErrRunClosed", err)
			}
		})
	}
}

func TestLeaveWithoutJoining(t *testing.T) {
	store := newFakeStore()
	_, _, roster := newTestServices(store, &fakePoints{base: 10})
	seedRun(store, "run-1", domain.RunOpen, 0)

	err := roster.Leave(context.Background(), "run-1", "A")
	if !errors.Is(err, domain.ErrParticipantNotFound) {
		t.Errorf("err = %v, want ErrParticipantNotFound", err)
	}
}

func TestSetAttributeImplicitlyJoins(t *testing.T) {
	store := newFakeStore()
	_, _, roster := newTestServices(store, &fakePoints{base: 10})
	seedRun(store, "run-1", domain.RunOpen, 0)

	if err := roster.SetAttribute(context.Background(), "run-1", "A", "healer"); err != nil {
		t.Fatal(err)
	}
	summary, err := roster.Summary(context.Background(), "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if summary.Joined != 1 {
		t.Errorf("joined = %d, want 1", summary.Joined)
	}
	if summary.ByAttribute["healer"] != 1 {
		t.Errorf("byAttribute = %v, want healer:1", summary.ByAttribute)
	}
}

func TestSetAttributeReplacesPrevious(t *testing.T) {
	store := newFakeStore()
	_, _, roster := newTestServices(store, &fakePoints{base: 10})
	seedRun(store, "run-1", domain.RunOpen, 0)

	if err := roster.SetAttribute(context.Background(), "run-1", "A", "healer"); err != nil {
		t.Fatal(err)
	}
	if err := roster.SetAttribute(context.Background(), "run-1", "A", "dps"); err != nil {
		t.Fatal(err)
	}
	summary, err := roster.Summary(context.Background(), "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if summary.ByAttribute["healer"] != 0 || summary.ByAttribute["dps"] != 1 {
		t.Errorf("byAttribute = %v, want only dps:1", summary.ByAttribute)
	}
}

func TestToggleOffer(t *testing.T) {
	store := newFakeStore()
	_, _, roster := newTestServices(store, &fakePoints{base: 10})
	seedRun(store, "run-1", domain.RunOpen, 0)

	on, err := roster.ToggleOffer(context.Background(), "run-1", "A", domain.OfferKey)
	if err != nil {
		t.Fatal(err)
	}
	if !on {
		t.Error("first toggle should enable the offer")
	}
	off, err := roster.ToggleOffer(context.Background(), "run-1", "A", domain.OfferKey)
	if err != nil {
		t.Fatal(err)
	}
	if off {
		t.Error("second toggle should disable the offer")
	}
}

func TestToggleOfferUnknownType(t *testing.T) {
	store := newFakeStore()
	_, _, roster := newTestServices(store, &fakePoints{base: 10})
	seedRun(store, "run-1", domain.RunOpen, 0)

	if _, err := roster.ToggleOffer(context.Background(), "run-1", "A", "mount"); err == nil {
		t.Fatal("unknown offer type should be rejected")
	}
}

func TestRosterUnknownRun(t *testing.T) {
	store := newFakeStore()
	_, _, roster := newTestServices(store, &fakePoints{base: 10})

	err := roster.Join(context.Background(), "missing", "A")
	var notFound *domain.NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("err = %v, want NotFoundError", err)
	}
	if _, err := roster.Summary(context.Background(), "missing"); !errors.As(err, &notFound) {
		t.Errorf("summary err = %v, want NotFoundError", err)
	}
}

func TestSummaryListsOffers(t *testing.T) {
	store := newFakeStore()
	_, _, roster := newTestServices(store, &fakePoints{base: 10})
	seedRun(store, "run-1", domain.RunOpen, 0)

	if _, err := roster.ToggleOffer(context.Background(), "run-1", "A", domain.OfferKey); err != nil {
		t.Fatal(err)
	}
	if _, err := roster.ToggleOffer(context.Background(), "run-1", "B", domain.OfferAlt); err != nil {
		t.Fatal(err)
	}
	summary, err := roster.Summary(context.Background(), "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got := summary.OffersByType[domain.OfferKey]; len(got) != 1 || got[0] != "A" {
		t.Errorf("key offers = %v, want [A]", got)
	}
	if got := summary.OffersByType[domain.OfferAlt]; len(got) != 1 || got[0] != "B" {
		t.Errorf("alt offers = %v, want [B]", got)
	}
}
