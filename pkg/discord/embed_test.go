package discord

import (
	"strings"
	"testing"
	"time"

	"runbot/internal/domain"
	"runbot/internal/domain/entities"
	"runbot/internal/ports/input"
)

func TestBuildRunEmbed(t *testing.T) {
	run := &entities.Run{
		ID:          "run-1",
		OrganizerID: "u-org",
		ActivityKey: "nightmare",
		Status:      domain.RunLive,
		KeyPopCount: 2,
		Party:       "Alpha",
		ChainAmount: 5,
		StartedAt:   time.Now().Add(-time.Hour),
	}
	summary := &input.RosterSummary{
		Joined:       3,
		ByAttribute:  map[string]int64{"tank": 1, "dps": 2},
		OffersByType: map[string][]string{domain.OfferKey: {"u-a", "u-b"}},
	}

	embed := BuildRunEmbed(run, summary)
	if embed.Color != embedColorLive {
		t.Errorf("color = %#x, want live color", embed.Color)
	}
	if !strings.Contains(embed.Description, "<@u-org>") {
		t.Error("description should mention the organizer")
	}
	if !strings.Contains(embed.Description, "**Party:** Alpha") {
		t.Error("description should include the party field")
	}
	if len(embed.Fields) != 3 {
		t.Fatalf("got %d fields, want 3 (joined, classes, offers)", len(embed.Fields))
	}
	if embed.Fields[0].Value != "3" {
		t.Errorf("joined counter = %q, want 3", embed.Fields[0].Value)
	}
	// Attribute counts sort alphabetically for stable rendering.
	if embed.Fields[1].Value != "dps: 2\ntank: 1" {
		t.Errorf("classes field = %q", embed.Fields[1].Value)
	}
	if !strings.Contains(embed.Fields[2].Value, "<@u-a> <@u-b>") {
		t.Errorf("offers field = %q, want key holder mentions", embed.Fields[2].Value)
	}
}

func TestBuildRunEmbedCancelledRun(t *testing.T) {
	run := &entities.Run{
		ID:          "run-1",
		OrganizerID: "u-org",
		ActivityKey: "nightmare",
		Status:      domain.RunEnded,
	}
	embed := BuildRunEmbed(run, &input.RosterSummary{})
	if !strings.Contains(embed.Description, "Cancelled") {
		t.Error("a run ended without ever starting should render as cancelled")
	}
	if embed.Color != embedColorEnded {
		t.Errorf("color = %#x, want ended color", embed.Color)
	}
}
