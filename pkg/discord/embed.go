package discord

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"runbot/internal/domain"
	"runbot/internal/domain/entities"
	"runbot/internal/ports/input"
)

const (
	embedColorOpen  = 0x5865F2
	embedColorLive  = 0x57F287
	embedColorEnded = 0x99AAB5
)

func embedColor(status string) int {
	switch status {
	case domain.RunLive:
		return embedColorLive
	case domain.RunEnded:
		return embedColorEnded
	}
	return embedColorOpen
}

func statusLine(run *entities.Run) string {
	switch run.Status {
	case domain.RunOpen:
		return "🟦 Forming"
	case domain.RunLive:
		if !run.KeyWindowEndsAt.IsZero() {
			return fmt.Sprintf("🟩 Live • key %d • window closes %s", run.KeyPopCount, RelativeTimestamp(run.KeyWindowEndsAt))
		}
		return "🟩 Live"
	case domain.RunEnded:
		if run.StartedAt.IsZero() {
			return "⬜ Cancelled"
		}
		return fmt.Sprintf("⬜ Ended • %d key(s)", run.KeyPopCount)
	}
	return run.Status
}

// BuildRunEmbed renders the run message: organizer, display fields, roster
// counters and offers. Only counters are shown for the roster; offers list
// mentions because organizers ping them.
func BuildRunEmbed(run *entities.Run, summary *input.RosterSummary) *discordgo.MessageEmbed {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("**Organized by:** <@%s>\n", run.OrganizerID))
	if run.Party != "" {
		b.WriteString(fmt.Sprintf("**Party:** %s\n", run.Party))
	}
	if run.Location != "" {
		b.WriteString(fmt.Sprintf("**Where:** %s\n", run.Location))
	}
	if run.ChainAmount > 0 {
		b.WriteString(fmt.Sprintf("**Chain:** %d\n", run.ChainAmount))
	}
	if run.Description != "" {
		b.WriteString("\n" + run.Description + "\n")
	}
	b.WriteString(fmt.Sprintf("\n%s\n", statusLine(run)))

	fields := []*discordgo.MessageEmbedField{
		{Name: "Joined", Value: fmt.Sprintf("%d", summary.Joined), Inline: true},
	}
	if classes := formatAttributeCounts(summary.ByAttribute); classes != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Classes", Value: classes, Inline: true})
	}
	if offers := formatOffers(summary.OffersByType); offers != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Offers", Value: offers, Inline: false})
	}

	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🔑 %s", run.ActivityKey),
		Description: b.String(),
		Color:       embedColor(run.Status),
		Fields:      fields,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Join with the buttons below"},
	}
}

func formatAttributeCounts(counts map[string]int64) string {
	if len(counts) == 0 {
		return ""
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", k, counts[k]))
	}
	return strings.Join(parts, "\n")
}

func formatOffers(offers map[string][]string) string {
	if len(offers) == 0 {
		return ""
	}
	keys := make([]string, 0, len(offers))
	for k := range offers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		mentions := make([]string, 0, len(offers[k]))
		for _, userID := range offers[k] {
			mentions = append(mentions, fmt.Sprintf("<@%s>", userID))
		}
		b.WriteString(fmt.Sprintf("%s: %s\n", k, strings.Join(mentions, " ")))
	}
	return strings.TrimRight(b.String(), "\n")
}
