package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"runbot/internal/domain"
	"runbot/internal/domain/entities"
	"runbot/internal/ports/output"
)

// fakeStore is an in-memory implementation of the persistence ports with the
// same conditional-write semantics as the SQL repositories.
type fakeStore struct {
	runs         map[string]*entities.Run
	participants map[string]map[string]*entities.ParticipantEntry
	offers       map[string]map[string]map[string]bool
	snapshots    map[string]map[int]*entities.KeyPopSnapshot
	settlements  map[string]map[int]time.Time
	credits      []entities.CompletionCredit
	events       []entities.OrganizerEvent

	failRecordSettlement bool
	// staleExistsReads makes SettlementExists report false N times even when
	// a record exists, to exercise the exists-check / record-insert race.
	staleExistsReads int
}

var _ output.RunRepository = (*fakeStore)(nil)
var _ output.ParticipantRepository = (*fakeStore)(nil)
var _ output.KeyPopRepository = (*fakeStore)(nil)
var _ output.LedgerRepository = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		runs:         make(map[string]*entities.Run),
		participants: make(map[string]map[string]*entities.ParticipantEntry),
		offers:       make(map[string]map[string]map[string]bool),
		snapshots:    make(map[string]map[int]*entities.KeyPopSnapshot),
		settlements:  make(map[string]map[int]time.Time),
	}
}

func (f *fakeStore) Create(_ context.Context, run *entities.Run) error {
	clone := *run
	f.runs[run.ID] = &clone
	return nil
}

func (f *fakeStore) FindByID(_ context.Context, id string) (*entities.Run, error) {
	run, ok := f.runs[id]
	if !ok {
		return nil, nil
	}
	clone := *run
	return &clone, nil
}

func (f *fakeStore) FindByMessageID(_ context.Context, messageID string) (*entities.Run, error) {
	for _, run := range f.runs {
		if run.MessageID == messageID {
			clone := *run
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindActiveByOrganizer(_ context.Context, guildID, organizerID string) (*entities.Run, error) {
	for _, run := range f.runs {
		if run.GuildID == guildID && run.OrganizerID == organizerID && run.Status != domain.RunEnded {
			clone := *run
			return &clone, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindExpired(_ context.Context, now time.Time) ([]entities.Run, error) {
	var out []entities.Run
	for _, run := range f.runs {
		if run.Status != domain.RunEnded && run.AutoEndMinutes > 0 && run.ExpiresAt().Before(now) {
			out = append(out, *run)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkLive(_ context.Context, id string, at time.Time) (bool, error) {
	run, ok := f.runs[id]
	if !ok || run.Status != domain.RunOpen {
		return false, nil
	}
	run.Status = domain.RunLive
	run.StartedAt = at
	run.UpdatedAt = at
	return true, nil
}

func (f *fakeStore) MarkEnded(_ context.Context, id string, at time.Time) (bool, error) {
	run, ok := f.runs[id]
	if !ok || run.Status != domain.RunLive {
		return false, nil
	}
	run.Status = domain.RunEnded
	run.EndedAt = at
	run.UpdatedAt = at
	return true, nil
}

func (f *fakeStore) ForceEnd(_ context.Context, id string, at time.Time) (bool, error) {
	run, ok := f.runs[id]
	if !ok || run.Status == domain.RunEnded {
		return false, nil
	}
	run.Status = domain.RunEnded
	run.EndedAt = at
	run.UpdatedAt = at
	return true, nil
}

func (f *fakeStore) AdvanceKeyPop(_ context.Context, id string, fromCount int, windowEndsAt time.Time) (bool, error) {
	run, ok := f.runs[id]
	if !ok || run.Status != domain.RunLive || run.KeyPopCount != fromCount {
		return false, nil
	}
	run.KeyPopCount++
	run.KeyWindowEndsAt = windowEndsAt
	return true, nil
}

func (f *fakeStore) SetMessage(_ context.Context, id, channelID, messageID string) error {
	if run, ok := f.runs[id]; ok {
		run.ChannelID = channelID
		run.MessageID = messageID
	}
	return nil
}

func (f *fakeStore) runOpenForWrites(runID string) bool {
	run, ok := f.runs[runID]
	return ok && run.Status != domain.RunEnded
}

func (f *fakeStore) Join(_ context.Context, runID, userID string, at time.Time) (bool, error) {
	if !f.runOpenForWrites(runID) {
		return false, nil
	}
	if f.participants[runID] == nil {
		f.participants[runID] = make(map[string]*entities.ParticipantEntry)
	}
	entry, ok := f.participants[runID][userID]
	if !ok {
		f.participants[runID][userID] = &entities.ParticipantEntry{
			RunID: runID, UserID: userID, State: domain.ParticipantJoined,
			CreatedAt: at, UpdatedAt: at,
		}
		return true, nil
	}
	entry.State = domain.ParticipantJoined
	entry.UpdatedAt = at
	return true, nil
}

func (f *fakeStore) SetAttribute(ctx context.Context, runID, userID, attribute string, at time.Time) (bool, error) {
	ok, err := f.Join(ctx, runID, userID, at)
	if err != nil || !ok {
		return ok, err
	}
	f.participants[runID][userID].Attribute = attribute
	return true, nil
}

func (f *fakeStore) MarkLeft(_ context.Context, runID, userID string, at time.Time) (bool, error) {
	if !f.runOpenForWrites(runID) {
		return false, nil
	}
	entry, ok := f.participants[runID][userID]
	if !ok || entry.State != domain.ParticipantJoined {
		return false, nil
	}
	entry.State = domain.ParticipantLeft
	entry.UpdatedAt = at
	return true, nil
}

func (f *fakeStore) Find(_ context.Context, runID, userID string) (*entities.ParticipantEntry, error) {
	entry, ok := f.participants[runID][userID]
	if !ok {
		return nil, nil
	}
	clone := *entry
	return &clone, nil
}

func (f *fakeStore) ListJoined(_ context.Context, runID string) ([]entities.ParticipantEntry, error) {
	var out []entities.ParticipantEntry
	for _, entry := range f.participants[runID] {
		if entry.State == domain.ParticipantJoined {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (f *fakeStore) CountJoined(ctx context.Context, runID string) (int64, error) {
	joined, err := f.ListJoined(ctx, runID)
	return int64(len(joined)), err
}

func (f *fakeStore) CountJoinedByAttribute(ctx context.Context, runID string) (map[string]int64, error) {
	out := make(map[string]int64)
	joined, err := f.ListJoined(ctx, runID)
	if err != nil {
		return nil, err
	}
	for _, entry := range joined {
		if entry.Attribute != "" {
			out[entry.Attribute]++
		}
	}
	return out, nil
}

func (f *fakeStore) ToggleOffer(_ context.Context, runID, userID, offerType string, _ time.Time) (bool, bool, error) {
	if !f.runOpenForWrites(runID) {
		return false, false, nil
	}
	if f.offers[runID] == nil {
		f.offers[runID] = make(map[string]map[string]bool)
	}
	if f.offers[runID][userID] == nil {
		f.offers[runID][userID] = make(map[string]bool)
	}
	enabled := !f.offers[runID][userID][offerType]
	f.offers[runID][userID][offerType] = enabled
	return enabled, true, nil
}

func (f *fakeStore) ListOffers(_ context.Context, runID string) (map[string][]string, error) {
	out := make(map[string][]string)
	for userID, byType := range f.offers[runID] {
		for offerType, enabled := range byType {
			if enabled {
				out[offerType] = append(out[offerType], userID)
			}
		}
	}
	return out, nil
}

func (f *fakeStore) InsertSnapshot(_ context.Context, snap *entities.KeyPopSnapshot) error {
	if f.snapshots[snap.RunID] == nil {
		f.snapshots[snap.RunID] = make(map[int]*entities.KeyPopSnapshot)
	}
	if _, exists := f.snapshots[snap.RunID][snap.PopNumber]; exists {
		return nil
	}
	clone := *snap
	clone.UserIDs = append([]string(nil), snap.UserIDs...)
	f.snapshots[snap.RunID][snap.PopNumber] = &clone
	return nil
}

func (f *fakeStore) FindSnapshot(_ context.Context, runID string, popNumber int) (*entities.KeyPopSnapshot, error) {
	snap, ok := f.snapshots[runID][popNumber]
	if !ok {
		return nil, fmt.Errorf("snapshot %d of run %s not found", popNumber, runID)
	}
	clone := *snap
	return &clone, nil
}

func (f *fakeStore) SettlementExists(_ context.Context, runID string, popNumber int) (bool, error) {
	if f.staleExistsReads > 0 {
		f.staleExistsReads--
		return false, nil
	}
	_, ok := f.settlements[runID][popNumber]
	return ok, nil
}

func (f *fakeStore) RecordSettlement(_ context.Context, batch output.SettlementBatch) (bool, error) {
	if f.failRecordSettlement {
		return false, errors.New("ledger unavailable")
	}
	if _, ok := f.settlements[batch.RunID][batch.PopNumber]; ok {
		return false, nil
	}
	if f.settlements[batch.RunID] == nil {
		f.settlements[batch.RunID] = make(map[int]time.Time)
	}
	f.settlements[batch.RunID][batch.PopNumber] = batch.SettledAt
	f.credits = append(f.credits, batch.Credits...)
	f.events = append(f.events, batch.Organizer)
	return true, nil
}

func (f *fakeStore) InsertOrganizerEvent(_ context.Context, ev *entities.OrganizerEvent) error {
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeStore) creditedUsers(runID string, popNumber int) []string {
	var out []string
	for _, credit := range f.credits {
		if credit.RunID == runID && credit.PopNumber == popNumber {
			out = append(out, credit.UserID)
		}
	}
	return out
}

// fakeRoleConfig maps ranks to role ids per guild.
type fakeRoleConfig struct {
	byGuild map[string]map[domain.Rank]string
}

var _ output.RoleConfigRepository = (*fakeRoleConfig)(nil)

func (f *fakeRoleConfig) RankRoles(_ context.Context, guildID string) (map[domain.Rank]string, error) {
	return f.byGuild[guildID], nil
}

// fullRoleConfig maps every rank of guildID to a role id "role-<rank>".
func fullRoleConfig(guildID string) *fakeRoleConfig {
	mapping := make(map[domain.Rank]string)
	for _, rank := range domain.Ranks() {
		mapping[rank] = "role-" + rank.String()
	}
	return &fakeRoleConfig{byGuild: map[string]map[domain.Rank]string{guildID: mapping}}
}

// fakePoints resolves a flat value with optional per-user overrides.
type fakePoints struct {
	base    int64
	perUser map[string]int64
	err     error
}

var _ output.PointsResolver = (*fakePoints)(nil)

func (f *fakePoints) PointsFor(_ context.Context, _, _, userID string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	if pts, ok := f.perUser[userID]; ok {
		return pts, nil
	}
	return f.base, nil
}
