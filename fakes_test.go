package main

import (
	"context"
	"sync"
	"testing"
	"time"
)

type intelRecord struct {
	msg     ParsedChannelChatMessage
	context []ParsedChannelChatMessage
	fresh   bool
}

type fakeIntelSink struct {
	mu    sync.Mutex
	intel []intelRecord
	kills []ProcessedKillmail
}

func (s *fakeIntelSink) SubmitIntel(msg ParsedChannelChatMessage, context []ParsedChannelChatMessage, fresh bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intel = append(s.intel, intelRecord{msg: msg, context: context, fresh: fresh})
}

func (s *fakeIntelSink) SubmitKillmail(km ProcessedKillmail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kills = append(s.kills, km)
}

func (s *fakeIntelSink) intelCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.intel)
}

func (s *fakeIntelSink) killCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.kills)
}

func (s *fakeIntelSink) lastIntel(t *testing.T) intelRecord {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.intel) == 0 {
		t.Fatal("no intel submitted")
	}
	return s.intel[len(s.intel)-1]
}

// waitForIntel polls until n intel records arrived or the deadline passes.
func (s *fakeIntelSink) waitForIntel(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if s.intelCount() >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d intel records, have %d", n, s.intelCount())
}

type fakeAlertSink struct {
	mu    sync.Mutex
	chats []ChannelChatMessage
	kills []ProcessedKillmail
}

func (s *fakeAlertSink) NotifyChatMessage(msg ChannelChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append(s.chats, msg)
}

func (s *fakeAlertSink) NotifyKillmail(km ProcessedKillmail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kills = append(s.kills, km)
}

func (s *fakeAlertSink) chatCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chats)
}

type fakeLocationSink struct {
	mu    sync.Mutex
	moves []string
}

func (s *fakeLocationSink) CharacterMoved(system string, at time.Time, characterID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves = append(s.moves, system)
}

type fakeErrorReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *fakeErrorReporter) Report(component string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

type fakeResolver struct {
	byName map[string]*CharacterDetail
	byID   map[int64]*CharacterDetail
	corps  map[int64][2]string
	allies map[int64][2]string
	err    error
}

func (r *fakeResolver) ResolveCharacterByName(ctx context.Context, name string) (*CharacterDetail, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.byName[name], nil
}

func (r *fakeResolver) ResolveCharacterByID(ctx context.Context, id int64) (*CharacterDetail, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.byID[id], nil
}

func (r *fakeResolver) CorporationName(ctx context.Context, id int64) (string, string, error) {
	if r.err != nil {
		return "", "", r.err
	}
	v := r.corps[id]
	return v[0], v[1], nil
}

func (r *fakeResolver) AllianceName(ctx context.Context, id int64) (string, string, error) {
	if r.err != nil {
		return "", "", r.err
	}
	v := r.allies[id]
	return v[0], v[1], nil
}

// fakeStandings resolves with the character, corporation, alliance priority
// the contract requires.
type fakeStandings struct {
	chars  map[int64]StandingLevel
	corps  map[int64]StandingLevel
	allies map[int64]StandingLevel
}

func (s *fakeStandings) Standing(allianceID, corporationID, characterID int64) StandingLevel {
	if lvl, ok := s.chars[characterID]; ok {
		return lvl
	}
	if lvl, ok := s.corps[corporationID]; ok {
		return lvl
	}
	if lvl, ok := s.allies[allianceID]; ok {
		return lvl
	}
	return StandingNeutral
}

type fakeSystems struct {
	systems []SolarSystem
}

func (f *fakeSystems) SystemByID(id int64) (SolarSystem, bool) {
	for _, s := range f.systems {
		if s.ID == id {
			return s, true
		}
	}
	return SolarSystem{}, false
}

func (f *fakeSystems) SystemByName(name string) (SolarSystem, bool) {
	for _, s := range f.systems {
		if s.Name == name {
			return s, true
		}
	}
	return SolarSystem{}, false
}

func (f *fakeSystems) SystemsInRegion(region string) []SolarSystem {
	var out []SolarSystem
	for _, s := range f.systems {
		if s.RegionName == region {
			out = append(out, s)
		}
	}
	return out
}

type fakeCelestials struct {
	celestials []Celestial
}

func (f *fakeCelestials) CelestialsInSystem(systemID int64) []Celestial {
	var out []Celestial
	for _, c := range f.celestials {
		if c.SystemID == systemID {
			out = append(out, c)
		}
	}
	return out
}

type fakeStargates struct {
	gates []Stargate
}

func (f *fakeStargates) GatesOutOf(systemID int64) []Stargate {
	var out []Stargate
	for _, g := range f.gates {
		if g.SystemID == systemID {
			out = append(out, g)
		}
	}
	return out
}

type fakeTypes struct {
	types []ShipType
}

func (f *fakeTypes) TypeByID(id int64) (ShipType, bool) {
	for _, t := range f.types {
		if t.ID == id {
			return t, true
		}
	}
	return ShipType{}, false
}

func (f *fakeTypes) ShipTypeByName(name string) (ShipType, bool) {
	for _, t := range f.types {
		if t.Name == name {
			return t, true
		}
	}
	return ShipType{}, false
}
