package main

import (
	"context"
	"time"
)

// EntityResolver resolves characters, corporations and alliances against an
// external source. Implementations are asynchronous-safe, idempotent and may
// cache internally.
type EntityResolver interface {
	ResolveCharacterByName(ctx context.Context, name string) (*CharacterDetail, error)
	ResolveCharacterByID(ctx context.Context, id int64) (*CharacterDetail, error)
	CorporationName(ctx context.Context, id int64) (name, ticker string, err error)
	AllianceName(ctx context.Context, id int64) (name, ticker string, err error)
}

// StandingsResolver maps affiliation ids to a standing level. Matching
// priority is character, then corporation, then alliance; unresolved ids
// yield StandingNeutral.
type StandingsResolver interface {
	Standing(allianceID, corporationID, characterID int64) StandingLevel
}

// Tokenizer parses free chat text against the candidate regions into zero
// or more candidate tokenizations.
type Tokenizer interface {
	Tokenize(text string, regions []string) []Tokenization
}

// TokenizationChooser picks the single best candidate.
type TokenizationChooser interface {
	Choose(candidates []Tokenization) Tokenization
}

// UnderstandingClassifier derives the overall meaning of a tokenization.
type UnderstandingClassifier interface {
	Classify(t Tokenization) Understanding
}

// SolarSystemRepository is a read-only static lookup of solar systems.
type SolarSystemRepository interface {
	SystemByID(id int64) (SolarSystem, bool)
	SystemByName(name string) (SolarSystem, bool)
	SystemsInRegion(region string) []SolarSystem
}

// CelestialRepository lists the celestial objects of a system.
type CelestialRepository interface {
	CelestialsInSystem(systemID int64) []Celestial
}

// StargateRepository lists the stargates leading out of a system.
type StargateRepository interface {
	GatesOutOf(systemID int64) []Stargate
}

// TypeRepository looks up inventory types.
type TypeRepository interface {
	TypeByID(id int64) (ShipType, bool)
	ShipTypeByName(name string) (ShipType, bool)
}

// IntelSink receives fused intel. Implementations must be safe for
// concurrent use; calls are fire-and-forget.
type IntelSink interface {
	SubmitIntel(msg ParsedChannelChatMessage, context []ParsedChannelChatMessage, fresh bool)
	SubmitKillmail(km ProcessedKillmail)
}

// AlertSink receives facts eligible for user alerting.
type AlertSink interface {
	NotifyChatMessage(msg ChannelChatMessage)
	NotifyKillmail(km ProcessedKillmail)
}

// LocationSink is told when a character's local system changes.
type LocationSink interface {
	CharacterMoved(system string, at time.Time, characterID string)
}

// ErrorReporter receives unexpected per-item failures for telemetry.
type ErrorReporter interface {
	Report(component string, err error)
}
