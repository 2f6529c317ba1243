package config

import (
	"fmt"
	"strings"

	"github.com/aiseeq/s2l/protocol/api"
)

type (
	// Control is who drives a player slot.
	Control string

	// Race is the race requested for a player slot.
	Race string

	// Difficulty is the built-in AI difficulty of a computer slot.
	Difficulty string

	// AIBuild is the built-in AI strategy of a computer slot.
	AIBuild string

	// PlayerSlot is one configured participant of a match.
	PlayerSlot struct {
		// Name identifies the slot within the match and in results
		Name string

		// Control is the control type of the slot
		Control Control

		// Race is the race the slot requests
		Race Race

		// Difficulty is only used for computer slots
		Difficulty Difficulty

		// AIBuild is only used for computer slots
		AIBuild AIBuild

		// PlayerID is the network player identifier assigned by the game,
		// zero until the player has joined and been identified
		PlayerID uint32
	}
)

const (
	ControlHuman    = Control("human")
	ControlComputer = Control("computer")
	ControlAgent    = Control("agent")
)

const (
	RaceTerran  = Race("terran")
	RaceZerg    = Race("zerg")
	RaceProtoss = Race("protoss")
	RaceRandom  = Race("random")
)

const defaultDifficulty = Difficulty("medium")

var (
	races = map[Race]api.Race{
		RaceTerran:  api.Race_Terran,
		RaceZerg:    api.Race_Zerg,
		RaceProtoss: api.Race_Protoss,
		RaceRandom:  api.Race_Random,
	}

	difficulties = map[Difficulty]api.Difficulty{
		"veryeasy":    api.Difficulty_VeryEasy,
		"easy":        api.Difficulty_Easy,
		"medium":      api.Difficulty_Medium,
		"mediumhard":  api.Difficulty_MediumHard,
		"hard":        api.Difficulty_Hard,
		"harder":      api.Difficulty_Harder,
		"veryhard":    api.Difficulty_VeryHard,
		"cheatvision": api.Difficulty_CheatVision,
		"cheatmoney":  api.Difficulty_CheatMoney,
		"cheatinsane": api.Difficulty_CheatInsane,
	}

	builds = map[AIBuild]api.AIBuild{
		"":       api.AIBuild_RandomBuild,
		"random": api.AIBuild_RandomBuild,
		"rush":   api.AIBuild_Rush,
		"timing": api.AIBuild_Timing,
		"power":  api.AIBuild_Power,
		"macro":  api.AIBuild_Macro,
		"air":    api.AIBuild_Air,
	}
)

// Type returns the protocol player type the slot joins as.
func (s *PlayerSlot) Type() api.PlayerType {
	if s.Control == ControlComputer {
		return api.PlayerType_Computer
	}

	return api.PlayerType_Participant
}

// IsComputer reports whether the slot is played by the built-in AI.
func (s *PlayerSlot) IsComputer() bool {
	return s.Control == ControlComputer
}

// Identified reports whether a player id has been assigned to the slot.
func (s *PlayerSlot) Identified() bool {
	return s.PlayerID != 0
}

// Matches reports whether a player reported by the game with the given type
// and requested race could occupy this slot.
func (s *PlayerSlot) Matches(typ api.PlayerType, race api.Race) bool {
	return s.Type() == typ && s.Race.Value() == race
}

// String returns a short description of the slot.
func (s *PlayerSlot) String() string {
	return fmt.Sprintf("<%s %s %s #%d>", s.Name, s.Control, s.Race, s.PlayerID)
}

// Value returns the protocol value of the race.
func (r Race) Value() api.Race {
	if v, ok := races[r]; ok {
		return v
	}

	return api.Race_NoRace
}

// Value returns the protocol value of the difficulty.
func (d Difficulty) Value() api.Difficulty {
	if v, ok := difficulties[d]; ok {
		return v
	}

	return difficulties[defaultDifficulty]
}

// Value returns the protocol value of the AI build.
func (b AIBuild) Value() api.AIBuild {
	return builds[b]
}

// normalize lowercases enumerated fields and applies slot defaults.
func (s *PlayerSlot) normalize() {
	s.Control = Control(strings.ToLower(string(s.Control)))
	s.Race = Race(strings.ToLower(string(s.Race)))
	s.Difficulty = Difficulty(strings.ToLower(string(s.Difficulty)))
	s.AIBuild = AIBuild(strings.ToLower(string(s.AIBuild)))

	if s.IsComputer() && s.Difficulty == "" {
		s.Difficulty = defaultDifficulty
	}
}

// validate checks that every enumerated field holds a known value.
func (s *PlayerSlot) validate() error {
	if s.Name == "" {
		return ErrSlotNameNotProvided
	}

	switch s.Control {
	case ControlHuman, ControlComputer, ControlAgent:
	default:
		return &InvalidFieldError{Slot: s.Name, Field: "Control", Value: string(s.Control)}
	}

	if _, ok := races[s.Race]; !ok {
		return &InvalidFieldError{Slot: s.Name, Field: "Race", Value: string(s.Race)}
	}

	if !s.IsComputer() {
		return nil
	}

	if _, ok := difficulties[s.Difficulty]; !ok {
		return &InvalidFieldError{Slot: s.Name, Field: "Difficulty", Value: string(s.Difficulty)}
	}

	if _, ok := builds[s.AIBuild]; !ok {
		return &InvalidFieldError{Slot: s.Name, Field: "AIBuild", Value: string(s.AIBuild)}
	}

	return nil
}
