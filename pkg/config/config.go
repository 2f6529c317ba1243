package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

type (
	// Config represents the configuration of a single match, shared by every
	// process which takes part in it.
	Config struct {
		// Name identifies the configuration; agents receive it as their
		// initialisation signal
		Name string

		// MatchID uniquely identifies the match
		MatchID string

		// Host is the name of the slot this process plays as
		Host string

		// Players is the ordered roster of the match
		Players []*PlayerSlot

		// MapPath is the path of the map, relative to the game's map directory
		MapPath string

		// MapData is the raw map file, sent instead of reading MapPath when set
		MapData []byte `json:",omitempty"`

		// Realtime runs the game at normal speed instead of lock-step
		Realtime bool

		// FogDisabled disables fog of war for every player
		FogDisabled bool

		// Fullscreen launches the game window in fullscreen mode
		Fullscreen bool

		// Interfaces selects the observation interfaces requested on join
		Interfaces Interfaces

		// Ports are the network ports used by multiplayer matches
		Ports Ports

		// StepSize is the number of game loops to advance after each agent
		// tick when not running in realtime; 0 leaves stepping to the agent
		StepSize uint32

		// path is the file the configuration was loaded from and is
		// published to
		path string
	}

	// Interfaces selects which observation interfaces are requested.
	Interfaces struct {
		Raw      bool
		Score    bool
		Feature  bool
		Rendered bool
	}

	// Ports describes the ports of a multiplayer match.
	Ports struct {
		// Game is the game port of the hosting server
		Game int32

		// Base is the base port of the hosting server
		Base int32

		// Shared is the port shared by every client
		Shared int32

		// Slaves are the port pairs of every joining client
		Slaves []PortPair
	}

	// PortPair is the game and base port of one client.
	PortPair struct {
		Game int32
		Base int32
	}

	// InvalidFieldError is returned when a slot holds an unknown value.
	InvalidFieldError struct {
		Slot  string
		Field string
		Value string
	}
)

var (
	ErrNameNotProvided     = errors.New("field Name must be provided")
	ErrHostNotProvided     = errors.New("field Host must be provided")
	ErrPlayersNotProvided  = errors.New("field Players must be provided")
	ErrMapNotProvided      = errors.New("field MapPath or MapData must be provided")
	ErrSlotNameNotProvided = errors.New("every player slot must have a Name")
	ErrHostNotInPlayers    = errors.New("host is not one of the configured players")
	ErrHostIsComputer      = errors.New("host cannot be a computer player")
	ErrDuplicateSlot       = errors.New("duplicate player slot name")
	ErrNoPath              = errors.New("configuration has no file path to publish to")
	ErrEmptyConfig         = errors.New("configuration is empty")
	ErrWatcherClosed       = errors.New("config watcher closed")
)

// Error returns the error string.
func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("player %q: invalid %s %q", e.Slot, e.Field, e.Value)
}

// NewConfigFromFile loads configuration from the specified file
// and validates its contents.
func NewConfigFromFile(configFile string) (*Config, error) {
	var cfg *Config

	f, err := os.Open(configFile)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	if err = json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("error decoding json: %w", err)
	}

	if cfg == nil {
		return nil, ErrEmptyConfig
	}

	cfg.normalize()

	if err = cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.path = configFile

	return cfg, nil
}

// Validate checks the configuration is complete enough to host a match.
func (c *Config) Validate() error {
	if c.Name == "" {
		return ErrNameNotProvided
	}

	if c.Host == "" {
		return ErrHostNotProvided
	}

	if len(c.Players) == 0 {
		return ErrPlayersNotProvided
	}

	if c.MapPath == "" && len(c.MapData) == 0 {
		return ErrMapNotProvided
	}

	seen := make(map[string]struct{}, len(c.Players))
	for _, p := range c.Players {
		if err := p.validate(); err != nil {
			return err
		}

		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSlot, p.Name)
		}

		seen[p.Name] = struct{}{}
	}

	me := c.WhoAmI()
	if me == nil {
		return fmt.Errorf("%w: %s", ErrHostNotInPlayers, c.Host)
	}

	if me.IsComputer() {
		return ErrHostIsComputer
	}

	return nil
}

// normalize applies defaults to the configuration and its slots.
func (c *Config) normalize() {
	for _, p := range c.Players {
		p.normalize()
	}
}

// Path returns the file the configuration is published to.
func (c *Config) Path() string {
	return c.path
}

// SetPath sets the file the configuration is published to.
func (c *Config) SetPath(p string) {
	c.path = p
}

// EnsureMatchID assigns a random match ID if none is set and returns it.
func (c *Config) EnsureMatchID() string {
	if c.MatchID == "" {
		c.MatchID = uuid.NewString()
	}

	return c.MatchID
}

// WhoAmI returns the slot this process plays as, or nil if the host is not
// part of the roster.
func (c *Config) WhoAmI() *PlayerSlot {
	return c.Slot(c.Host)
}

// Slot returns the slot with the given name, or nil.
func (c *Config) Slot(name string) *PlayerSlot {
	for _, p := range c.Players {
		if p.Name == name {
			return p
		}
	}

	return nil
}

// SlotByID returns the slot identified as the given player id, or nil.
func (c *Config) SlotByID(id uint32) *PlayerSlot {
	if id == 0 {
		return nil
	}

	for _, p := range c.Players {
		if p.PlayerID == id {
			return p
		}
	}

	return nil
}

// UpdateID records that the network player id joined as slot. A nil slot
// refers to the host.
func (c *Config) UpdateID(id uint32, slot *PlayerSlot) {
	if slot == nil {
		slot = c.WhoAmI()
	}

	if slot != nil {
		slot.PlayerID = id
	}
}

// ResetIDs forgets the player ids of a previous match and reports whether
// any were set.
func (c *Config) ResetIDs() bool {
	reset := false
	for _, p := range c.Players {
		if p.Identified() {
			p.PlayerID = 0
			reset = true
		}
	}

	return reset
}

// Identified reports whether every slot has been assigned a player id.
func (c *Config) Identified() bool {
	for _, p := range c.Players {
		if !p.Identified() {
			return false
		}
	}

	return true
}

// NumAgents returns the number of agent-controlled slots.
func (c *Config) NumAgents() int {
	n := 0
	for _, p := range c.Players {
		if p.Control == ControlAgent {
			n++
		}
	}

	return n
}

// NumGameClients returns the number of slots which run their own game
// client, i.e. every slot not played by the built-in AI.
func (c *Config) NumGameClients() int {
	n := 0
	for _, p := range c.Players {
		if !p.IsComputer() {
			n++
		}
	}

	return n
}

// ExpectedPlayers returns the number of players the game reports once every
// slot has joined. Computer players are created with the game and count
// towards it.
func (c *Config) ExpectedPlayers() int {
	return len(c.Players)
}

// IsMultiplayer reports whether more than one game client takes part.
func (c *Config) IsMultiplayer() bool {
	return c.NumGameClients() > 1
}

// MapName returns the base name of the map without extension.
func (c *Config) MapName() string {
	if c.MapPath == "" {
		return ""
	}

	base := path.Base(strings.ReplaceAll(c.MapPath, "\\", "/"))

	return strings.TrimSuffix(base, path.Ext(base))
}

// Save publishes the configuration to its path so other processes can read
// it. The file is replaced atomically.
func (c *Config) Save() error {
	if c.path == "" {
		return ErrNoPath
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding json: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(c.path), "."+filepath.Base(c.path)+".*")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}

	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing temp file: %w", err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("error closing temp file: %w", err)
	}

	if err = os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("error publishing config: %w", err)
	}

	return nil
}
