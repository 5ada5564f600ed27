// Package empire holds per-player game state: colonies, fleets,
// research, ship designs, and the turn orders players submit.
package empire

import (
	"github.com/opd-ai/go-stellar/pkg/galaxy"
	"github.com/opd-ai/go-stellar/pkg/ships"
	"github.com/opd-ai/go-stellar/pkg/tech"
)

// Personality selects the strategy an AI controller plays.
type Personality string

const (
	PersonalityExpansionist Personality = "expansionist"
	PersonalityTechnologist Personality = "technologist"
	PersonalityMilitarist   Personality = "militarist"
	PersonalityBalanced     Personality = "balanced"
)

// AllPersonalities returns every AI personality.
func AllPersonalities() []Personality {
	return []Personality{
		PersonalityExpansionist,
		PersonalityTechnologist,
		PersonalityMilitarist,
		PersonalityBalanced,
	}
}

// PersonalityForSeed derives a personality deterministically so a saved
// game replays identically after a reload.
func PersonalityForSeed(seed uint64) Personality {
	all := AllPersonalities()
	return all[seed%uint64(len(all))]
}

// AIProfile is the serializable configuration of an AI-controlled
// empire. The seed, together with the empire ID and turn number, fully
// determines the orders the controller generates.
type AIProfile struct {
	Personality Personality `json:"personality"`
	Seed        uint64      `json:"seed"`
}

// ConversionReason says why a human empire was handed to AI control.
type ConversionReason string

const (
	// ReasonTimeoutForfeit marks an empire that exhausted its timeout
	// budget. The empire is flagged forfeited and cannot return.
	ReasonTimeoutForfeit ConversionReason = "timeout_forfeit"
	// ReasonResigned marks a voluntary resignation.
	ReasonResigned ConversionReason = "resigned"
)

// State is the complete state of one empire.
type State struct {
	ID      uint32 `json:"id"`
	UserID  int64  `json:"user_id,omitempty"` // zero when AI-controlled
	Name    string `json:"name"`
	RaceKey string `json:"race_key"`
	Color   string `json:"color"`

	IsAI      bool       `json:"is_ai"`
	AIProfile *AIProfile `json:"ai_profile,omitempty"`

	TimeoutCount   uint32 `json:"timeout_count"`
	LastActiveTurn uint32 `json:"last_active_turn"`
	Forfeited      bool   `json:"forfeited"`

	Research    *tech.Progress `json:"research"`
	ShipDesigns []ships.Design `json:"ship_designs"`
	Fleets      []*ships.Fleet `json:"fleets"`
	Colonies    []*Colony      `json:"colonies"`
	Treasury    int64          `json:"treasury"`

	KnownStars []uint32         `json:"known_stars"`
	Relations  map[uint32]int32 `json:"relations"`
}

// NewEmpire creates a player-controlled empire with the default ship
// designs and fresh research.
func NewEmpire(id uint32, userID int64, name, raceKey, color string) *State {
	return &State{
		ID:          id,
		UserID:      userID,
		Name:        name,
		RaceKey:     raceKey,
		Color:       color,
		Research:    tech.NewProgress(),
		ShipDesigns: ships.DefaultDesigns(),
		Relations:   make(map[uint32]int32),
	}
}

// NewAIEmpire creates an empire under AI control from the start. Its
// personality is derived from the seed.
func NewAIEmpire(id uint32, name, raceKey, color string, seed uint64) *State {
	e := NewEmpire(id, 0, name, raceKey, color)
	e.IsAI = true
	e.AIProfile = &AIProfile{Personality: PersonalityForSeed(seed), Seed: seed}
	return e
}

// ConvertToAI hands the empire to AI control, clearing the owning user.
// A timeout forfeit additionally sets the forfeited flag so the empire
// is excluded from human victory checks.
func (e *State) ConvertToAI(reason ConversionReason, seed uint64) {
	e.IsAI = true
	e.UserID = 0
	e.AIProfile = &AIProfile{Personality: PersonalityForSeed(seed), Seed: seed}
	if reason == ReasonTimeoutForfeit {
		e.Forfeited = true
	}
}

// IsActive reports whether the empire still participates in the game:
// not forfeited and holding at least one colony.
func (e *State) IsActive() bool {
	return !e.Forfeited && len(e.Colonies) > 0
}

// ResearchOutput sums research per turn across all colonies.
func (e *State) ResearchOutput() uint32 {
	var out uint32
	for _, c := range e.Colonies {
		out += c.ResearchOutput()
	}
	return out
}

// ProductionOutput sums production per turn across all colonies.
func (e *State) ProductionOutput() uint32 {
	var out uint32
	for _, c := range e.Colonies {
		out += c.ProductionOutput()
	}
	return out
}

// TotalPopulation sums population across all colonies.
func (e *State) TotalPopulation() uint32 {
	var out uint32
	for _, c := range e.Colonies {
		out += c.Population
	}
	return out
}

// CanColonize reports whether the empire's Planetology level allows
// settling the given planet type.
func (e *State) CanColonize(pt galaxy.PlanetType) bool {
	level := e.Research.Level(tech.Planetology)
	switch pt {
	case galaxy.Terran, galaxy.Ocean, galaxy.Arid:
		return true
	case galaxy.Tundra:
		return level >= 2
	case galaxy.Barren:
		return level >= 3
	case galaxy.Toxic:
		return level >= 4
	default:
		return false
	}
}

// NextFleetID returns an unused fleet ID.
func (e *State) NextFleetID() uint32 {
	var max uint32
	for _, f := range e.Fleets {
		if f.ID > max {
			max = f.ID
		}
	}
	return max + 1
}

// Colony returns the colony at the given star.
func (e *State) Colony(starID uint32) (*Colony, bool) {
	for _, c := range e.Colonies {
		if c.StarID == starID {
			return c, true
		}
	}
	return nil, false
}

// Fleet returns the fleet with the given ID.
func (e *State) Fleet(fleetID uint32) (*ships.Fleet, bool) {
	for _, f := range e.Fleets {
		if f.ID == fleetID {
			return f, true
		}
	}
	return nil, false
}

// RemoveFleet deletes the fleet with the given ID.
func (e *State) RemoveFleet(fleetID uint32) {
	for i, f := range e.Fleets {
		if f.ID == fleetID {
			e.Fleets = append(e.Fleets[:i], e.Fleets[i+1:]...)
			return
		}
	}
}

// RemoveColony deletes the colony at the given star.
func (e *State) RemoveColony(starID uint32) {
	for i, c := range e.Colonies {
		if c.StarID == starID {
			e.Colonies = append(e.Colonies[:i], e.Colonies[i+1:]...)
			return
		}
	}
}

// Design returns the ship design with the given ID.
func (e *State) Design(designID uint32) (*ships.Design, bool) {
	for i := range e.ShipDesigns {
		if e.ShipDesigns[i].ID == designID {
			return &e.ShipDesigns[i], true
		}
	}
	return nil, false
}

// AddKnownStar records a star as explored, once.
func (e *State) AddKnownStar(starID uint32) {
	for _, id := range e.KnownStars {
		if id == starID {
			return
		}
	}
	e.KnownStars = append(e.KnownStars, starID)
}

// Clone returns a deep copy, used to hand read-only snapshots to AI
// order generation.
func (e *State) Clone() *State {
	cp := *e
	if e.AIProfile != nil {
		profile := *e.AIProfile
		cp.AIProfile = &profile
	}
	if e.Research != nil {
		cp.Research = e.Research.Clone()
	}
	cp.ShipDesigns = append([]ships.Design(nil), e.ShipDesigns...)
	cp.Fleets = make([]*ships.Fleet, len(e.Fleets))
	for i, f := range e.Fleets {
		cp.Fleets[i] = f.Clone()
	}
	cp.Colonies = make([]*Colony, len(e.Colonies))
	for i, c := range e.Colonies {
		cp.Colonies[i] = c.Clone()
	}
	cp.KnownStars = append([]uint32(nil), e.KnownStars...)
	cp.Relations = make(map[uint32]int32, len(e.Relations))
	for k, v := range e.Relations {
		cp.Relations[k] = v
	}
	return &cp
}
