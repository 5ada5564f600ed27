// pkg/ships/fleet.go
package ships

import "math"

// Fleet is a group of ships at (or between) stars. Ships maps design id
// to count.
type Fleet struct {
	ID       uint32 `json:"id"`
	EmpireID uint32 `json:"empireID"`
	Name     string `json:"name"`

	// Star where the fleet sits, or is travelling from while in transit.
	LocationStarID uint32 `json:"locationStarID"`
	// Destination while in transit; meaningful only when InTransit.
	DestinationStarID uint32 `json:"destinationStarID"`
	InTransit         bool   `json:"inTransit"`
	// Turns until arrival; 0 means stationary or arrived.
	ETATurns uint32 `json:"etaTurns"`
	// ColonizeOnArrival carries a colonize order through transit; it
	// only takes effect if a colony-capable ship is still aboard.
	ColonizeOnArrival bool `json:"colonizeOnArrival,omitempty"`

	Ships map[uint32]uint32 `json:"ships"`
}

// NewFleet creates an empty fleet at a star.
func NewFleet(id, empireID uint32, name string, location uint32) *Fleet {
	return &Fleet{
		ID:             id,
		EmpireID:       empireID,
		Name:           name,
		LocationStarID: location,
		Ships:          make(map[uint32]uint32),
	}
}

// AddShips adds ships of a design to the fleet.
func (f *Fleet) AddShips(designID, count uint32) {
	f.Ships[designID] += count
}

// RemoveShips removes ships of a design, failing if the fleet has fewer
// than requested.
func (f *Fleet) RemoveShips(designID, count uint32) bool {
	current, ok := f.Ships[designID]
	if !ok || current < count {
		return false
	}
	current -= count
	if current == 0 {
		delete(f.Ships, designID)
	} else {
		f.Ships[designID] = current
	}
	return true
}

// TotalShips returns the total ship count across designs.
func (f *Fleet) TotalShips() uint32 {
	var total uint32
	for _, count := range f.Ships {
		total += count
	}
	return total
}

// IsInTransit reports whether the fleet is between stars.
func (f *Fleet) IsInTransit() bool {
	return f.InTransit && f.ETATurns > 0
}

// SetDestination puts the fleet in transit toward a star.
func (f *Fleet) SetDestination(starID, eta uint32) {
	f.DestinationStarID = starID
	f.InTransit = true
	f.ETATurns = eta
}

// AdvanceTurn moves the fleet one turn along its route. Returns true when
// the fleet arrives this turn.
func (f *Fleet) AdvanceTurn() bool {
	if f.ETATurns == 0 {
		return false
	}
	f.ETATurns--
	if f.ETATurns == 0 && f.InTransit {
		f.LocationStarID = f.DestinationStarID
		f.InTransit = false
		f.DestinationStarID = 0
		return true
	}
	return false
}

// CombatPower sums attack plus defense over every ship in the fleet.
func (f *Fleet) CombatPower(designs []Design) uint32 {
	var power uint32
	for designID, count := range f.Ships {
		for i := range designs {
			if designs[i].ID == designID {
				power += (designs[i].AttackPower + designs[i].Defense) * count
				break
			}
		}
	}
	return power
}

// Speed returns the fleet's travel speed, set by its slowest ship.
// An empty fleet moves at speed 1.
func (f *Fleet) Speed(designs []Design) uint32 {
	minSpeed := uint32(math.MaxUint32)
	for designID := range f.Ships {
		for i := range designs {
			if designs[i].ID == designID && designs[i].Speed < minSpeed {
				minSpeed = designs[i].Speed
			}
		}
	}
	if minSpeed == math.MaxUint32 {
		return 1
	}
	return minSpeed
}

// ColonyShips returns the design id and count of the lowest-numbered
// colony-capable design in the fleet, or false when it carries none.
func (f *Fleet) ColonyShips(designs []Design) (uint32, uint32, bool) {
	bestID, bestCount, found := uint32(0), uint32(0), false
	for designID, count := range f.Ships {
		if count == 0 {
			continue
		}
		for i := range designs {
			if designs[i].ID == designID && designs[i].IsColonyShip {
				if !found || designID < bestID {
					bestID, bestCount, found = designID, count, true
				}
			}
		}
	}
	return bestID, bestCount, found
}

// Clone returns a deep copy of the fleet.
func (f *Fleet) Clone() *Fleet {
	ships := make(map[uint32]uint32, len(f.Ships))
	for id, count := range f.Ships {
		ships[id] = count
	}
	clone := *f
	clone.Ships = ships
	return &clone
}
