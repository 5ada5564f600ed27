package empire

import "github.com/opd-ai/go-stellar/pkg/tech"

// TurnOrders is the complete order set one empire submits for a turn.
// Resubmitting replaces any earlier set wholesale.
type TurnOrders struct {
	EmpireID           uint32                `json:"empire_id"`
	ColonyOrders       []ColonyOrders        `json:"colony_orders"`
	FleetOrders        []FleetOrders         `json:"fleet_orders"`
	ResearchAllocation map[tech.Field]uint32 `json:"research_allocation"`
	Submitted          bool                  `json:"submitted"`
	AIGenerated        bool                  `json:"ai_generated"`
}

// NewTurnOrders returns an empty order set for an empire.
func NewTurnOrders(empireID uint32) *TurnOrders {
	return &TurnOrders{
		EmpireID:           empireID,
		ResearchAllocation: make(map[tech.Field]uint32),
	}
}

// ColonyOrders directs one colony for a turn. The build queue replaces
// the colony's current queue.
type ColonyOrders struct {
	StarID             uint32              `json:"star_id"`
	BuildQueue         []string            `json:"build_queue"`
	PopulationTransfer *PopulationTransfer `json:"population_transfer,omitempty"`
}

// PopulationTransfer moves settlers to another colony.
type PopulationTransfer struct {
	DestinationStarID uint32 `json:"destination_star_id"`
	Amount            uint32 `json:"amount"`
}

// FleetOrders directs one fleet for a turn.
type FleetOrders struct {
	FleetID     uint32  `json:"fleet_id"`
	Destination *uint32 `json:"destination,omitempty"`
	// Colonize requests settling on arrival; it only takes effect if the
	// fleet carries a colony-capable ship.
	Colonize bool `json:"colonize"`
}
