// Package ai generates turn orders for computer-controlled empires.
// Order generation is deterministic: the same profile seed, empire, and
// turn number always produce the same orders, so replaying a saved game
// gives identical results.
package ai

import (
	"math/rand/v2"

	"github.com/opd-ai/go-stellar/pkg/empire"
	"github.com/opd-ai/go-stellar/pkg/galaxy"
	"github.com/opd-ai/go-stellar/pkg/tech"
)

// scanRange is how far (in map units) a controller looks for expansion
// and attack targets around each idle fleet.
const scanRange = 30.0

// Controller produces orders for one AI empire according to its
// personality.
type Controller struct {
	empireID    uint32
	personality empire.Personality
	seed        uint64
}

// NewController builds a controller from an empire's stored AI profile.
func NewController(empireID uint32, profile *empire.AIProfile) *Controller {
	p := empire.PersonalityBalanced
	seed := uint64(0)
	if profile != nil {
		p = profile.Personality
		seed = profile.Seed
	}
	return &Controller{empireID: empireID, personality: p, seed: seed}
}

// rng derives the per-turn random stream. Mixing the empire ID keeps
// two AI empires sharing a game seed from making mirrored moves.
func (c *Controller) rng(turn uint32) *rand.Rand {
	return rand.New(rand.NewPCG(c.seed+uint64(c.empireID)*0x9e3779b97f4a7c15, uint64(turn)))
}

// GenerateOrders produces a complete, submitted order set for the
// empire. The empire and galaxy arguments are read-only snapshots.
func (c *Controller) GenerateOrders(e *empire.State, g *galaxy.Galaxy, turn uint32) *empire.TurnOrders {
	rng := c.rng(turn)

	orders := empire.NewTurnOrders(c.empireID)
	orders.Submitted = true
	orders.AIGenerated = true

	for _, colony := range e.Colonies {
		orders.ColonyOrders = append(orders.ColonyOrders, c.colonyOrders(colony, rng))
	}

	for _, fleet := range e.Fleets {
		if fo, ok := c.fleetOrders(fleet.ID, e, g, rng); ok {
			orders.FleetOrders = append(orders.FleetOrders, fo)
		}
	}

	c.allocateResearch(orders)
	return orders
}

func (c *Controller) colonyOrders(colony *empire.Colony, rng *rand.Rand) empire.ColonyOrders {
	var queue []string

	needsShipyard := !colony.HasShipyard()
	needsFactory := colony.CountBuilding(empire.BuildingFactory) < 3
	needsLab := colony.CountBuilding(empire.BuildingResearchLab) < 2

	switch c.personality {
	case empire.PersonalityExpansionist:
		if needsShipyard {
			queue = append(queue, string(empire.BuildingShipyard))
		} else if rng.Float64() < 0.5 {
			queue = append(queue, "Colony Ship")
		}
		if needsFactory {
			queue = append(queue, string(empire.BuildingFactory))
		}
	case empire.PersonalityTechnologist:
		if needsLab {
			queue = append(queue, string(empire.BuildingResearchLab))
		}
		if needsFactory {
			queue = append(queue, string(empire.BuildingFactory))
		}
	case empire.PersonalityMilitarist:
		if needsShipyard {
			queue = append(queue, string(empire.BuildingShipyard))
		} else {
			queue = append(queue, "Fighter")
		}
	default: // balanced
		if needsFactory {
			queue = append(queue, string(empire.BuildingFactory))
		} else if needsShipyard {
			queue = append(queue, string(empire.BuildingShipyard))
		} else if needsLab {
			queue = append(queue, string(empire.BuildingResearchLab))
		}
	}

	return empire.ColonyOrders{StarID: colony.StarID, BuildQueue: queue}
}

func (c *Controller) fleetOrders(fleetID uint32, e *empire.State, g *galaxy.Galaxy, rng *rand.Rand) (empire.FleetOrders, bool) {
	fleet, ok := e.Fleet(fleetID)
	if !ok || fleet.IsInTransit() {
		return empire.FleetOrders{}, false
	}

	var uncolonized, enemy []*galaxy.Star
	for _, s := range g.StarsInRange(fleet.LocationStarID, scanRange) {
		switch {
		case !s.Owned:
			uncolonized = append(uncolonized, s)
		case s.Owner != c.empireID:
			enemy = append(enemy, s)
		}
	}

	var dest *galaxy.Star
	switch c.personality {
	case empire.PersonalityMilitarist:
		if len(enemy) > 0 && rng.Float64() < 0.7 {
			dest = enemy[rng.IntN(len(enemy))]
		} else if len(uncolonized) > 0 {
			dest = uncolonized[rng.IntN(len(uncolonized))]
		}
	case empire.PersonalityTechnologist:
		if len(uncolonized) > 0 && rng.Float64() < 0.4 {
			dest = uncolonized[rng.IntN(len(uncolonized))]
		}
	default: // expansionist, balanced
		if len(uncolonized) > 0 && rng.Float64() < 0.7 {
			dest = uncolonized[rng.IntN(len(uncolonized))]
		} else if len(enemy) > 0 && rng.Float64() < 0.3 {
			dest = enemy[rng.IntN(len(enemy))]
		}
	}

	if dest == nil {
		return empire.FleetOrders{}, false
	}

	id := dest.ID
	return empire.FleetOrders{
		FleetID:     fleetID,
		Destination: &id,
		Colonize:    true, // only takes effect with a colony ship aboard
	}, true
}

func (c *Controller) allocateResearch(orders *empire.TurnOrders) {
	switch c.personality {
	case empire.PersonalityExpansionist:
		orders.ResearchAllocation = map[tech.Field]uint32{
			tech.Propulsion:   30,
			tech.Planetology:  25,
			tech.Construction: 20,
			tech.Weapons:      10,
			tech.Shields:      10,
			tech.Computers:    5,
		}
	case empire.PersonalityTechnologist:
		orders.ResearchAllocation = map[tech.Field]uint32{
			tech.Computers:    30,
			tech.Planetology:  20,
			tech.Construction: 20,
			tech.Propulsion:   15,
			tech.Weapons:      10,
			tech.Shields:      5,
		}
	case empire.PersonalityMilitarist:
		orders.ResearchAllocation = map[tech.Field]uint32{
			tech.Weapons:      30,
			tech.Shields:      25,
			tech.Computers:    20,
			tech.Propulsion:   15,
			tech.Construction: 5,
			tech.Planetology:  5,
		}
	default:
		alloc := make(map[tech.Field]uint32)
		for _, f := range tech.AllFields() {
			alloc[f] = 16
		}
		orders.ResearchAllocation = alloc
	}
}
