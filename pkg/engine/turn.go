package engine

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/opd-ai/go-stellar/pkg/combat"
	"github.com/opd-ai/go-stellar/pkg/empire"
	"github.com/opd-ai/go-stellar/pkg/event"
	"github.com/opd-ai/go-stellar/pkg/ships"
	"github.com/opd-ai/go-stellar/pkg/tech"
)

// ProcessTurn runs the turn pipeline: AI order generation, colony
// orders, fleet orders, research, combat, population growth, victory
// check, turn advance. It is the sole mutator of world state and holds
// the write lock for its whole duration.
func (g *Game) ProcessTurn() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.Status {
	case StatusWaitingForPlayers:
		return ErrNotStarted
	case StatusCompleted:
		return ErrGameCompleted
	}

	g.generateAIOrders()
	g.processColonyOrders()
	g.processFleetOrders()
	g.processResearch()
	g.resolveCombats()
	g.growPopulation()
	g.checkVictory()
	g.advanceTurn()
	return nil
}

// generateAIOrders fills in orders for AI empires that have none. Each
// generator sees snapshot copies taken before any orders apply, so the
// turn feels simultaneous to every participant.
func (g *Game) generateAIOrders() {
	galaxySnap := g.Galaxy.Clone()
	for _, e := range g.Empires {
		if !e.IsAI {
			continue
		}
		if _, ok := g.PendingOrders[e.ID]; ok {
			continue
		}
		gen := g.newGenerator(e.ID, e.AIProfile)
		g.PendingOrders[e.ID] = gen.GenerateOrders(e.Clone(), galaxySnap, g.TurnNumber)
	}
}

// processColonyOrders replaces build queues from orders, accrues
// production, completes affordable queue heads, and applies population
// transfers. An unaffordable head is partial progress, not an error.
func (g *Game) processColonyOrders() {
	for _, e := range g.Empires {
		orders, ok := g.PendingOrders[e.ID]
		if !ok {
			continue
		}

		for _, co := range orders.ColonyOrders {
			colony, found := e.Colony(co.StarID)
			if !found {
				continue
			}

			colony.BuildQueue = append([]string(nil), co.BuildQueue...)
			colony.AccumulatedProduction += colony.ProductionOutput()
			g.drainBuildQueue(e, colony)

			if co.PopulationTransfer != nil {
				g.transferPopulation(e, colony, co.PopulationTransfer)
			}
		}
	}
}

// drainBuildQueue completes queue-head items while affordable. Ship
// items additionally require a shipyard, building items their
// Construction tech level; an unmet requirement keeps the item pending
// rather than discarding it.
func (g *Game) drainBuildQueue(e *empire.State, colony *empire.Colony) {
	for len(colony.BuildQueue) > 0 {
		item := colony.BuildQueue[0]
		cost := empire.BuildCost(item)
		if colony.AccumulatedProduction < cost {
			return
		}

		if design := designByName(e, item); design != nil {
			if !colony.HasShipyard() {
				return
			}
			colony.AccumulatedProduction -= cost
			g.deliverShip(e, colony.StarID, design.ID)
		} else {
			b := empire.Building(item)
			if e.Research.Level(tech.Construction) < b.RequiredTechLevel() {
				return
			}
			colony.AccumulatedProduction -= cost
			colony.Buildings = append(colony.Buildings, item)
			if b == empire.BuildingPlanetaryShield {
				colony.HasPlanetaryShield = true
			}
		}

		colony.BuildQueue = colony.BuildQueue[1:]
	}
}

func designByName(e *empire.State, name string) *ships.Design {
	for i := range e.ShipDesigns {
		if e.ShipDesigns[i].Name == name {
			return &e.ShipDesigns[i]
		}
	}
	return nil
}

// deliverShip adds a completed ship to a stationed fleet at the star,
// founding a new fleet when none is present.
func (g *Game) deliverShip(e *empire.State, starID, designID uint32) {
	var target *ships.Fleet
	for _, f := range e.Fleets {
		if !f.IsInTransit() && f.LocationStarID == starID {
			if target == nil || f.ID < target.ID {
				target = f
			}
		}
	}
	if target == nil {
		target = ships.NewFleet(e.NextFleetID(), e.ID, fmt.Sprintf("Fleet %d", e.NextFleetID()), starID)
		e.Fleets = append(e.Fleets, target)
	}
	target.AddShips(designID, 1)
}

// transferPopulation moves settlers between two colonies of the same
// empire, clamped to the source's population and the destination's
// remaining capacity.
func (g *Game) transferPopulation(e *empire.State, source *empire.Colony, t *empire.PopulationTransfer) {
	dest, ok := e.Colony(t.DestinationStarID)
	if !ok || dest == source {
		return
	}

	amount := t.Amount
	if amount > source.Population {
		amount = source.Population
	}
	if headroom := dest.MaxPopulation - dest.Population; amount > headroom {
		amount = headroom
	}

	source.Population -= amount
	dest.Population += amount
}

// processFleetOrders routes fleets toward ordered destinations, then
// advances every fleet one turn, colonizing on arrival where ordered.
func (g *Game) processFleetOrders() {
	for _, e := range g.Empires {
		if orders, ok := g.PendingOrders[e.ID]; ok {
			for _, fo := range orders.FleetOrders {
				g.routeFleet(e, fo)
			}
		}

		for _, fleet := range e.Fleets {
			arrived := fleet.AdvanceTurn()
			if arrived && fleet.ColonizeOnArrival {
				fleet.ColonizeOnArrival = false
				g.tryColonize(e, fleet)
			}
		}
	}
}

// routeFleet puts a fleet in transit toward its ordered destination.
// Unreachable destinations leave the fleet in place and surface a
// rejection event.
func (g *Game) routeFleet(e *empire.State, fo empire.FleetOrders) {
	fleet, ok := e.Fleet(fo.FleetID)
	if !ok || fo.Destination == nil {
		return
	}

	dest := *fo.Destination
	distance, reachable := g.Galaxy.PathDistance(fleet.LocationStarID, dest)
	if !reachable {
		g.eventBus.Publish(event.NewStarEvent(event.FleetOrderRejected, g, g.ID, dest, e.ID, 0))
		return
	}

	speed := fleet.Speed(e.ShipDesigns)
	eta := uint32(math.Ceil(distance / (float64(speed) * g.Config.FleetSpeedScale)))
	if eta < 1 {
		eta = 1
	}
	fleet.SetDestination(dest, eta)
	fleet.ColonizeOnArrival = fo.Colonize
}

// tryColonize founds a colony at the fleet's star if the star is
// unowned, the planet type is within the empire's Planetology reach,
// and the fleet still carries a colony ship. The colony ship is
// consumed.
func (g *Game) tryColonize(e *empire.State, fleet *ships.Fleet) {
	star, ok := g.Galaxy.Star(fleet.LocationStarID)
	if !ok || star.Owned {
		return
	}
	if !e.CanColonize(star.Planet.Type) {
		return
	}
	designID, _, hasColonyShip := fleet.ColonyShips(e.ShipDesigns)
	if !hasColonyShip {
		return
	}

	fleet.RemoveShips(designID, 1)
	e.Colonies = append(e.Colonies, empire.NewColony(star.ID, star.Planet.MaxPopulation))
	e.AddKnownStar(star.ID)
	star.Owned = true
	star.Owner = e.ID

	g.eventBus.Publish(event.NewStarEvent(event.StarColonized, g, g.ID, star.ID, e.ID, 0))
}

// processResearch applies allocation from orders and feeds each
// empire's colony research output through the tech tree.
func (g *Game) processResearch() {
	for _, e := range g.Empires {
		if orders, ok := g.PendingOrders[e.ID]; ok {
			alloc := make(map[tech.Field]uint32, len(orders.ResearchAllocation))
			for field, pct := range orders.ResearchAllocation {
				alloc[field] = pct
			}
			e.Research.Allocation = alloc
		}

		breakthroughs := e.Research.AddResearch(e.ResearchOutput(), g.techTree)
		for _, t := range breakthroughs {
			g.eventBus.Publish(event.NewResearchEvent(g, g.ID, e.ID, string(t.Field), uint8(t.Level)))
		}
	}
}

// resolveCombats groups stationed fleets by star and resolves exactly
// one battle per contested star per turn between the two strongest
// empires present. Losses apply back to the fleets; emptied fleets are
// removed.
func (g *Game) resolveCombats() {
	byStar := make(map[uint32]map[uint32]*starPresence)
	for _, e := range g.Empires {
		for _, fleet := range e.Fleets {
			if fleet.IsInTransit() || fleet.TotalShips() == 0 {
				continue
			}
			star := byStar[fleet.LocationStarID]
			if star == nil {
				star = make(map[uint32]*starPresence)
				byStar[fleet.LocationStarID] = star
			}
			p := star[e.ID]
			if p == nil {
				p = &starPresence{empire: e}
				star[e.ID] = p
			}
			p.fleets = append(p.fleets, fleet)
		}
	}

	var contested []uint32
	for starID, presences := range byStar {
		if len(presences) > 1 {
			contested = append(contested, starID)
		}
	}
	sort.Slice(contested, func(i, j int) bool { return contested[i] < contested[j] })

	for _, starID := range contested {
		presences := byStar[starID]

		engagement := combat.Engagement{StarID: starID}
		for empireID := range presences {
			engagement.EmpireIDs = append(engagement.EmpireIDs, empireID)
		}
		sort.Slice(engagement.EmpireIDs, func(i, j int) bool {
			return engagement.EmpireIDs[i] < engagement.EmpireIDs[j]
		})

		g.LastMessage = fmt.Sprintf("Combat detected at star %d!", starID)
		g.eventBus.Publish(event.NewStarEvent(event.CombatDetected, g, g.ID, starID, engagement.EmpireIDs[0], 0))

		g.resolveBattleAt(starID, presences, engagement.EmpireIDs)
	}
}

// starPresence is one empire's stationed fleets at a star.
type starPresence struct {
	empire *empire.State
	fleets []*ships.Fleet
}

func (g *Game) resolveBattleAt(starID uint32, presences map[uint32]*starPresence, empireIDs []uint32) {
	// Rank empires by their combined combat power at the star; the two
	// strongest fight, stronger side attacking. Ties break on lower ID.
	power := func(id uint32) uint32 {
		var total uint32
		p := presences[id]
		for _, f := range p.fleets {
			total += f.CombatPower(p.empire.ShipDesigns)
		}
		return total
	}
	ranked := append([]uint32(nil), empireIDs...)
	sort.Slice(ranked, func(i, j int) bool {
		pi, pj := power(ranked[i]), power(ranked[j])
		if pi != pj {
			return pi > pj
		}
		return ranked[i] < ranked[j]
	})

	attacker := presences[ranked[0]]
	defender := presences[ranked[1]]
	attFleet := strongestFleet(attacker)
	defFleet := strongestFleet(defender)

	result := g.resolver.ResolveBattle(attFleet, defFleet,
		attacker.empire.ShipDesigns, defender.empire.ShipDesigns, starID, g.TurnNumber)
	g.BattleReports = append(g.BattleReports, result)

	applyLosses(attacker.empire, attFleet, result.AttackerLosses)
	applyLosses(defender.empire, defFleet, result.DefenderLosses)
}

func strongestFleet(p *starPresence) *ships.Fleet {
	best := p.fleets[0]
	bestPower := best.CombatPower(p.empire.ShipDesigns)
	for _, f := range p.fleets[1:] {
		if fp := f.CombatPower(p.empire.ShipDesigns); fp > bestPower || (fp == bestPower && f.ID < best.ID) {
			best, bestPower = f, fp
		}
	}
	return best
}

func applyLosses(e *empire.State, fleet *ships.Fleet, losses []combat.ShipLoss) {
	for _, loss := range losses {
		fleet.RemoveShips(loss.DesignID, loss.Count)
	}
	if fleet.TotalShips() == 0 {
		e.RemoveFleet(fleet.ID)
	}
}

// growPopulation applies each colony's growth for the turn.
func (g *Game) growPopulation() {
	for _, e := range g.Empires {
		for _, colony := range e.Colonies {
			colony.Population += colony.PopulationGrowth()
		}
	}
}

// checkVictory evaluates the victory conditions in order: conquest,
// technology, then last-human-standing, which completes the game with
// no declared winner.
func (g *Game) checkVictory() {
	var active []*empire.State
	for _, e := range g.Empires {
		if e.IsActive() {
			active = append(active, e)
		}
	}

	if len(active) == 1 {
		g.complete(VictoryConquest, &active[0].ID)
		return
	}

	for _, e := range active {
		if e.Research.AllFieldsMaxed() {
			g.complete(VictoryTechnology, &e.ID)
			return
		}
	}

	humans := 0
	for _, e := range active {
		if !e.IsAI {
			humans++
		}
	}
	if humans == 0 {
		g.complete(VictoryLastHumanStanding, nil)
	}
}

func (g *Game) complete(victory VictoryType, winner *uint32) {
	g.Status = StatusCompleted
	g.VictoryType = victory
	g.WinnerEmpireID = winner
	g.eventBus.Publish(event.NewGameEndedEvent(g, g.ID, winner, string(victory)))
}

// advanceTurn increments the turn counter, clears per-turn state, and
// recomputes the deadline. Completed games carry no deadline.
func (g *Game) advanceTurn() {
	processed := g.TurnNumber
	g.TurnNumber++
	g.PendingOrders = make(map[uint32]*empire.TurnOrders)
	g.BattleReports = nil
	g.TimeoutHandled = make(map[uint32]bool)

	if g.Status == StatusInProgress {
		g.TurnDeadline = time.Now().Add(time.Duration(g.Config.TurnTimeoutHours) * time.Hour)
	} else {
		g.TurnDeadline = time.Time{}
	}

	g.eventBus.Publish(event.NewTurnEvent(event.TurnProcessed, g, g.ID, processed))
}
