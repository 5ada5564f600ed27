package empire

import "math"

// Colony is a settled planet belonging to an empire. Buildings and the
// build queue hold catalog keys or ship names as plain strings.
type Colony struct {
	StarID                uint32   `json:"star_id"`
	Population            uint32   `json:"population"`
	MaxPopulation         uint32   `json:"max_population"`
	Buildings             []string `json:"buildings"`
	BuildQueue            []string `json:"build_queue"`
	AccumulatedProduction uint32   `json:"accumulated_production"`
	HasPlanetaryShield    bool     `json:"has_planetary_shield"`
}

const startingPopulation = 10

// NewColony founds a colony with the starting population and a colony
// base already in place.
func NewColony(starID, maxPopulation uint32) *Colony {
	return &Colony{
		StarID:        starID,
		Population:    startingPopulation,
		MaxPopulation: maxPopulation,
		Buildings:     []string{string(BuildingColonyBase)},
	}
}

// ProductionOutput returns production per turn: one point per five
// population plus building bonuses.
func (c *Colony) ProductionOutput() uint32 {
	output := c.Population / 5
	for _, b := range c.Buildings {
		switch Building(b) {
		case BuildingFactory:
			output += 10
		case BuildingDeepCoreMine:
			output += 25
		case BuildingStarForge:
			output += 50
		}
	}
	return output
}

// ResearchOutput returns research per turn: one point per ten
// population plus five per research lab.
func (c *Colony) ResearchOutput() uint32 {
	output := c.Population / 10
	for _, b := range c.Buildings {
		if Building(b) == BuildingResearchLab {
			output += 5
		}
	}
	return output
}

// PopulationGrowth returns the growth for one turn: 2% of current
// population (rounded up) plus two per farm, capped at remaining
// capacity. A colony at capacity does not grow.
func (c *Colony) PopulationGrowth() uint32 {
	if c.Population >= c.MaxPopulation {
		return 0
	}
	growth := uint32(math.Ceil(float64(c.Population) * 0.02))
	for _, b := range c.Buildings {
		if Building(b) == BuildingFarm {
			growth += 2
		}
	}
	if headroom := c.MaxPopulation - c.Population; growth > headroom {
		growth = headroom
	}
	return growth
}

// CountBuilding returns how many copies of a building the colony has.
func (c *Colony) CountBuilding(b Building) int {
	n := 0
	for _, have := range c.Buildings {
		if Building(have) == b {
			n++
		}
	}
	return n
}

// HasShipyard reports whether the colony can construct ships.
func (c *Colony) HasShipyard() bool {
	for _, b := range c.Buildings {
		if Building(b) == BuildingShipyard || Building(b) == BuildingStarForge {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the colony.
func (c *Colony) Clone() *Colony {
	cp := *c
	cp.Buildings = append([]string(nil), c.Buildings...)
	cp.BuildQueue = append([]string(nil), c.BuildQueue...)
	return &cp
}
