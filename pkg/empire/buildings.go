package empire

// Building identifies a colony structure by its catalog key. Colony
// building lists and build queues store these keys as plain strings so
// saved games stay readable.
type Building string

const (
	BuildingColonyBase      Building = "ColonyBase"
	BuildingFactory         Building = "Factory"
	BuildingResearchLab     Building = "ResearchLab"
	BuildingFarm            Building = "Farm"
	BuildingPlanetaryShield Building = "PlanetaryShield"
	BuildingShipyard        Building = "Shipyard"
	BuildingDeepCoreMine    Building = "DeepCoreMine"
	BuildingSpacePort       Building = "SpacePort"
	BuildingHyperspaceComm  Building = "HyperspaceComm"
	BuildingOrbitalHabitat  Building = "OrbitalHabitat"
	BuildingStarForge       Building = "StarForge"
)

type buildingInfo struct {
	displayName  string
	description  string
	cost         uint32
	requiredTech uint32
}

var buildingTable = map[Building]buildingInfo{
	BuildingColonyBase:      {"Colony Base", "Basic colony infrastructure", 0, 0},
	BuildingFactory:         {"Factory", "+10 production per turn", 100, 0},
	BuildingResearchLab:     {"Research Lab", "+5 research per turn", 150, 0},
	BuildingFarm:            {"Hydroponic Farm", "+50 population capacity", 80, 0},
	BuildingPlanetaryShield: {"Planetary Shield", "Protects against orbital bombardment", 500, 3},
	BuildingShipyard:        {"Shipyard", "Enables ship construction", 200, 1},
	BuildingDeepCoreMine:    {"Deep Core Mine", "+25 production per turn", 400, 2},
	BuildingSpacePort:       {"Space Port", "+20% trade income", 300, 2},
	BuildingHyperspaceComm:  {"Hyperspace Comm", "Instant communication across galaxy", 1000, 4},
	BuildingOrbitalHabitat:  {"Orbital Habitat", "+100 population capacity", 800, 3},
	BuildingStarForge:       {"Star Forge", "+50 production, can build capital ships", 2000, 5},
}

// AllBuildings returns every building in the catalog in a stable order.
func AllBuildings() []Building {
	return []Building{
		BuildingColonyBase,
		BuildingFactory,
		BuildingResearchLab,
		BuildingFarm,
		BuildingPlanetaryShield,
		BuildingShipyard,
		BuildingDeepCoreMine,
		BuildingSpacePort,
		BuildingHyperspaceComm,
		BuildingOrbitalHabitat,
		BuildingStarForge,
	}
}

// IsKnown reports whether the key names a catalog building.
func (b Building) IsKnown() bool {
	_, ok := buildingTable[b]
	return ok
}

// DisplayName returns the human-readable building name.
func (b Building) DisplayName() string { return buildingTable[b].displayName }

// Description returns a short effect summary for client display.
func (b Building) Description() string { return buildingTable[b].description }

// Cost returns the production cost to construct the building.
func (b Building) Cost() uint32 { return buildingTable[b].cost }

// RequiredTechLevel returns the Construction tech level needed to build
// it. Zero means always available.
func (b Building) RequiredTechLevel() uint32 { return buildingTable[b].requiredTech }

// BuildCost returns the production cost of a build-queue item, which may
// name a building or a ship. Unknown items cost 100 so a stale queue
// entry stalls a colony instead of crashing the turn.
func BuildCost(item string) uint32 {
	if info, ok := buildingTable[Building(item)]; ok {
		return info.cost
	}
	switch item {
	case "Scout":
		return 20
	case "Fighter":
		return 70
	case "Colony Ship":
		return 100
	default:
		return 100
	}
}
