// pkg/galaxy/planet.go
package galaxy

// PlanetType classifies the single planet orbiting each star.
type PlanetType string

// Planet classifications, from most to least hospitable.
const (
	Terran   PlanetType = "Terran"
	Ocean    PlanetType = "Ocean"
	Arid     PlanetType = "Arid"
	Tundra   PlanetType = "Tundra"
	Barren   PlanetType = "Barren"
	Toxic    PlanetType = "Toxic"
	GasGiant PlanetType = "GasGiant"
)

// BaseMaxPop returns the base maximum population for this planet type.
func (t PlanetType) BaseMaxPop() uint32 {
	switch t {
	case Terran:
		return 200
	case Ocean:
		return 150
	case Arid:
		return 100
	case Tundra:
		return 80
	case Barren:
		return 50
	case Toxic:
		return 30
	default:
		return 0
	}
}

// BaseProduction returns the base production value for this planet type.
func (t PlanetType) BaseProduction() uint32 {
	switch t {
	case Terran:
		return 20
	case Ocean:
		return 15
	case Arid:
		return 15
	case Tundra:
		return 10
	case Barren:
		return 25 // good for mining
	case Toxic:
		return 30 // rare minerals
	case GasGiant:
		return 5 // fuel only
	default:
		return 0
	}
}

// RequiredTechLevel returns the Planetology level needed to colonize this
// planet type. Gas giants are never colonizable.
func (t PlanetType) RequiredTechLevel() uint32 {
	switch t {
	case Tundra:
		return 1
	case Barren:
		return 2
	case Toxic:
		return 3
	case GasGiant:
		return 99
	default:
		return 0
	}
}

// PlanetSpecial marks a notable planetary feature.
type PlanetSpecial string

// Special planetary features.
const (
	MineralRich    PlanetSpecial = "MineralRich"
	MineralPoor    PlanetSpecial = "MineralPoor"
	UltraRich      PlanetSpecial = "UltraRich"
	Artifacts      PlanetSpecial = "Artifacts"
	HostileNatives PlanetSpecial = "HostileNatives"
	Fertile        PlanetSpecial = "Fertile"
)

// Planet is the single world orbiting a star.
type Planet struct {
	Type           PlanetType    `json:"type"`
	MaxPopulation  uint32        `json:"maxPopulation"`
	Population     uint32        `json:"population"`
	BaseProduction uint32        `json:"baseProduction"`
	Special        PlanetSpecial `json:"special,omitempty"`
}
