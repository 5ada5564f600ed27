// Package tech implements the six-field research tree and per-empire
// research progress tracking.
package tech

import (
	"fmt"
)

// Field identifies a research field.
type Field string

// Research fields.
const (
	Propulsion   Field = "Propulsion"
	Weapons      Field = "Weapons"
	Shields      Field = "Shields"
	Planetology  Field = "Planetology"
	Construction Field = "Construction"
	Computers    Field = "Computers"
)

// MaxLevel is the highest level reachable in any field.
const MaxLevel = 6

// AllFields returns the research fields in canonical order.
func AllFields() []Field {
	return []Field{Propulsion, Weapons, Shields, Planetology, Construction, Computers}
}

// FieldNames returns the research field names in canonical order.
func FieldNames() []string {
	fields := AllFields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = string(f)
	}
	return names
}

// costPerLevel is the per-level research point multiplier for each field.
var costPerLevel = map[Field]uint32{
	Propulsion:   100,
	Weapons:      150,
	Shields:      120,
	Planetology:  80,
	Construction: 100,
	Computers:    110,
}

// EffectKind categorizes what a technology grants on breakthrough.
type EffectKind string

// Effect kinds.
const (
	EffectShipSpeed       EffectKind = "ship_speed"
	EffectShipRange       EffectKind = "ship_range"
	EffectWeaponDamage    EffectKind = "weapon_damage"
	EffectShieldStrength  EffectKind = "shield_strength"
	EffectProductionBonus EffectKind = "production_bonus"
	EffectGrowthBonus     EffectKind = "growth_bonus"
	EffectResearchBonus   EffectKind = "research_bonus"
	EffectScannerRange    EffectKind = "scanner_range"
	EffectAccuracyBonus   EffectKind = "accuracy_bonus"
	EffectColonizePlanet  EffectKind = "colonize_planet"
	EffectUnlockBuilding  EffectKind = "unlock_building"
	EffectUnlockHull      EffectKind = "unlock_hull"
)

// Effect is a single bonus or unlock granted by a technology.
type Effect struct {
	Kind   EffectKind `json:"kind"`
	Value  int32      `json:"value,omitempty"`
	Target string     `json:"target,omitempty"`
}

// Technology is one researchable entry in the tree.
type Technology struct {
	ID          uint32   `json:"id"`
	Name        string   `json:"name"`
	Field       Field    `json:"field"`
	Level       uint32   `json:"level"`
	Cost        uint32   `json:"cost"`
	Description string   `json:"description"`
	Effects     []Effect `json:"effects"`
}

// Tree holds every technology in the game.
type Tree struct {
	Technologies []Technology `json:"technologies"`
}

// NewTree builds the default technology tree: six fields, six levels each.
func NewTree() *Tree {
	var techs []Technology
	id := uint32(0)

	add := func(field Field, level uint32, name, desc string, effects ...Effect) {
		techs = append(techs, Technology{
			ID:          id,
			Name:        name,
			Field:       field,
			Level:       level,
			Cost:        level * costPerLevel[field],
			Description: desc,
			Effects:     effects,
		})
		id++
	}

	add(Propulsion, 1, "Hydrogen Fuel Cells", "Basic interstellar propulsion",
		Effect{Kind: EffectShipSpeed, Value: 1}, Effect{Kind: EffectShipRange, Value: 3})
	add(Propulsion, 2, "Ion Drives", "Efficient sub-light engines",
		Effect{Kind: EffectShipSpeed, Value: 2}, Effect{Kind: EffectShipRange, Value: 5})
	add(Propulsion, 3, "Warp Drive", "Faster-than-light travel",
		Effect{Kind: EffectShipSpeed, Value: 3}, Effect{Kind: EffectShipRange, Value: 8})
	add(Propulsion, 4, "Hyperdrive", "Advanced FTL propulsion",
		Effect{Kind: EffectShipSpeed, Value: 4}, Effect{Kind: EffectShipRange, Value: 12})
	add(Propulsion, 5, "Antimatter Engines", "Near-light speed capability",
		Effect{Kind: EffectShipSpeed, Value: 5}, Effect{Kind: EffectShipRange, Value: 18})
	add(Propulsion, 6, "Quantum Slipstream", "Instantaneous galaxy travel",
		Effect{Kind: EffectShipSpeed, Value: 6}, Effect{Kind: EffectShipRange, Value: 99})

	add(Weapons, 1, "Laser Cannon", "Basic directed energy weapon",
		Effect{Kind: EffectWeaponDamage, Value: 5, Target: "Laser"})
	add(Weapons, 2, "Particle Beam", "High-energy particle accelerator",
		Effect{Kind: EffectWeaponDamage, Value: 10, Target: "Particle Beam"})
	add(Weapons, 3, "Fusion Missiles", "Tactical nuclear warheads",
		Effect{Kind: EffectWeaponDamage, Value: 15, Target: "Fusion Missile"})
	add(Weapons, 4, "Plasma Torpedo", "Superheated plasma projectile",
		Effect{Kind: EffectWeaponDamage, Value: 25, Target: "Plasma Torpedo"})
	add(Weapons, 5, "Antimatter Bomb", "Planetary bombardment weapon",
		Effect{Kind: EffectWeaponDamage, Value: 50, Target: "AM Bomb"})
	add(Weapons, 6, "Stellar Converter", "Star-destroying superweapon",
		Effect{Kind: EffectWeaponDamage, Value: 100, Target: "Stellar Converter"})

	add(Shields, 1, "Deflector Screen", "Basic energy barrier",
		Effect{Kind: EffectShieldStrength, Value: 5})
	add(Shields, 2, "Class II Shields", "Improved deflectors",
		Effect{Kind: EffectShieldStrength, Value: 10})
	add(Shields, 3, "Class III Shields", "Heavy deflector grid",
		Effect{Kind: EffectShieldStrength, Value: 20})
	add(Shields, 4, "Planetary Shields", "Full planet protection",
		Effect{Kind: EffectShieldStrength, Value: 35}, Effect{Kind: EffectUnlockBuilding, Target: "PlanetaryShield"})
	add(Shields, 5, "Class V Shields", "Nearly impenetrable barrier",
		Effect{Kind: EffectShieldStrength, Value: 50})
	add(Shields, 6, "Hardened Shields", "Maximum protection technology",
		Effect{Kind: EffectShieldStrength, Value: 75})

	add(Planetology, 1, "Soil Enrichment", "Improved agricultural yield",
		Effect{Kind: EffectGrowthBonus, Value: 10}, Effect{Kind: EffectUnlockBuilding, Target: "Farm"})
	add(Planetology, 2, "Controlled Environment", "Colonize harsh worlds",
		Effect{Kind: EffectColonizePlanet, Target: "Tundra"})
	add(Planetology, 3, "Terraforming", "Transform barren worlds",
		Effect{Kind: EffectColonizePlanet, Target: "Barren"}, Effect{Kind: EffectGrowthBonus, Value: 20})
	add(Planetology, 4, "Advanced Terraforming", "Toxic atmosphere conversion",
		Effect{Kind: EffectColonizePlanet, Target: "Toxic"})
	add(Planetology, 5, "Gaia Transformation", "Create paradise worlds",
		Effect{Kind: EffectGrowthBonus, Value: 50})
	add(Planetology, 6, "Atmospheric Control", "Perfect any environment",
		Effect{Kind: EffectGrowthBonus, Value: 100}, Effect{Kind: EffectUnlockBuilding, Target: "OrbitalHabitat"})

	add(Construction, 1, "Robotic Workers", "Automated factory labor",
		Effect{Kind: EffectProductionBonus, Value: 10}, Effect{Kind: EffectUnlockBuilding, Target: "Factory"})
	add(Construction, 2, "Deep Mining", "Access subterranean resources",
		Effect{Kind: EffectProductionBonus, Value: 20}, Effect{Kind: EffectUnlockBuilding, Target: "DeepCoreMine"})
	add(Construction, 3, "Cruiser Hull", "Medium warship design",
		Effect{Kind: EffectUnlockHull, Target: "Cruiser"})
	add(Construction, 4, "Battleship Hull", "Heavy warship design",
		Effect{Kind: EffectUnlockHull, Target: "Battleship"})
	add(Construction, 5, "Dreadnought Hull", "Capital ship design",
		Effect{Kind: EffectUnlockHull, Target: "Dreadnought"})
	add(Construction, 6, "Star Forge", "Ultimate production facility",
		Effect{Kind: EffectProductionBonus, Value: 50}, Effect{Kind: EffectUnlockBuilding, Target: "StarForge"})

	add(Computers, 1, "Battle Computer Mk I", "Basic targeting assistance",
		Effect{Kind: EffectAccuracyBonus, Value: 5})
	add(Computers, 2, "Deep Space Scanner", "Extended detection range",
		Effect{Kind: EffectScannerRange, Value: 3}, Effect{Kind: EffectUnlockBuilding, Target: "ResearchLab"})
	add(Computers, 3, "Battle Computer Mk II", "Advanced fire control",
		Effect{Kind: EffectAccuracyBonus, Value: 15})
	add(Computers, 4, "Hyperspace Scanner", "Galaxy-wide detection",
		Effect{Kind: EffectScannerRange, Value: 10}, Effect{Kind: EffectResearchBonus, Value: 20})
	add(Computers, 5, "Battle Computer Mk III", "Superior targeting",
		Effect{Kind: EffectAccuracyBonus, Value: 30})
	add(Computers, 6, "Oracle Network", "Perfect information warfare",
		Effect{Kind: EffectScannerRange, Value: 99}, Effect{Kind: EffectAccuracyBonus, Value: 50},
		Effect{Kind: EffectUnlockBuilding, Target: "HyperspaceComm"})

	return &Tree{Technologies: techs}
}

// FieldTechs returns every technology in a field, ordered by level.
func (t *Tree) FieldTechs(field Field) []Technology {
	var out []Technology
	for _, tech := range t.Technologies {
		if tech.Field == field {
			out = append(out, tech)
		}
	}
	return out
}

// Tech looks up a technology by ID.
func (t *Tree) Tech(id uint32) (Technology, bool) {
	for _, tech := range t.Technologies {
		if tech.ID == id {
			return tech, true
		}
	}
	return Technology{}, false
}

// NextInField returns the next researchable technology in a field given
// the current level, or false when the field is maxed out.
func (t *Tree) NextInField(field Field, currentLevel uint32) (Technology, bool) {
	for _, tech := range t.Technologies {
		if tech.Field == field && tech.Level == currentLevel+1 {
			return tech, true
		}
	}
	return Technology{}, false
}

// Progress tracks an empire's accumulated research.
type Progress struct {
	// Research points banked toward the next level, per field.
	Points map[Field]uint32 `json:"points"`
	// Levels achieved per field. Missing entries mean level 0.
	Levels map[Field]uint32 `json:"levels"`
	// Allocation percentage per field; the total should not exceed 100.
	Allocation map[Field]uint32 `json:"allocation"`
}

// NewProgress returns a fresh progress tracker with a near-even default
// allocation slightly favoring propulsion.
func NewProgress() *Progress {
	allocation := make(map[Field]uint32)
	for _, field := range AllFields() {
		allocation[field] = 16
	}
	allocation[Propulsion] = 20

	return &Progress{
		Points:     make(map[Field]uint32),
		Levels:     make(map[Field]uint32),
		Allocation: allocation,
	}
}

// Level returns the achieved level in a field (0 if not researched).
func (p *Progress) Level(field Field) uint32 {
	return p.Levels[field]
}

// PointsIn returns the banked points in a field.
func (p *Progress) PointsIn(field Field) uint32 {
	return p.Points[field]
}

// AllocationFor returns the allocation percentage for a field.
func (p *Progress) AllocationFor(field Field) uint32 {
	return p.Allocation[field]
}

// SetAllocation sets the allocation percentage for a field. Callers are
// responsible for keeping the total at or below 100.
func (p *Progress) SetAllocation(field Field, percent uint32) {
	p.Allocation[field] = percent
}

// AllFieldsMaxed reports whether every field has reached MaxLevel.
func (p *Progress) AllFieldsMaxed() bool {
	for _, field := range AllFields() {
		if p.Level(field) < MaxLevel {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the progress tracker.
func (p *Progress) Clone() *Progress {
	cp := &Progress{
		Points:     make(map[Field]uint32, len(p.Points)),
		Levels:     make(map[Field]uint32, len(p.Levels)),
		Allocation: make(map[Field]uint32, len(p.Allocation)),
	}
	for k, v := range p.Points {
		cp.Points[k] = v
	}
	for k, v := range p.Levels {
		cp.Levels[k] = v
	}
	for k, v := range p.Allocation {
		cp.Allocation[k] = v
	}
	return cp
}

// AddResearch distributes totalPoints across fields per the allocation map
// and returns any technologies unlocked this turn. At most one level per
// field can complete in a single call.
func (p *Progress) AddResearch(totalPoints uint32, tree *Tree) []Technology {
	var breakthroughs []Technology

	for _, field := range AllFields() {
		alloc := p.AllocationFor(field)
		fieldPoints := (totalPoints * alloc) / 100
		if fieldPoints == 0 {
			continue
		}

		newPoints := p.Points[field] + fieldPoints
		p.Points[field] = newPoints

		currentLevel := p.Level(field)
		next, ok := tree.NextInField(field, currentLevel)
		if ok && newPoints >= next.Cost {
			p.Points[field] = newPoints - next.Cost
			p.Levels[field] = currentLevel + 1
			breakthroughs = append(breakthroughs, next)
		}
	}

	return breakthroughs
}

// CostOf returns the research cost of a level in a field.
func CostOf(field Field, level uint32) (uint32, error) {
	mult, ok := costPerLevel[field]
	if !ok {
		return 0, fmt.Errorf("unknown research field: %q", field)
	}
	if level == 0 || level > MaxLevel {
		return 0, fmt.Errorf("level out of range: %d", level)
	}
	return level * mult, nil
}
