// Package ships implements hulls, components, ship designs with cached
// stats, and fleets.
package ships

import (
	"fmt"
)

// HullSize is a ship hull class.
type HullSize string

// Hull classes, smallest to largest.
const (
	Scout       HullSize = "Scout"
	Destroyer   HullSize = "Destroyer"
	Cruiser     HullSize = "Cruiser"
	Battleship  HullSize = "Battleship"
	Dreadnought HullSize = "Dreadnought"
)

// AllHulls returns hull classes from smallest to largest.
func AllHulls() []HullSize {
	return []HullSize{Scout, Destroyer, Cruiser, Battleship, Dreadnought}
}

type hullStats struct {
	space     uint32
	cost      uint32
	baseHP    uint32
	baseSpeed uint32
	techLevel uint32
}

var hullTable = map[HullSize]hullStats{
	Scout:       {space: 10, cost: 20, baseHP: 10, baseSpeed: 5, techLevel: 0},
	Destroyer:   {space: 25, cost: 50, baseHP: 25, baseSpeed: 4, techLevel: 0},
	Cruiser:     {space: 50, cost: 120, baseHP: 60, baseSpeed: 3, techLevel: 3},
	Battleship:  {space: 100, cost: 300, baseHP: 150, baseSpeed: 2, techLevel: 4},
	Dreadnought: {space: 200, cost: 600, baseHP: 350, baseSpeed: 1, techLevel: 5},
}

// Space returns the component space available on this hull.
func (h HullSize) Space() uint32 { return hullTable[h].space }

// Cost returns the base production cost of this hull.
func (h HullSize) Cost() uint32 { return hullTable[h].cost }

// BaseHP returns the base hull hit points.
func (h HullSize) BaseHP() uint32 { return hullTable[h].baseHP }

// BaseSpeed returns the unmodified hull speed.
func (h HullSize) BaseSpeed() uint32 { return hullTable[h].baseSpeed }

// RequiredTechLevel returns the Construction level needed to build this hull.
func (h HullSize) RequiredTechLevel() uint32 { return hullTable[h].techLevel }

// ComponentType categorizes ship components.
type ComponentType string

// Component categories.
const (
	Engine   ComponentType = "Engine"
	Weapon   ComponentType = "Weapon"
	Shield   ComponentType = "Shield"
	Computer ComponentType = "Computer"
	Special  ComponentType = "Special"
)

// Component is an installable ship part. The stat fields used depend on
// the component type.
type Component struct {
	Name      string        `json:"name"`
	Type      ComponentType `json:"type"`
	Space     uint32        `json:"space"`
	Cost      uint32        `json:"cost"`
	TechLevel uint32        `json:"techLevel"`

	SpeedBonus    int32  `json:"speedBonus,omitempty"`
	RangeBonus    int32  `json:"rangeBonus,omitempty"`
	Damage        uint32 `json:"damage,omitempty"`
	WeaponRange   uint32 `json:"weaponRange,omitempty"`
	Accuracy      int32  `json:"accuracy,omitempty"`
	Strength      uint32 `json:"strength,omitempty"`
	Regeneration  uint32 `json:"regeneration,omitempty"`
	AccuracyBonus int32  `json:"accuracyBonus,omitempty"`
	ECM           int32  `json:"ecm,omitempty"`
	Effect        string `json:"effect,omitempty"`
}

// EffectColony marks a component that lets a ship found colonies.
const EffectColony = "colony"

// AllComponents returns the full component catalog.
func AllComponents() []Component {
	return []Component{
		// Engines
		{Name: "Nuclear Drive", Type: Engine, Space: 5, Cost: 10, TechLevel: 0, SpeedBonus: 0, RangeBonus: 3},
		{Name: "Ion Drive", Type: Engine, Space: 5, Cost: 20, TechLevel: 2, SpeedBonus: 1, RangeBonus: 5},
		{Name: "Warp Engine", Type: Engine, Space: 8, Cost: 40, TechLevel: 3, SpeedBonus: 2, RangeBonus: 8},
		{Name: "Hyperdrive", Type: Engine, Space: 10, Cost: 80, TechLevel: 4, SpeedBonus: 3, RangeBonus: 12},

		// Weapons
		{Name: "Laser Cannon", Type: Weapon, Space: 3, Cost: 5, TechLevel: 0, Damage: 5, WeaponRange: 1, Accuracy: 0},
		{Name: "Particle Beam", Type: Weapon, Space: 5, Cost: 15, TechLevel: 2, Damage: 10, WeaponRange: 2, Accuracy: 5},
		{Name: "Fusion Missile", Type: Weapon, Space: 8, Cost: 30, TechLevel: 3, Damage: 20, WeaponRange: 3, Accuracy: -5},
		{Name: "Plasma Torpedo", Type: Weapon, Space: 12, Cost: 60, TechLevel: 4, Damage: 35, WeaponRange: 3, Accuracy: 0},
		{Name: "Antimatter Cannon", Type: Weapon, Space: 20, Cost: 120, TechLevel: 5, Damage: 60, WeaponRange: 4, Accuracy: 10},

		// Shields
		{Name: "Deflector Screen", Type: Shield, Space: 3, Cost: 8, TechLevel: 1, Strength: 10, Regeneration: 1},
		{Name: "Class II Shield", Type: Shield, Space: 5, Cost: 20, TechLevel: 2, Strength: 25, Regeneration: 2},
		{Name: "Class III Shield", Type: Shield, Space: 8, Cost: 50, TechLevel: 3, Strength: 50, Regeneration: 5},
		{Name: "Class V Shield", Type: Shield, Space: 15, Cost: 100, TechLevel: 5, Strength: 100, Regeneration: 10},

		// Computers
		{Name: "Targeting Computer", Type: Computer, Space: 2, Cost: 10, TechLevel: 1, AccuracyBonus: 10, ECM: 0},
		{Name: "Battle Computer", Type: Computer, Space: 4, Cost: 30, TechLevel: 3, AccuracyBonus: 25, ECM: 10},
		{Name: "Oracle System", Type: Computer, Space: 8, Cost: 80, TechLevel: 5, AccuracyBonus: 50, ECM: 30},

		// Specials
		{Name: "Colony Module", Type: Special, Space: 15, Cost: 50, TechLevel: 0, Effect: EffectColony},
		{Name: "Extended Fuel Tanks", Type: Special, Space: 5, Cost: 15, TechLevel: 1, Effect: "fuel_range_+50%"},
		{Name: "Cloaking Device", Type: Special, Space: 20, Cost: 200, TechLevel: 5, Effect: "cloak"},
	}
}

// ComponentByName looks up a component in the catalog.
func ComponentByName(name string) (Component, bool) {
	for _, c := range AllComponents() {
		if c.Name == name {
			return c, true
		}
	}
	return Component{}, false
}

// ComponentsAtLevel returns components buildable at the given tech level.
func ComponentsAtLevel(level uint32) []Component {
	var out []Component
	for _, c := range AllComponents() {
		if c.TechLevel <= level {
			out = append(out, c)
		}
	}
	return out
}

// Design is a ship blueprint with stats cached at creation.
type Design struct {
	ID         uint32   `json:"id"`
	Name       string   `json:"name"`
	Hull       HullSize `json:"hull"`
	Components []string `json:"components"`

	TotalHP      uint32 `json:"totalHP"`
	AttackPower  uint32 `json:"attackPower"`
	Defense      uint32 `json:"defense"`
	Speed        uint32 `json:"speed"`
	Range        uint32 `json:"range"`
	Cost         uint32 `json:"cost"`
	IsColonyShip bool   `json:"isColonyShip"`
}

// NewDesign validates the component loadout against hull space and
// computes the design's cached stats.
func NewDesign(id uint32, name string, hull HullSize, components []string) (*Design, error) {
	if _, ok := hullTable[hull]; !ok {
		return nil, fmt.Errorf("unknown hull: %q", hull)
	}

	var (
		totalSpace uint32
		totalCost  = hull.Cost()
		speedBonus int32
		rangeBonus int32
		attack     uint32
		defense    uint32
		isColony   bool
	)

	for _, name := range components {
		comp, ok := ComponentByName(name)
		if !ok {
			return nil, fmt.Errorf("unknown component: %s", name)
		}
		totalSpace += comp.Space
		totalCost += comp.Cost

		switch comp.Type {
		case Engine:
			speedBonus += comp.SpeedBonus
			rangeBonus += comp.RangeBonus
		case Weapon:
			attack += comp.Damage
		case Shield:
			defense += comp.Strength
		case Computer:
			attack += uint32(comp.AccuracyBonus) / 5
		case Special:
			if comp.Effect == EffectColony {
				isColony = true
			}
		}
	}

	if totalSpace > hull.Space() {
		return nil, fmt.Errorf("design exceeds hull space: %d > %d", totalSpace, hull.Space())
	}

	speed := int32(hull.BaseSpeed()) + speedBonus
	if speed < 1 {
		speed = 1
	}
	shipRange := 3 + rangeBonus
	if shipRange < 1 {
		shipRange = 1
	}

	return &Design{
		ID:           id,
		Name:         name,
		Hull:         hull,
		Components:   components,
		TotalHP:      hull.BaseHP(),
		AttackPower:  attack,
		Defense:      defense,
		Speed:        uint32(speed),
		Range:        uint32(shipRange),
		Cost:         totalCost,
		IsColonyShip: isColony,
	}, nil
}

// DefaultDesigns returns the three designs every empire starts with.
func DefaultDesigns() []Design {
	scout, _ := NewDesign(0, "Scout", Scout, []string{"Nuclear Drive"})
	colony, _ := NewDesign(1, "Colony Ship", Destroyer, []string{"Nuclear Drive", "Colony Module"})
	fighter, _ := NewDesign(2, "Fighter", Destroyer, []string{"Nuclear Drive", "Laser Cannon", "Laser Cannon"})
	return []Design{*scout, *colony, *fighter}
}
