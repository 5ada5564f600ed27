// Package combat resolves space battles and orbital bombardment.
package combat

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/opd-ai/go-stellar/pkg/ships"
)

// maxRounds caps how long two fleets exchange fire before the battle is
// scored on remaining hit points.
const maxRounds = 10

// Engagement marks a star contested by fleets of different empires.
// One engagement is resolved per contested star per turn.
type Engagement struct {
	StarID    uint32   `json:"star_id"`
	EmpireIDs []uint32 `json:"empire_ids"`
}

// ShipLoss records destroyed ships of one design.
type ShipLoss struct {
	DesignID uint32 `json:"design_id"`
	Count    uint32 `json:"count"`
}

// BattleResult is the outcome of one resolved battle.
type BattleResult struct {
	AttackerEmpireID uint32     `json:"attacker_empire_id"`
	DefenderEmpireID uint32     `json:"defender_empire_id"`
	LocationStarID   uint32     `json:"location_star_id"`
	TurnNumber       uint32     `json:"turn_number"`
	Winner           *uint32    `json:"winner,omitempty"` // nil on a draw
	AttackerLosses   []ShipLoss `json:"attacker_losses"`
	DefenderLosses   []ShipLoss `json:"defender_losses"`
	Description      string     `json:"description"`
}

// Resolver turns an attacker/defender pair into a battle result.
// Implementations must be deterministic for a given star and turn.
type Resolver interface {
	ResolveBattle(attacker, defender *ships.Fleet, attackerDesigns, defenderDesigns []ships.Design, starID, turn uint32) *BattleResult
}

// RoundResolver is the default Resolver: up to ten rounds of mutual
// fire with bounded damage variance, then the side with hit points
// left (or more of them) wins.
type RoundResolver struct {
	seed uint64
}

// NewRoundResolver creates a resolver whose variance stream is derived
// from the given seed plus the battle's star and turn.
func NewRoundResolver(seed uint64) *RoundResolver {
	return &RoundResolver{seed: seed}
}

func (r *RoundResolver) rng(starID, turn uint32) *rand.Rand {
	return rand.New(rand.NewPCG(r.seed^(uint64(starID)<<32), uint64(turn)))
}

type sideStats struct {
	empireID     uint32
	ships        map[uint32]uint32
	totalHP      uint32
	totalAttack  uint32
	totalDefense uint32
}

func newSideStats(fleet *ships.Fleet, designs []ships.Design) *sideStats {
	s := &sideStats{
		empireID: fleet.EmpireID,
		ships:    make(map[uint32]uint32),
	}
	for designID, count := range fleet.Ships {
		d, ok := findDesign(designs, designID)
		if !ok {
			continue
		}
		s.totalHP += d.TotalHP * count
		s.totalAttack += d.AttackPower * count
		s.totalDefense += d.Defense * count
		s.ships[designID] = count
	}
	return s
}

func findDesign(designs []ships.Design, id uint32) (*ships.Design, bool) {
	for i := range designs {
		if designs[i].ID == id {
			return &designs[i], true
		}
	}
	return nil, false
}

// ResolveBattle fights the two fleets to a result without mutating them.
func (r *RoundResolver) ResolveBattle(attacker, defender *ships.Fleet, attackerDesigns, defenderDesigns []ships.Design, starID, turn uint32) *BattleResult {
	rng := r.rng(starID, turn)

	att := newSideStats(attacker, attackerDesigns)
	def := newSideStats(defender, defenderDesigns)

	var log []string
	log = append(log, fmt.Sprintf("Battle at Star %d - %d ships vs %d ships",
		starID, countShips(att.ships), countShips(def.ships)))

	for round := 1; round <= maxRounds; round++ {
		if att.totalHP == 0 || def.totalHP == 0 {
			break
		}

		attackerDamage := rollDamage(att, def, rng)
		defenderDamage := rollDamage(def, att, rng)

		applyDamage(def, attackerDamage, defenderDesigns)
		applyDamage(att, defenderDamage, attackerDesigns)

		log = append(log, fmt.Sprintf("Round %d: Attacker deals %d damage, Defender deals %d damage",
			round, attackerDamage, defenderDamage))
	}

	var winner *uint32
	switch {
	case att.totalHP > 0 && def.totalHP == 0:
		winner = &att.empireID
	case def.totalHP > 0 && att.totalHP == 0:
		winner = &def.empireID
	case att.totalHP > def.totalHP:
		winner = &att.empireID
	case def.totalHP > att.totalHP:
		winner = &def.empireID
	}

	switch {
	case winner != nil && *winner == att.empireID:
		log = append(log, "Attacker victorious!")
	case winner != nil:
		log = append(log, "Defender victorious!")
	default:
		log = append(log, "Battle ends in stalemate.")
	}

	return &BattleResult{
		AttackerEmpireID: attacker.EmpireID,
		DefenderEmpireID: defender.EmpireID,
		LocationStarID:   starID,
		TurnNumber:       turn,
		Winner:           winner,
		AttackerLosses:   tallyLosses(attacker, att),
		DefenderLosses:   tallyLosses(defender, def),
		Description:      strings.Join(log, "\n"),
	}
}

func countShips(fleet map[uint32]uint32) uint32 {
	var n uint32
	for _, c := range fleet {
		n += c
	}
	return n
}

// rollDamage computes one side's damage for a round. Defense absorbs
// half its value, capped at 75% of the incoming attack, and the result
// varies between 80% and 120%.
func rollDamage(from, to *sideStats, rng *rand.Rand) uint32 {
	if from.totalAttack == 0 {
		return 0
	}

	base := float64(from.totalAttack)
	reduction := math.Min(float64(to.totalDefense)/2.0, base*0.75)
	effective := math.Max(base-reduction, 1.0)

	variance := float64(80+rng.IntN(41)) / 100.0
	damage := uint32(effective * variance)
	if damage < 1 {
		damage = 1
	}
	return damage
}

// applyDamage removes hit points and destroys ships proportionally,
// with small hulls dying a little faster than big ones.
func applyDamage(s *sideStats, damage uint32, designs []ships.Design) {
	if damage >= s.totalHP {
		s.totalHP = 0
		s.ships = make(map[uint32]uint32)
		return
	}

	s.totalHP -= damage
	ratio := float64(damage) / float64(maxU32(s.totalHP, 1))

	for designID, count := range s.ships {
		if count == 0 {
			continue
		}
		d, ok := findDesign(designs, designID)
		if !ok {
			continue
		}

		vulnerability := 1.0 + 1.0/float64(d.TotalHP)
		losses := uint32(math.Ceil(float64(count) * ratio * vulnerability))
		if losses > count {
			losses = count
		}

		s.ships[designID] = count - losses
		s.totalAttack -= minU32(s.totalAttack, d.AttackPower*losses)
		s.totalDefense -= minU32(s.totalDefense, d.Defense*losses)
	}

	for designID, count := range s.ships {
		if count == 0 {
			delete(s.ships, designID)
		}
	}
}

func tallyLosses(original *ships.Fleet, final *sideStats) []ShipLoss {
	var losses []ShipLoss
	for designID, before := range original.Ships {
		after := final.ships[designID]
		if before > after {
			losses = append(losses, ShipLoss{DesignID: designID, Count: before - after})
		}
	}
	sort.Slice(losses, func(i, j int) bool { return losses[i].DesignID < losses[j].DesignID })
	return losses
}

// Bombard simulates orbital bombardment of a colony and returns the
// population killed with a narrative description. Only ships with
// attack capability contribute, and a planetary shield blocks three
// quarters of the incoming power.
func Bombard(attacker *ships.Fleet, designs []ships.Design, colonyPopulation uint32, hasPlanetaryShield bool, rng *rand.Rand) (uint32, string) {
	var power uint32
	for designID, count := range attacker.Ships {
		d, ok := findDesign(designs, designID)
		if !ok || d.AttackPower == 0 {
			continue
		}
		power += (d.AttackPower / 2) * count
	}

	if power == 0 {
		return 0, "No bombardment capability in fleet."
	}

	if hasPlanetaryShield {
		power /= 4
	}

	variance := uint32(50 + rng.IntN(101))
	casualties := (power * variance) / 100
	if casualties > colonyPopulation {
		casualties = colonyPopulation
	}

	if hasPlanetaryShield {
		return casualties, fmt.Sprintf(
			"Orbital bombardment partially blocked by planetary shield. %d population killed.", casualties)
	}
	return casualties, fmt.Sprintf(
		"Orbital bombardment devastates the colony. %d population killed.", casualties)
}

func maxU32(a, b uint32) uint32 {
	if a > b {
		return a
	}
	return b
}

func minU32(a, b uint32) uint32 {
	if a < b {
		return a
	}
	return b
}
