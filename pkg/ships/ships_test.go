package ships

import (
	"testing"
)

func TestHullTables(t *testing.T) {
	if Scout.Space() >= Destroyer.Space() {
		t.Error("scout should have less space than destroyer")
	}
	if Destroyer.Space() >= Cruiser.Space() {
		t.Error("destroyer should have less space than cruiser")
	}
	if Dreadnought.Cost() <= Scout.Cost() {
		t.Error("dreadnought should cost more than scout")
	}
	if Scout.BaseSpeed() <= Dreadnought.BaseSpeed() {
		t.Error("scout should be faster than dreadnought")
	}
	if Cruiser.RequiredTechLevel() != 3 {
		t.Errorf("cruiser tech level = %d, want 3", Cruiser.RequiredTechLevel())
	}
}

func TestComponentCatalog(t *testing.T) {
	t.Run("lookup by name", func(t *testing.T) {
		c, ok := ComponentByName("Nuclear Drive")
		if !ok {
			t.Fatal("Nuclear Drive should exist")
		}
		if c.Type != Engine {
			t.Errorf("Nuclear Drive type = %s, want Engine", c.Type)
		}

		if _, ok := ComponentByName("Improbability Drive"); ok {
			t.Error("unknown component should not be found")
		}
	})

	t.Run("tech gating", func(t *testing.T) {
		atZero := ComponentsAtLevel(0)
		atFive := ComponentsAtLevel(5)
		if len(atZero) >= len(atFive) {
			t.Errorf("level 0 catalog (%d) should be smaller than level 5 (%d)", len(atZero), len(atFive))
		}
		for _, c := range atZero {
			if c.TechLevel > 0 {
				t.Errorf("component %s requires level %d, should be gated", c.Name, c.TechLevel)
			}
		}
	})
}

func TestNewDesign(t *testing.T) {
	t.Run("valid design", func(t *testing.T) {
		d, err := NewDesign(0, "Test Ship", Destroyer, []string{"Nuclear Drive", "Laser Cannon"})
		if err != nil {
			t.Fatalf("NewDesign() failed: %v", err)
		}
		if d.Name != "Test Ship" {
			t.Errorf("name = %s, want Test Ship", d.Name)
		}
		if d.Cost != Destroyer.Cost()+10+5 {
			t.Errorf("cost = %d, want %d", d.Cost, Destroyer.Cost()+10+5)
		}
		if d.AttackPower != 5 {
			t.Errorf("attack = %d, want 5", d.AttackPower)
		}
		if d.TotalHP != Destroyer.BaseHP() {
			t.Errorf("hp = %d, want %d", d.TotalHP, Destroyer.BaseHP())
		}
	})

	t.Run("over capacity", func(t *testing.T) {
		// Hyperdrive (10) + Plasma Torpedo (12) exceed a scout's 10 space.
		if _, err := NewDesign(0, "Overloaded", Scout, []string{"Hyperdrive", "Plasma Torpedo"}); err == nil {
			t.Error("expected error for design exceeding hull space")
		}
	})

	t.Run("unknown component", func(t *testing.T) {
		if _, err := NewDesign(0, "Broken", Scout, []string{"Phlebotinum Core"}); err == nil {
			t.Error("expected error for unknown component")
		}
	})

	t.Run("unknown hull", func(t *testing.T) {
		if _, err := NewDesign(0, "Strange", HullSize("Moon"), nil); err == nil {
			t.Error("expected error for unknown hull")
		}
	})

	t.Run("colony module flags design", func(t *testing.T) {
		d, err := NewDesign(1, "Colony Ship", Destroyer, []string{"Nuclear Drive", "Colony Module"})
		if err != nil {
			t.Fatal(err)
		}
		if !d.IsColonyShip {
			t.Error("design with colony module should be a colony ship")
		}
	})

	t.Run("speed never below 1", func(t *testing.T) {
		d, err := NewDesign(2, "Slow Boat", Dreadnought, nil)
		if err != nil {
			t.Fatal(err)
		}
		if d.Speed < 1 {
			t.Errorf("speed = %d, must be at least 1", d.Speed)
		}
	})
}

func TestDefaultDesigns(t *testing.T) {
	designs := DefaultDesigns()
	if len(designs) != 3 {
		t.Fatalf("expected 3 default designs, got %d", len(designs))
	}

	names := map[string]bool{}
	colonyCapable := false
	for _, d := range designs {
		names[d.Name] = true
		if d.IsColonyShip {
			colonyCapable = true
		}
	}
	for _, want := range []string{"Scout", "Colony Ship", "Fighter"} {
		if !names[want] {
			t.Errorf("missing default design %q", want)
		}
	}
	if !colonyCapable {
		t.Error("default designs must include a colony-capable ship")
	}
}

func TestFleetShipManagement(t *testing.T) {
	fleet := NewFleet(0, 0, "1st Fleet", 0)
	fleet.AddShips(0, 5)
	if fleet.TotalShips() != 5 {
		t.Errorf("total = %d, want 5", fleet.TotalShips())
	}

	fleet.AddShips(0, 3)
	if fleet.TotalShips() != 8 {
		t.Errorf("total = %d, want 8", fleet.TotalShips())
	}

	if !fleet.RemoveShips(0, 3) {
		t.Error("removing owned ships should succeed")
	}
	if fleet.TotalShips() != 5 {
		t.Errorf("total = %d, want 5", fleet.TotalShips())
	}

	if fleet.RemoveShips(0, 10) {
		t.Error("removing more ships than present should fail")
	}

	if !fleet.RemoveShips(0, 5) {
		t.Error("removing exact count should succeed")
	}
	if _, ok := fleet.Ships[0]; ok {
		t.Error("empty design entries should be deleted")
	}
}

func TestFleetMovement(t *testing.T) {
	fleet := NewFleet(0, 0, "1st Fleet", 0)
	if fleet.IsInTransit() {
		t.Error("new fleet should not be in transit")
	}

	fleet.SetDestination(5, 3)
	if !fleet.IsInTransit() {
		t.Error("fleet with destination should be in transit")
	}

	if arrived := fleet.AdvanceTurn(); arrived {
		t.Error("fleet should not arrive after 1 of 3 turns")
	}
	if fleet.ETATurns != 2 {
		t.Errorf("eta = %d, want 2", fleet.ETATurns)
	}

	fleet.AdvanceTurn()
	if arrived := fleet.AdvanceTurn(); !arrived {
		t.Error("fleet should arrive on final turn")
	}
	if fleet.IsInTransit() {
		t.Error("arrived fleet should not be in transit")
	}
	if fleet.LocationStarID != 5 {
		t.Errorf("location = %d, want 5", fleet.LocationStarID)
	}

	if fleet.AdvanceTurn() {
		t.Error("stationary fleet should not report arrival")
	}
}

func TestFleetCombatPowerAndSpeed(t *testing.T) {
	designs := DefaultDesigns()

	fleet := NewFleet(0, 0, "Strike Group", 0)
	fleet.AddShips(2, 2) // Fighters: attack 10, defense 0 each

	var fighter Design
	for _, d := range designs {
		if d.ID == 2 {
			fighter = d
		}
	}
	wantPower := (fighter.AttackPower + fighter.Defense) * 2
	if got := fleet.CombatPower(designs); got != wantPower {
		t.Errorf("combat power = %d, want %d", got, wantPower)
	}

	t.Run("slowest ship sets fleet speed", func(t *testing.T) {
		mixed := NewFleet(1, 0, "Convoy", 0)
		mixed.AddShips(0, 1) // Scout, fastest
		mixed.AddShips(1, 1) // Colony ship on destroyer hull, slower
		speed := mixed.Speed(designs)

		var slowest uint32 = 999
		for _, d := range designs {
			if _, ok := mixed.Ships[d.ID]; ok && d.Speed < slowest {
				slowest = d.Speed
			}
		}
		if speed != slowest {
			t.Errorf("fleet speed = %d, want slowest %d", speed, slowest)
		}
	})

	t.Run("empty fleet has speed 1", func(t *testing.T) {
		empty := NewFleet(2, 0, "Ghost", 0)
		if empty.Speed(designs) != 1 {
			t.Errorf("empty fleet speed = %d, want 1", empty.Speed(designs))
		}
	})
}

func TestFleetColonyShips(t *testing.T) {
	designs := DefaultDesigns()

	fleet := NewFleet(0, 0, "Settlers", 0)
	fleet.AddShips(0, 2) // scouts only
	if _, _, ok := fleet.ColonyShips(designs); ok {
		t.Error("fleet without colony ships should report none")
	}

	fleet.AddShips(1, 1) // colony ship
	designID, count, ok := fleet.ColonyShips(designs)
	if !ok {
		t.Fatal("fleet with a colony ship should report it")
	}
	if designID != 1 || count != 1 {
		t.Errorf("colony ships = design %d x%d, want design 1 x1", designID, count)
	}
}

func TestFleetClone(t *testing.T) {
	fleet := NewFleet(0, 3, "Original", 4)
	fleet.AddShips(0, 5)

	clone := fleet.Clone()
	clone.AddShips(0, 5)
	clone.Name = "Copy"

	if fleet.TotalShips() != 5 {
		t.Error("mutating clone should not affect original ships")
	}
	if fleet.Name != "Original" {
		t.Error("mutating clone should not affect original name")
	}
}
