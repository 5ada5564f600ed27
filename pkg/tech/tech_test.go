package tech

import (
	"testing"
)

func TestNewTree_AllFieldsHaveSixLevels(t *testing.T) {
	tree := NewTree()

	if len(tree.Technologies) != 6*MaxLevel {
		t.Fatalf("expected %d technologies, got %d", 6*MaxLevel, len(tree.Technologies))
	}

	for _, field := range AllFields() {
		techs := tree.FieldTechs(field)
		if len(techs) != MaxLevel {
			t.Errorf("field %s should have %d techs, got %d", field, MaxLevel, len(techs))
		}
		for level := uint32(1); level <= MaxLevel; level++ {
			found := false
			for _, tech := range techs {
				if tech.Level == level {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("field %s missing level %d", field, level)
			}
		}
	}
}

func TestTreeCosts(t *testing.T) {
	tests := []struct {
		field Field
		level uint32
		want  uint32
	}{
		{Propulsion, 1, 100},
		{Propulsion, 6, 600},
		{Weapons, 2, 300},
		{Shields, 3, 360},
		{Planetology, 4, 320},
		{Construction, 5, 500},
		{Computers, 6, 660},
	}

	tree := NewTree()
	for _, tt := range tests {
		tech, ok := tree.NextInField(tt.field, tt.level-1)
		if !ok {
			t.Fatalf("NextInField(%s, %d) not found", tt.field, tt.level-1)
		}
		if tech.Cost != tt.want {
			t.Errorf("%s level %d cost = %d, want %d", tt.field, tt.level, tech.Cost, tt.want)
		}

		cost, err := CostOf(tt.field, tt.level)
		if err != nil {
			t.Fatalf("CostOf(%s, %d) error: %v", tt.field, tt.level, err)
		}
		if cost != tt.want {
			t.Errorf("CostOf(%s, %d) = %d, want %d", tt.field, tt.level, cost, tt.want)
		}
	}
}

func TestCostOfErrors(t *testing.T) {
	if _, err := CostOf("Alchemy", 1); err == nil {
		t.Error("expected error for unknown field")
	}
	if _, err := CostOf(Weapons, 0); err == nil {
		t.Error("expected error for level 0")
	}
	if _, err := CostOf(Weapons, MaxLevel+1); err == nil {
		t.Error("expected error for level past max")
	}
}

func TestNextInField_MaxedFieldHasNoNext(t *testing.T) {
	tree := NewTree()
	if _, ok := tree.NextInField(Weapons, MaxLevel); ok {
		t.Error("maxed field should have no next tech")
	}
}

func TestProgressAddResearch(t *testing.T) {
	tree := NewTree()

	t.Run("accumulates points without breakthrough", func(t *testing.T) {
		p := NewProgress()
		p.Allocation = map[Field]uint32{Weapons: 100}

		breakthroughs := p.AddResearch(100, tree)
		if len(breakthroughs) != 0 {
			t.Errorf("expected no breakthroughs, got %d", len(breakthroughs))
		}
		if p.PointsIn(Weapons) != 100 {
			t.Errorf("expected 100 banked points, got %d", p.PointsIn(Weapons))
		}
	})

	t.Run("breakthrough consumes cost and carries remainder", func(t *testing.T) {
		p := NewProgress()
		p.Allocation = map[Field]uint32{Weapons: 100}

		// Weapons level 1 costs 150.
		breakthroughs := p.AddResearch(170, tree)
		if len(breakthroughs) != 1 {
			t.Fatalf("expected 1 breakthrough, got %d", len(breakthroughs))
		}
		if breakthroughs[0].Name != "Laser Cannon" {
			t.Errorf("expected Laser Cannon, got %s", breakthroughs[0].Name)
		}
		if p.Level(Weapons) != 1 {
			t.Errorf("expected Weapons level 1, got %d", p.Level(Weapons))
		}
		if p.PointsIn(Weapons) != 20 {
			t.Errorf("expected 20 carried points, got %d", p.PointsIn(Weapons))
		}
	})

	t.Run("allocation splits points across fields", func(t *testing.T) {
		p := NewProgress()
		p.Allocation = map[Field]uint32{Propulsion: 50, Shields: 50}

		p.AddResearch(100, tree)
		if p.PointsIn(Propulsion) != 50 {
			t.Errorf("expected 50 propulsion points, got %d", p.PointsIn(Propulsion))
		}
		if p.PointsIn(Shields) != 50 {
			t.Errorf("expected 50 shield points, got %d", p.PointsIn(Shields))
		}
		if p.PointsIn(Weapons) != 0 {
			t.Errorf("expected 0 weapons points, got %d", p.PointsIn(Weapons))
		}
	})

	t.Run("no progress past max level", func(t *testing.T) {
		p := NewProgress()
		p.Allocation = map[Field]uint32{Weapons: 100}
		p.Levels[Weapons] = MaxLevel

		breakthroughs := p.AddResearch(10000, tree)
		if len(breakthroughs) != 0 {
			t.Errorf("expected no breakthroughs past max level, got %d", len(breakthroughs))
		}
		if p.Level(Weapons) != MaxLevel {
			t.Errorf("level should stay at max, got %d", p.Level(Weapons))
		}
	})
}

func TestAllFieldsMaxed(t *testing.T) {
	p := NewProgress()
	if p.AllFieldsMaxed() {
		t.Error("fresh progress should not be maxed")
	}

	for _, field := range AllFields() {
		p.Levels[field] = MaxLevel
	}
	if !p.AllFieldsMaxed() {
		t.Error("progress with all fields at max should report maxed")
	}

	p.Levels[Computers] = MaxLevel - 1
	if p.AllFieldsMaxed() {
		t.Error("one field below max should not report maxed")
	}
}

func TestDefaultAllocation(t *testing.T) {
	p := NewProgress()

	total := uint32(0)
	for _, field := range AllFields() {
		total += p.AllocationFor(field)
	}
	if total > 100 {
		t.Errorf("default allocation sums to %d, should not exceed 100", total)
	}
	if p.AllocationFor(Propulsion) != 20 {
		t.Errorf("default propulsion allocation = %d, want 20", p.AllocationFor(Propulsion))
	}
}
