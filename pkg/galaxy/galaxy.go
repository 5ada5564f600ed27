// Package galaxy implements seeded star map generation, ownership
// tracking, and jump-lane pathfinding.
package galaxy

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Settings controls the size of a generated galaxy.
type Settings struct {
	StarCount int   `json:"starCount"`
	MapWidth  int32 `json:"mapWidth"`
	MapHeight int32 `json:"mapHeight"`
}

// SettingsFor maps a galaxy size name to its generation settings.
func SettingsFor(size string) (Settings, error) {
	switch size {
	case "small":
		return Settings{StarCount: 20, MapWidth: 100, MapHeight: 100}, nil
	case "medium":
		return Settings{StarCount: 35, MapWidth: 150, MapHeight: 150}, nil
	case "large":
		return Settings{StarCount: 50, MapWidth: 200, MapHeight: 200}, nil
	default:
		return Settings{}, fmt.Errorf("unknown galaxy size %q", size)
	}
}

// Star is one system in the galaxy. Owner is NoOwner until colonized.
type Star struct {
	ID     uint32 `json:"id"`
	Name   string `json:"name"`
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	Planet Planet `json:"planet"`
	Owner  uint32 `json:"owner"`
	Owned  bool   `json:"owned"`
}

// Galaxy is the full star map. Links holds the jump-lane adjacency built
// at generation time; fleets travel along lanes, not straight lines.
type Galaxy struct {
	Stars  []Star              `json:"stars"`
	Width  int32               `json:"width"`
	Height int32               `json:"height"`
	Seed   uint64              `json:"seed"`
	Links  map[uint32][]uint32 `json:"links"`
}

// Generate builds a galaxy deterministically from settings and seed.
// Jump lanes connect every pair of stars within jumpRange of each other.
func Generate(settings Settings, seed uint64, jumpRange float64) *Galaxy {
	rng := rand.New(rand.NewPCG(seed, seed))

	names := make([]string, len(starNames))
	copy(names, starNames)
	rng.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})

	minSpacing := settings.MapWidth / 10
	if minSpacing < 10 {
		minSpacing = 10
	}

	stars := make([]Star, 0, settings.StarCount)
	for i := 0; i < settings.StarCount; i++ {
		name := fmt.Sprintf("Star-%d", i+1)
		if i < len(names) {
			name = names[i]
		}

		var x, y int32
		for {
			x = 5 + int32(rng.IntN(int(settings.MapWidth-10)))
			y = 5 + int32(rng.IntN(int(settings.MapHeight-10)))

			tooClose := false
			for _, s := range stars {
				dx := abs32(s.X - x)
				dy := abs32(s.Y - y)
				if dx < minSpacing && dy < minSpacing {
					tooClose = true
					break
				}
			}
			if !tooClose || len(stars) < 2 {
				break
			}
		}

		stars = append(stars, Star{
			ID:     uint32(i),
			Name:   name,
			X:      x,
			Y:      y,
			Planet: generatePlanet(rng),
		})
	}

	g := &Galaxy{
		Stars:  stars,
		Width:  settings.MapWidth,
		Height: settings.MapHeight,
		Seed:   seed,
	}
	g.buildLinks(jumpRange)
	return g
}

// generatePlanet rolls a random planet with type-weighted distribution,
// size/production variance of 80-120%, and a 20% chance of a special.
func generatePlanet(rng *rand.Rand) Planet {
	var planetType PlanetType
	switch roll := rng.IntN(100); {
	case roll <= 15:
		planetType = Terran
	case roll <= 30:
		planetType = Ocean
	case roll <= 50:
		planetType = Arid
	case roll <= 65:
		planetType = Tundra
	case roll <= 80:
		planetType = Barren
	case roll <= 90:
		planetType = Toxic
	default:
		planetType = GasGiant
	}

	sizeMod := uint32(80 + rng.IntN(41))
	maxPopulation := (planetType.BaseMaxPop() * sizeMod) / 100

	prodMod := uint32(80 + rng.IntN(41))
	baseProduction := (planetType.BaseProduction() * prodMod) / 100

	var special PlanetSpecial
	if rng.IntN(100) < 20 {
		switch rng.IntN(6) {
		case 0:
			special = MineralRich
		case 1:
			special = MineralPoor
		case 2:
			special = UltraRich
		case 3:
			special = Artifacts
		case 4:
			special = HostileNatives
		default:
			special = Fertile
		}
	}

	return Planet{
		Type:           planetType,
		MaxPopulation:  maxPopulation,
		BaseProduction: baseProduction,
		Special:        special,
	}
}

// buildLinks connects every pair of stars within jumpRange.
func (g *Galaxy) buildLinks(jumpRange float64) {
	g.Links = make(map[uint32][]uint32, len(g.Stars))
	for i := range g.Stars {
		for j := i + 1; j < len(g.Stars); j++ {
			a, b := &g.Stars[i], &g.Stars[j]
			if euclid(a, b) <= jumpRange {
				g.Links[a.ID] = append(g.Links[a.ID], b.ID)
				g.Links[b.ID] = append(g.Links[b.ID], a.ID)
			}
		}
	}
}

// Star returns a pointer to the star with the given id.
func (g *Galaxy) Star(id uint32) (*Star, bool) {
	for i := range g.Stars {
		if g.Stars[i].ID == id {
			return &g.Stars[i], true
		}
	}
	return nil, false
}

// EmpireStars returns every star owned by the given empire.
func (g *Galaxy) EmpireStars(empireID uint32) []*Star {
	var out []*Star
	for i := range g.Stars {
		if g.Stars[i].Owned && g.Stars[i].Owner == empireID {
			out = append(out, &g.Stars[i])
		}
	}
	return out
}

// Distance returns the straight-line distance between two stars.
func (g *Galaxy) Distance(id1, id2 uint32) (float64, bool) {
	s1, ok1 := g.Star(id1)
	s2, ok2 := g.Star(id2)
	if !ok1 || !ok2 {
		return 0, false
	}
	return euclid(s1, s2), true
}

// StarsInRange returns stars other than the origin within the given range.
func (g *Galaxy) StarsInRange(starID uint32, r float64) []*Star {
	origin, ok := g.Star(starID)
	if !ok {
		return nil
	}

	var out []*Star
	for i := range g.Stars {
		s := &g.Stars[i]
		if s.ID == starID {
			continue
		}
		if euclid(origin, s) <= r {
			out = append(out, s)
		}
	}
	return out
}

// NearestUncolonized finds the closest unowned, colonizable star to a
// position. Gas giants are skipped.
func (g *Galaxy) NearestUncolonized(x, y int32) (*Star, bool) {
	var best *Star
	bestDist := int64(math.MaxInt64)
	for i := range g.Stars {
		s := &g.Stars[i]
		if s.Owned || s.Planet.Type == GasGiant {
			continue
		}
		dx := int64(s.X - x)
		dy := int64(s.Y - y)
		d := dx*dx + dy*dy
		if d < bestDist {
			bestDist = d
			best = s
		}
	}
	return best, best != nil
}

// PathDistance returns the shortest jump-lane distance between two stars,
// or false when no lane route exists.
func (g *Galaxy) PathDistance(from, to uint32) (float64, bool) {
	dist, _, ok := g.shortestPath(from, to)
	return dist, ok
}

// FindPath returns the star ids along the shortest jump-lane route,
// including both endpoints.
func (g *Galaxy) FindPath(from, to uint32) ([]uint32, bool) {
	_, path, ok := g.shortestPath(from, to)
	return path, ok
}

// shortestPath runs Dijkstra over the jump lanes. Star counts are small
// enough that the quadratic scan is fine.
func (g *Galaxy) shortestPath(from, to uint32) (float64, []uint32, bool) {
	if _, ok := g.Star(from); !ok {
		return 0, nil, false
	}
	if _, ok := g.Star(to); !ok {
		return 0, nil, false
	}
	if from == to {
		return 0, []uint32{from}, true
	}

	dist := map[uint32]float64{from: 0}
	prev := map[uint32]uint32{}
	visited := map[uint32]bool{}

	for {
		// Pick the unvisited node with the smallest tentative distance.
		var current uint32
		currentDist := math.Inf(1)
		found := false
		for id, d := range dist {
			if !visited[id] && d < currentDist {
				current, currentDist, found = id, d, true
			}
		}
		if !found {
			return 0, nil, false
		}
		if current == to {
			break
		}
		visited[current] = true

		cs, _ := g.Star(current)
		for _, neighborID := range g.Links[current] {
			if visited[neighborID] {
				continue
			}
			ns, _ := g.Star(neighborID)
			alt := currentDist + euclid(cs, ns)
			if existing, ok := dist[neighborID]; !ok || alt < existing {
				dist[neighborID] = alt
				prev[neighborID] = current
			}
		}
	}

	path := []uint32{to}
	for at := to; at != from; {
		at = prev[at]
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return dist[to], path, true
}

// Clone returns a deep copy of the galaxy, used for AI snapshots.
func (g *Galaxy) Clone() *Galaxy {
	stars := make([]Star, len(g.Stars))
	copy(stars, g.Stars)

	links := make(map[uint32][]uint32, len(g.Links))
	for id, neighbors := range g.Links {
		links[id] = append([]uint32(nil), neighbors...)
	}

	return &Galaxy{
		Stars:  stars,
		Width:  g.Width,
		Height: g.Height,
		Seed:   g.Seed,
		Links:  links,
	}
}

func euclid(a, b *Star) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
