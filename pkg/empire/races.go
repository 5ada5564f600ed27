package empire

// Race describes a playable species. Bonus values are percentages
// applied to the matching per-turn output (20 means +20%).
type Race struct {
	Key             string `json:"key"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	Color           string `json:"color"`
	ResearchBonus   int32  `json:"research_bonus"`
	ProductionBonus int32  `json:"production_bonus"`
	GrowthBonus     int32  `json:"growth_bonus"`
	CombatBonus     int32  `json:"combat_bonus"`
	DiplomacyBonus  int32  `json:"diplomacy_bonus"`
}

var races = []Race{
	{
		Key:            "terran",
		Name:           "Terran Federation",
		Description:    "Balanced humans with diplomatic prowess",
		Color:          "LightCyan",
		DiplomacyBonus: 25,
	},
	{
		Key:             "silicoid",
		Name:            "Silicoid Collective",
		Description:     "Silicon-based life, can colonize any planet",
		Color:           "Brown",
		ResearchBonus:   -25,
		ProductionBonus: 25,
		GrowthBonus:     -50,
		DiplomacyBonus:  -25,
	},
	{
		Key:            "psilon",
		Name:           "Psilon Technocracy",
		Description:    "Brilliant researchers, weak in combat",
		Color:          "LightMagenta",
		ResearchBonus:  50,
		CombatBonus:    -25,
		DiplomacyBonus: 0,
	},
	{
		Key:             "klackon",
		Name:            "Klackon Hive",
		Description:     "Industrious insects with production bonus",
		Color:           "LightGreen",
		ProductionBonus: 50,
		DiplomacyBonus:  -50,
	},
	{
		Key:            "mrrshan",
		Name:           "Mrrshan Pride",
		Description:    "Feline warriors with combat expertise",
		Color:          "Yellow",
		CombatBonus:    50,
		DiplomacyBonus: -25,
	},
	{
		Key:            "sakkra",
		Name:           "Sakkra Brood",
		Description:    "Reptilians with rapid population growth",
		Color:          "Green",
		GrowthBonus:    100,
		DiplomacyBonus: -25,
	},
}

// AllRaces returns the playable race catalog.
func AllRaces() []Race {
	out := make([]Race, len(races))
	copy(out, races)
	return out
}

// RaceByKey looks up a race by its key.
func RaceByKey(key string) (Race, bool) {
	for _, r := range races {
		if r.Key == key {
			return r, true
		}
	}
	return Race{}, false
}
