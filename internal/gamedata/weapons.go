package gamedata

// Weapon describes one entry in the weapon catalog. Hidden weapons exist in
// the data but are never legal in a client loadout.
type Weapon struct {
	ID     string
	Hidden bool
}

var weapons = []Weapon{
	{ID: "m4a1"}, {ID: "ak47"}, {ID: "mp5"}, {ID: "p90"}, {ID: "scarh"},
	{ID: "ump45"}, {ID: "m249"}, {ID: "rpd"}, {ID: "m40a3"}, {ID: "barrett"},
	{ID: "spas12"}, {ID: "m1014"}, {ID: "usp45"}, {ID: "deagle"}, {ID: "m9"},
	{ID: "rpg7"}, {ID: "at4"}, {ID: "frag"}, {ID: "semtex"}, {ID: "flashbang"},
	{ID: "claymore"}, {ID: "c4"},
	{ID: "minigun", Hidden: true}, {ID: "railgun", Hidden: true},
}

// IsValidWeaponID reports whether a loadout may reference the weapon.
func IsValidWeaponID(id string) bool {
	for _, w := range weapons {
		if w.ID == id {
			return !w.Hidden
		}
	}
	return false
}

// Killstreak category slot limits, checked on the client-state handshake.
const (
	MaxAssaultKillstreaks    = 3
	MaxSupportKillstreaks    = 3
	MaxSpecialistKillstreaks = 5
)
