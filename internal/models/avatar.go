package models

// Avatar is a cosmetic loadout: slot name -> item id.
type Avatar map[string]string

// Clone returns a copy of the avatar map.
func (a Avatar) Clone() Avatar {
	if a == nil {
		return nil
	}
	cp := make(Avatar, len(a))
	for k, v := range a {
		cp[k] = v
	}
	return cp
}

// AvatarSet holds one avatar per faction plus the player's preferred faction.
type AvatarSet struct {
	Preferred string            `json:"preferred"`
	ByFaction map[string]Avatar `json:"byFaction"`
}

// For resolves the avatar for a faction, falling back to the preferred
// faction when the requested one is missing.
func (s AvatarSet) For(faction string) Avatar {
	if av, ok := s.ByFaction[faction]; ok {
		return av
	}
	return s.ByFaction[s.Preferred]
}

// Clone returns a deep copy of the set.
func (s AvatarSet) Clone() AvatarSet {
	cp := AvatarSet{Preferred: s.Preferred}
	if s.ByFaction != nil {
		cp.ByFaction = make(map[string]Avatar, len(s.ByFaction))
		for k, v := range s.ByFaction {
			cp.ByFaction[k] = v.Clone()
		}
	}
	return cp
}
