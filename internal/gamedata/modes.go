// internal/gamedata/modes.go
//
// Static mode/map/faction reference data. Loaded once, read-only, safe to
// share without synchronization.
package gamedata

// Game mode ids.
const (
	ModeSandbox          = "sandbox"
	ModeBattlezone       = "battlezone"
	ModeDeathmatch       = "deathmatch"
	ModeTeamDeathmatch   = "team_deathmatch"
	ModeDomination       = "domination"
	ModeCaptureTheFlag   = "capture_the_flag"
	ModeDefender         = "defender"
	ModeDemolition       = "demolition"
	ModeHeadquarters     = "headquarters"
	ModeGunGame          = "gun_game"
	ModeInfected         = "infected"
	ModeSurvivalBasic    = "survival_basic"
	ModeSurvivalUndead   = "survival_undead"
	ModeSurvivalChaos    = "survival_chaos"
	ModeSurvivalStakeout = "survival_stakeout"
	ModeSurvivalPro      = "survival_pro"
	ModeOperation        = "mode_operation"
	ModeGroundWar        = "mode_ground_war"
	ModeCombatTraining   = "mode_combat_training"
	ModeHardcore         = "mode_hardcore"
	ModeRotationSurvival = "mode_rotation_survival"
	ModeRotationCommunity = "mode_rotation_community"
)

// PrivatePool is the registry pool holding custom lobbies.
const PrivatePool = "private"

// Mode describes one playable game mode.
type Mode struct {
	ID         string
	Team       bool // two opposing teams
	FFA        bool // every player (or party) on its own slot
	CoOp       bool // single side vs AI
	Infection  bool
	MinPlayers int
	MaxPlayers int
	Ranked     bool
	Survival   bool
}

var modes = map[string]Mode{
	ModeSandbox:          {ID: ModeSandbox, CoOp: true, MinPlayers: 1, MaxPlayers: 8},
	ModeBattlezone:       {ID: ModeBattlezone, FFA: true, MinPlayers: 1, MaxPlayers: 8, Ranked: true},
	ModeDeathmatch:       {ID: ModeDeathmatch, FFA: true, MinPlayers: 2, MaxPlayers: 8, Ranked: true},
	ModeGunGame:          {ID: ModeGunGame, FFA: true, MinPlayers: 2, MaxPlayers: 8, Ranked: true},
	ModeTeamDeathmatch:   {ID: ModeTeamDeathmatch, Team: true, MinPlayers: 2, MaxPlayers: 8, Ranked: true},
	ModeDomination:       {ID: ModeDomination, Team: true, MinPlayers: 2, MaxPlayers: 8, Ranked: true},
	ModeCaptureTheFlag:   {ID: ModeCaptureTheFlag, Team: true, MinPlayers: 2, MaxPlayers: 8, Ranked: true},
	ModeDefender:         {ID: ModeDefender, Team: true, MinPlayers: 2, MaxPlayers: 8, Ranked: true},
	ModeDemolition:       {ID: ModeDemolition, Team: true, MinPlayers: 2, MaxPlayers: 8, Ranked: true},
	ModeHeadquarters:     {ID: ModeHeadquarters, Team: true, MinPlayers: 2, MaxPlayers: 8, Ranked: true},
	ModeInfected:         {ID: ModeInfected, Infection: true, MinPlayers: 2, MaxPlayers: 8, Ranked: true},
	ModeSurvivalBasic:    {ID: ModeSurvivalBasic, CoOp: true, MinPlayers: 2, MaxPlayers: 4, Survival: true},
	ModeSurvivalUndead:   {ID: ModeSurvivalUndead, CoOp: true, MinPlayers: 2, MaxPlayers: 4, Survival: true},
	ModeSurvivalChaos:    {ID: ModeSurvivalChaos, CoOp: true, MinPlayers: 2, MaxPlayers: 4, Survival: true},
	ModeSurvivalStakeout: {ID: ModeSurvivalStakeout, CoOp: true, MinPlayers: 2, MaxPlayers: 4, Survival: true},
	ModeSurvivalPro:      {ID: ModeSurvivalPro, CoOp: true, MinPlayers: 2, MaxPlayers: 4, Survival: true},
	ModeOperation:        {ID: ModeOperation, CoOp: true, MinPlayers: 1, MaxPlayers: 4, Ranked: true},
}

// rotation pool id -> candidate sub-modes drawn each cycle
var rotations = map[string][]string{
	ModeGroundWar:        {ModeTeamDeathmatch, ModeDomination, ModeCaptureTheFlag, ModeHeadquarters},
	ModeCombatTraining:   {ModeTeamDeathmatch, ModeDomination},
	ModeHardcore:         {ModeTeamDeathmatch, ModeDomination, ModeDemolition},
	ModeRotationSurvival: {ModeSurvivalBasic, ModeSurvivalUndead, ModeSurvivalChaos},
	ModeRotationCommunity: {ModeDeathmatch, ModeGunGame, ModeInfected},
}

// ModeByID returns the mode definition, ok=false for unknown ids.
func ModeByID(id string) (Mode, bool) {
	m, ok := modes[id]
	return m, ok
}

// IsTeamMode reports whether the mode plays as two opposing teams.
func IsTeamMode(id string) bool {
	return modes[id].Team
}

// IsRotation reports whether the id names a rotation pool rather than a
// concrete mode.
func IsRotation(id string) bool {
	_, ok := rotations[id]
	return ok
}

// RotationModes returns a copy of the rotation pool's candidate modes.
func RotationModes(id string) []string {
	src := rotations[id]
	if src == nil {
		return nil
	}
	return append([]string(nil), src...)
}

// MaxPlayersFor returns the capacity for a mode or rotation pool id.
func MaxPlayersFor(id string) int {
	if m, ok := modes[id]; ok {
		return m.MaxPlayers
	}
	if sub := rotations[id]; len(sub) > 0 {
		// rotation pools share the capacity of their largest sub-mode
		max := 0
		for _, s := range sub {
			if modes[s].MaxPlayers > max {
				max = modes[s].MaxPlayers
			}
		}
		return max
	}
	return 8
}

// PublicModes lists the concrete modes that get a standing public pool.
func PublicModes() []string {
	return []string{
		ModeBattlezone, ModeDeathmatch, ModeTeamDeathmatch, ModeDomination,
		ModeCaptureTheFlag, ModeDefender, ModeDemolition, ModeHeadquarters,
		ModeGunGame, ModeInfected, ModeSurvivalUndead, ModeSurvivalBasic,
		ModeSurvivalChaos, ModeSurvivalStakeout, ModeSurvivalPro,
	}
}

// RotationPools lists the rotation pool ids seeded at startup.
func RotationPools() []string {
	return []string{
		ModeCombatTraining, ModeGroundWar, ModeRotationCommunity,
		ModeRotationSurvival, ModeHardcore,
	}
}
