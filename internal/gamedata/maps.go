package gamedata

// Map ids.
const (
	MapRiverside        = "map_riverside"
	MapDownturn         = "map_downturn"
	MapOutpost          = "map_outpost"
	MapEstate           = "map_estate"
	MapDistrict         = "map_district"
	MapSandstorm        = "map_sandstorm"
	MapOvergrown        = "map_overgrown"
	MapWarehouse        = "map_warehouse"
	MapFactory          = "map_factory"
	MapAirport          = "map_airport"
	MapDownturnExtended = "map_downturn_extended"
	MapBattleship       = "map_battleship"
	MapRandom           = "map_random"
)

// StandardMapPool is the default candidate set for most modes.
func StandardMapPool() []string {
	return []string{
		MapRiverside, MapDistrict, MapWarehouse, MapOutpost, MapEstate,
		MapFactory, MapDownturn, MapSandstorm, MapOvergrown, MapAirport,
	}
}

// BattlezoneMapPool is the large-map set used by the battle-royale mode.
func BattlezoneMapPool() []string {
	return []string{
		MapDownturn, MapSandstorm, MapOvergrown, MapAirport, MapDownturnExtended,
	}
}
