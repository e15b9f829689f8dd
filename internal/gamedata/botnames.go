package gamedata

// BotNames is the pool of display names given to synthesized players.
var BotNames = []string{
	"Viper", "Havoc", "Bulldog", "Reaper", "Ghost", "Sandman", "Ox",
	"Phantom", "Rook", "Mustang", "Wardog", "Cobra", "Frost", "Anvil",
	"Talon", "Hornet", "Badger", "Ronin", "Kodiak", "Spectre", "Grizzly",
	"Nomad", "Jackal", "Maverick", "Drifter", "Saber", "Vandal", "Titan",
	"Wolf", "Raven", "Falcon", "Lynx",
}
