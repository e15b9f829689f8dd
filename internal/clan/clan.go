// internal/clan/clan.go
package clan

import (
	"context"
	"errors"
	"strings"
)

// Info is one clan's public record. Rank is 1-based, ordered by score then
// kills, both descending.
type Info struct {
	Name       string `json:"name"`
	Rank       int    `json:"rank"`
	Score      int64  `json:"score"`
	Kills      int64  `json:"kills"`
	NumPlayers int    `json:"numPlayers"`
	Leader     string `json:"leader"`
}

var (
	// ErrUnavailable means no clan backend is configured. Callers degrade
	// gracefully; clan features just report nothing.
	ErrUnavailable = errors.New("clan: directory unavailable")
	// ErrNameTaken is returned by Create when the clan name exists.
	ErrNameTaken = errors.New("clan: name already in use")
	// ErrInvalidName is returned by Create for too-short or blocked names.
	ErrInvalidName = errors.New("clan: invalid name")
	// ErrAlreadyMember means the player already belongs to a clan.
	ErrAlreadyMember = errors.New("clan: already in a clan")
	// ErrNotFound means no clan matched.
	ErrNotFound = errors.New("clan: not found")
)

// Directory is the clan persistence surface. Usernames key membership;
// guests have no username and therefore no clan access.
type Directory interface {
	// Create registers a new clan with the given leader as sole member.
	Create(ctx context.Context, name, leader string) error
	// AddPlayer adds a player to an existing clan. Fails if they already
	// belong to one.
	AddPlayer(ctx context.Context, name, username string) error
	// RemovePlayer removes a player from their clan. When the leader
	// leaves, the clan dissolves.
	RemovePlayer(ctx context.Context, username string) (dissolved bool, clanName string, err error)
	// FindByPlayer resolves a player's clan and whether they lead it,
	// or ErrNotFound.
	FindByPlayer(ctx context.Context, username string) (*Info, bool, error)
	// FindByName fetches a clan's ranked record.
	FindByName(ctx context.Context, name string) (*Info, error)
	// ListRanked returns every clan ordered by (score desc, kills desc).
	ListRanked(ctx context.Context) ([]Info, error)
	// Members returns the usernames of a clan's roster.
	Members(ctx context.Context, name string) ([]string, error)
	// IncrementScore credits score and kill deltas to a clan.
	IncrementScore(ctx context.Context, name string, score, kills int64) error
}

// blockedNames are rejected outright at creation.
var blockedNames = map[string]bool{
	"admin": true, "moderator": true, "staff": true, "official": true,
}

// ValidateName applies the creation rules shared by every backend.
func ValidateName(name string) error {
	if len(name) < 2 || len(name) > 24 {
		return ErrInvalidName
	}
	if blockedNames[strings.ToLower(name)] {
		return ErrInvalidName
	}
	return nil
}

// Disabled is the Directory used when no database is configured.
type Disabled struct{}

func (Disabled) Create(context.Context, string, string) error    { return ErrUnavailable }
func (Disabled) AddPlayer(context.Context, string, string) error { return ErrUnavailable }
func (Disabled) RemovePlayer(context.Context, string) (bool, string, error) {
	return false, "", ErrUnavailable
}
func (Disabled) FindByPlayer(context.Context, string) (*Info, bool, error) {
	return nil, false, ErrUnavailable
}
func (Disabled) FindByName(context.Context, string) (*Info, error) { return nil, ErrUnavailable }
func (Disabled) ListRanked(context.Context) ([]Info, error)        { return nil, ErrUnavailable }
func (Disabled) Members(context.Context, string) ([]string, error) { return nil, ErrUnavailable }
func (Disabled) IncrementScore(context.Context, string, int64, int64) error {
	return ErrUnavailable
}
