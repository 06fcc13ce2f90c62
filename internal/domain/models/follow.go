// internal/domain/models/follow.go
package models

import (
	"strings"
	"time"
)

// FollowedTeam is an entry in User.FollowedTeams, unique by TeamID.
type FollowedTeam struct {
	TeamID     string    `bson:"team_id" json:"teamId"`
	TeamName   string    `bson:"team_name,omitempty" json:"teamName,omitempty"`
	League     string    `bson:"league,omitempty" json:"league,omitempty"`
	Logo       string    `bson:"logo,omitempty" json:"logo,omitempty"`
	FollowedAt time.Time `bson:"followed_at" json:"followedAt"`
}

// FollowedPlayer is an entry in User.FollowedPlayers, unique by PlayerID.
type FollowedPlayer struct {
	PlayerID   string    `bson:"player_id" json:"playerId"`
	PlayerName string    `bson:"player_name,omitempty" json:"playerName,omitempty"`
	TeamName   string    `bson:"team_name,omitempty" json:"teamName,omitempty"`
	Position   string    `bson:"position,omitempty" json:"position,omitempty"`
	FollowedAt time.Time `bson:"followed_at" json:"followedAt"`
}

// FollowedSport is an entry in User.FollowedSports, unique by SportID.
type FollowedSport struct {
	SportID    string    `bson:"sport_id" json:"sportId"`
	SportName  string    `bson:"sport_name,omitempty" json:"sportName,omitempty"`
	Icon       string    `bson:"icon,omitempty" json:"icon,omitempty"`
	FollowedAt time.Time `bson:"followed_at" json:"followedAt"`
}

// FollowedMatch is an entry in User.FollowedMatches, unique by MatchID.
type FollowedMatch struct {
	MatchID    string     `bson:"match_id" json:"matchId"`
	HomeTeam   string     `bson:"home_team,omitempty" json:"homeTeam,omitempty"`
	AwayTeam   string     `bson:"away_team,omitempty" json:"awayTeam,omitempty"`
	SportID    string     `bson:"sport_id,omitempty" json:"sportId,omitempty"`
	StartsAt   *time.Time `bson:"starts_at,omitempty" json:"startsAt,omitempty"`
	FollowedAt time.Time  `bson:"followed_at" json:"followedAt"`
}

// MatchReminder is an entry in User.MatchReminders, unique by MatchID.
// Reminders are independent of FollowedMatches: neither implies the other.
type MatchReminder struct {
	MatchID      string     `bson:"match_id" json:"matchId"`
	HomeTeam     string     `bson:"home_team,omitempty" json:"homeTeam,omitempty"`
	AwayTeam     string     `bson:"away_team,omitempty" json:"awayTeam,omitempty"`
	StartsAt     *time.Time `bson:"starts_at,omitempty" json:"startsAt,omitempty"`
	RememberedAt time.Time  `bson:"remembered_at" json:"rememberedAt"`
}

func (e FollowedTeam) NaturalKey() string   { return e.TeamID }
func (e FollowedPlayer) NaturalKey() string { return e.PlayerID }
func (e FollowedSport) NaturalKey() string  { return e.SportID }
func (e FollowedMatch) NaturalKey() string  { return e.MatchID }
func (e MatchReminder) NaturalKey() string  { return e.MatchID }

// FollowEntry is implemented by every follow-collection element.
type FollowEntry interface {
	FollowedTeam | FollowedPlayer | FollowedSport | FollowedMatch | MatchReminder
	NaturalKey() string
}

// FollowAction selects between adding and removing a follow entry.
type FollowAction string

const (
	Follow   FollowAction = "follow"
	Unfollow FollowAction = "unfollow"
)

// ParseFollowAction maps request input to a FollowAction. An empty value
// means follow.
func ParseFollowAction(s string) (FollowAction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Follow):
		return Follow, true
	case string(Unfollow):
		return Unfollow, true
	}
	return "", false
}

// FollowKind describes one follow collection on User: its name, the bson
// field that stores it, and how to reach and timestamp its entries.
type FollowKind[E FollowEntry] struct {
	Name     string // team | player | sport | match | reminder
	Field    string // bson field on the users document
	KeyField string // bson field of the natural key inside an entry
	KeyParam string // json name of the natural key in requests

	list  func(u *User) *[]E
	stamp func(e *E, t time.Time)
}

var (
	Teams = FollowKind[FollowedTeam]{
		Name: "team", Field: "followed_teams", KeyField: "team_id", KeyParam: "teamId",
		list:  func(u *User) *[]FollowedTeam { return &u.FollowedTeams },
		stamp: func(e *FollowedTeam, t time.Time) { e.FollowedAt = t },
	}
	Players = FollowKind[FollowedPlayer]{
		Name: "player", Field: "followed_players", KeyField: "player_id", KeyParam: "playerId",
		list:  func(u *User) *[]FollowedPlayer { return &u.FollowedPlayers },
		stamp: func(e *FollowedPlayer, t time.Time) { e.FollowedAt = t },
	}
	Sports = FollowKind[FollowedSport]{
		Name: "sport", Field: "followed_sports", KeyField: "sport_id", KeyParam: "sportId",
		list:  func(u *User) *[]FollowedSport { return &u.FollowedSports },
		stamp: func(e *FollowedSport, t time.Time) { e.FollowedAt = t },
	}
	Matches = FollowKind[FollowedMatch]{
		Name: "match", Field: "followed_matches", KeyField: "match_id", KeyParam: "matchId",
		list:  func(u *User) *[]FollowedMatch { return &u.FollowedMatches },
		stamp: func(e *FollowedMatch, t time.Time) { e.FollowedAt = t },
	}
	Reminders = FollowKind[MatchReminder]{
		Name: "reminder", Field: "match_reminders", KeyField: "match_id", KeyParam: "matchId",
		list:  func(u *User) *[]MatchReminder { return &u.MatchReminders },
		stamp: func(e *MatchReminder, t time.Time) { e.RememberedAt = t },
	}
)

// Entries returns the kind's collection on u, never nil.
func (k FollowKind[E]) Entries(u *User) []E {
	if l := *k.list(u); l != nil {
		return l
	}
	return []E{}
}

// Contains reports whether u already has an entry with the given key.
func (k FollowKind[E]) Contains(u *User, key string) bool {
	for _, e := range *k.list(u) {
		if e.NaturalKey() == key {
			return true
		}
	}
	return false
}

// Apply mutates u's collection in memory and reports whether it changed.
//
// Follow appends entry stamped with now unless its key is already present.
// Unfollow removes every entry with entry's key. Both are idempotent.
func (k FollowKind[E]) Apply(u *User, entry E, action FollowAction, now time.Time) bool {
	list := k.list(u)
	key := entry.NaturalKey()

	switch action {
	case Follow:
		if k.Contains(u, key) {
			return false
		}
		k.stamp(&entry, now)
		*list = append(*list, entry)
		return true

	case Unfollow:
		kept := make([]E, 0, len(*list))
		for _, e := range *list {
			if e.NaturalKey() != key {
				kept = append(kept, e)
			}
		}
		changed := len(kept) != len(*list)
		*list = kept
		return changed
	}
	return false
}
