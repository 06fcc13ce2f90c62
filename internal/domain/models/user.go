// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the only persisted account entity. Follow collections are embedded
// so every account mutation touches exactly one document.
//
// NOTE:
//   - PasswordHash is never serialized to JSON. Callers outside the accounts
//     service should only ever see values produced by Sanitized.
//   - IsActive=false is a soft delete; active-user lookups treat such users as
//     nonexistent, but their username and email stay reserved.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`

	Profile Profile `bson:"profile" json:"profile"`

	FollowedTeams   []FollowedTeam   `bson:"followed_teams" json:"followedTeams"`
	FollowedPlayers []FollowedPlayer `bson:"followed_players" json:"followedPlayers"`
	FollowedSports  []FollowedSport  `bson:"followed_sports" json:"followedSports"`
	FollowedMatches []FollowedMatch  `bson:"followed_matches" json:"followedMatches"`
	MatchReminders  []MatchReminder  `bson:"match_reminders" json:"matchReminders"`

	IsActive   bool       `bson:"is_active" json:"isActive"`
	IsVerified bool       `bson:"is_verified" json:"isVerified"`
	LastLogin  *time.Time `bson:"last_login,omitempty" json:"lastLogin,omitempty"`
	LoginCount int64      `bson:"login_count" json:"loginCount"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// Profile holds free-form, user-editable details. No constraints beyond type.
type Profile struct {
	FullName       string               `bson:"full_name,omitempty" json:"fullName,omitempty"`
	Avatar         string               `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Bio            string               `bson:"bio,omitempty" json:"bio,omitempty"`
	Location       string               `bson:"location,omitempty" json:"location,omitempty"`
	FavoriteSports []string             `bson:"favorite_sports,omitempty" json:"favoriteSports,omitempty"`
	Notifications  NotificationSettings `bson:"notifications" json:"notifications"`
}

// NotificationSettings are the per-user notification toggles.
type NotificationSettings struct {
	Email        bool `bson:"email" json:"email"`
	Push         bool `bson:"push" json:"push"`
	MatchStart   bool `bson:"match_start" json:"matchStart"`
	ScoreUpdates bool `bson:"score_updates" json:"scoreUpdates"`
	News         bool `bson:"news" json:"news"`
}

// DefaultNotifications is applied to new accounts that do not supply their own.
func DefaultNotifications() NotificationSettings {
	return NotificationSettings{Email: true, Push: true, MatchStart: true, ScoreUpdates: true, News: false}
}

// Sanitized returns a copy of u that is safe to hand to callers: the password
// hash is cleared and nil collections become empty so they encode as [].
func (u User) Sanitized() User {
	u.PasswordHash = ""
	if u.FollowedTeams == nil {
		u.FollowedTeams = []FollowedTeam{}
	}
	if u.FollowedPlayers == nil {
		u.FollowedPlayers = []FollowedPlayer{}
	}
	if u.FollowedSports == nil {
		u.FollowedSports = []FollowedSport{}
	}
	if u.FollowedMatches == nil {
		u.FollowedMatches = []FollowedMatch{}
	}
	if u.MatchReminders == nil {
		u.MatchReminders = []MatchReminder{}
	}
	return u
}
