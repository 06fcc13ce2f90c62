// internal/domain/models/profile.go
package models

// ProfilePatch is a partial profile update. Nil fields are left untouched;
// Notifications, when present, replaces the whole settings block.
type ProfilePatch struct {
	FullName       *string               `json:"fullName,omitempty"`
	Avatar         *string               `json:"avatar,omitempty"`
	Bio            *string               `json:"bio,omitempty"`
	Location       *string               `json:"location,omitempty"`
	FavoriteSports *[]string             `json:"favoriteSports,omitempty"`
	Notifications  *NotificationSettings `json:"notifications,omitempty"`
}

// IsEmpty reports whether the patch carries no fields.
func (p ProfilePatch) IsEmpty() bool {
	return p.FullName == nil && p.Avatar == nil && p.Bio == nil &&
		p.Location == nil && p.FavoriteSports == nil && p.Notifications == nil
}

// Fields returns the patch as profile sub-field names (bson) to values.
func (p ProfilePatch) Fields() map[string]any {
	m := make(map[string]any, 6)
	if p.FullName != nil {
		m["full_name"] = *p.FullName
	}
	if p.Avatar != nil {
		m["avatar"] = *p.Avatar
	}
	if p.Bio != nil {
		m["bio"] = *p.Bio
	}
	if p.Location != nil {
		m["location"] = *p.Location
	}
	if p.FavoriteSports != nil {
		m["favorite_sports"] = *p.FavoriteSports
	}
	if p.Notifications != nil {
		m["notifications"] = *p.Notifications
	}
	return m
}

// ApplyTo merges the patch into pr.
func (p ProfilePatch) ApplyTo(pr *Profile) {
	if p.FullName != nil {
		pr.FullName = *p.FullName
	}
	if p.Avatar != nil {
		pr.Avatar = *p.Avatar
	}
	if p.Bio != nil {
		pr.Bio = *p.Bio
	}
	if p.Location != nil {
		pr.Location = *p.Location
	}
	if p.FavoriteSports != nil {
		pr.FavoriteSports = *p.FavoriteSports
	}
	if p.Notifications != nil {
		pr.Notifications = *p.Notifications
	}
}
