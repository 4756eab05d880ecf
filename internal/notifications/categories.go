// Package notifications creates, stores and delivers user notifications:
// category preferences, destinations, grouping and realtime fan-out.
package notifications

// Notification types
const (
	TypeNewFollower              = "new_follower"
	TypeMessageReceived          = "message_received"
	TypeNewApplication           = "new_application"
	TypeCandidacyAccepted        = "candidacy_accepted"
	TypeCandidacyRejected        = "candidacy_rejected"
	TypeApplicationReceived      = "application_received"
	TypeApplicationStatusChanged = "application_status_changed"
	TypeAffiliationRequest       = "affiliation_request"
	TypeAffiliationAccepted      = "affiliation_accepted"
	TypeAffiliationRejected      = "affiliation_rejected"
	TypeAffiliationRemoved       = "affiliation_removed"
	TypeClubJoinRequest          = "club_join_request"
	TypeClubJoinAccepted         = "club_join_accepted"
	TypeClubJoinRejected         = "club_join_rejected"
	TypeNewOpportunity           = "new_opportunity"
	TypePermissionGranted        = "permission_granted"
	TypePermissionRevoked        = "permission_revoked"
	TypeProfileVerified          = "profile_verified"
	TypeAddedToFavorites         = "added_to_favorites"
)

// Category groups notification types for user preferences
type Category string

const (
	CategoryFollower      Category = "follower"
	CategoryMessages      Category = "messages"
	CategoryApplications  Category = "applications"
	CategoryAffiliations  Category = "affiliations"
	CategoryClub          Category = "club"
	CategoryOpportunities Category = "opportunities"
	CategoryPermissions   Category = "permissions"
	CategoryProfile       Category = "profile"
)

// Categories lists every category in display order
var Categories = []Category{
	CategoryFollower,
	CategoryMessages,
	CategoryApplications,
	CategoryAffiliations,
	CategoryClub,
	CategoryOpportunities,
	CategoryPermissions,
	CategoryProfile,
}

// CategoryTypes maps each category to its notification types
var CategoryTypes = map[Category][]string{
	CategoryFollower:      {TypeNewFollower},
	CategoryMessages:      {TypeMessageReceived},
	CategoryApplications:  {TypeNewApplication, TypeCandidacyAccepted, TypeCandidacyRejected, TypeApplicationReceived, TypeApplicationStatusChanged},
	CategoryAffiliations:  {TypeAffiliationRequest, TypeAffiliationAccepted, TypeAffiliationRejected, TypeAffiliationRemoved},
	CategoryClub:          {TypeClubJoinRequest, TypeClubJoinAccepted, TypeClubJoinRejected},
	CategoryOpportunities: {TypeNewOpportunity},
	CategoryPermissions:   {TypePermissionGranted, TypePermissionRevoked},
	CategoryProfile:       {TypeProfileVerified, TypeAddedToFavorites},
}

// CategoryLabels are the UI names of each category
var CategoryLabels = map[Category]string{
	CategoryFollower:      "Nuovi follower",
	CategoryMessages:      "Messaggi",
	CategoryApplications:  "Candidature",
	CategoryAffiliations:  "Affiliazioni",
	CategoryClub:          "Richieste club",
	CategoryOpportunities: "Opportunità",
	CategoryPermissions:   "Permessi",
	CategoryProfile:       "Profilo",
}

var typeCategory = func() map[string]Category {
	m := make(map[string]Category)
	for category, types := range CategoryTypes {
		for _, t := range types {
			m[t] = category
		}
	}
	return m
}()

// CategoryOf returns the category of a notification type
func CategoryOf(notificationType string) (Category, bool) {
	c, ok := typeCategory[notificationType]
	return c, ok
}

// IsMessage reports whether the type belongs to the messages category.
// Message notifications live in the chat area and stay out of the
// notification center and its unread badge.
func IsMessage(notificationType string) bool {
	c, _ := CategoryOf(notificationType)
	return c == CategoryMessages
}

// MessageTypes lists the types excluded from the notification center
func MessageTypes() []string {
	return CategoryTypes[CategoryMessages]
}

// DefaultPreferences returns every category enabled
func DefaultPreferences() map[string]bool {
	prefs := make(map[string]bool, len(Categories))
	for _, c := range Categories {
		prefs[string(c)] = true
	}
	return prefs
}

// IsEnabled reports whether a type is enabled under prefs. Types without a
// category and categories missing from prefs are enabled.
func IsEnabled(notificationType string, prefs map[string]bool) bool {
	category, ok := CategoryOf(notificationType)
	if !ok {
		return true
	}
	enabled, set := prefs[string(category)]
	if !set {
		return true
	}
	return enabled
}

// IsValidCategory reports whether name is a known category
func IsValidCategory(name string) bool {
	_, ok := CategoryTypes[Category(name)]
	return ok
}

// emailCategories are mirrored to email when SES is configured
var emailCategories = map[Category]bool{
	CategoryAffiliations: true,
	CategoryApplications: true,
	CategoryClub:         true,
}

// ShouldEmail reports whether a notification type is mirrored to email
func ShouldEmail(notificationType string) bool {
	c, ok := CategoryOf(notificationType)
	return ok && emailCategories[c]
}
