package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Role identifiers as stored in users.role.
const (
	RolePlayer           = "player"
	RoleCoach            = "coach"
	RoleAgent            = "agent"
	RoleSportingDirector = "sporting_director"
	RoleAthleticTrainer  = "athletic_trainer"
	RoleNutritionist     = "nutritionist"
	RolePhysioMasseur    = "physio_masseur"
	RoleTalentScout      = "talent_scout"
)

// Roles lists every valid role id.
var Roles = []string{
	RolePlayer, RoleCoach, RoleAgent, RoleSportingDirector,
	RoleAthleticTrainer, RoleNutritionist, RolePhysioMasseur, RoleTalentScout,
}

// RoleLabels maps the display labels clients send to role ids.
var RoleLabels = map[string]string{
	"Player":            RolePlayer,
	"Coach":             RoleCoach,
	"Agent":             RoleAgent,
	"Sporting Director": RoleSportingDirector,
	"Athletic Trainer":  RoleAthleticTrainer,
	"Nutritionist":      RoleNutritionist,
	"Physio/Masseur":    RolePhysioMasseur,
	"Talent Scout":      RoleTalentScout,
}

// NormalizeRole accepts a role id or display label and returns the role id,
// or "" when it is neither.
func NormalizeRole(role string) string {
	if id, ok := RoleLabels[role]; ok {
		return id
	}
	role = strings.ToLower(strings.TrimSpace(role))
	role = strings.NewReplacer(" ", "_", "/", "_").Replace(role)
	for _, r := range Roles {
		if r == role {
			return r
		}
	}
	return ""
}

// User is a profile on the network: an athlete or a sports professional.
type User struct {
	ID           string         `gorm:"primaryKey;type:uuid" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	Username     string         `gorm:"index" json:"username,omitempty"`
	FirstName    string         `json:"firstName"`
	LastName     string         `json:"lastName"`
	AvatarURL    string         `json:"avatarUrl,omitempty"`
	Bio          string         `gorm:"type:text" json:"bio,omitempty"`
	BirthDate    *time.Time     `json:"birthDate,omitempty"`
	City         string         `gorm:"index" json:"city,omitempty"`
	Country      string         `json:"country,omitempty"`
	Role         string         `gorm:"index" json:"role"`
	Sports       StringList     `gorm:"type:jsonb" json:"sports"`
	Level        string         `json:"level,omitempty"`
	Availability string         `json:"availability,omitempty"`
	Verified     bool           `gorm:"default:false" json:"verified"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return nil
}

// FullName is "First Last", falling back to the username.
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}

// IsAthlete reports whether the user is listed under athlete search.
func (u *User) IsAthlete() bool {
	return u.Role == RolePlayer
}

// UserSummary is the compact profile embedded in other resources.
type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Role      string `json:"role"`
}

// Summary returns the compact view of u.
func (u *User) Summary() *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		AvatarURL: u.AvatarURL,
		Role:      u.Role,
	}
}

// Physical stat bounds accepted on write.
const (
	MinHeightCm = 50
	MaxHeightCm = 300
	MinWeightKg = 20
	MaxWeightKg = 300
)

// PhysicalStats holds one user's body measurements. There is at most one row
// per user.
type PhysicalStats struct {
	UserID       string    `gorm:"primaryKey;type:uuid" json:"userId"`
	HeightCm     *float64  `json:"heightCm"`
	WeightKg     *float64  `json:"weightKg"`
	DominantFoot *string   `json:"dominantFoot"`
	DominantHand *string   `json:"dominantHand"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (PhysicalStats) TableName() string {
	return "physical_stats"
}

// AgeAt returns the age in whole years at now, or false without a birth date.
func (u *User) AgeAt(now time.Time) (int, bool) {
	if u.BirthDate == nil || u.BirthDate.IsZero() {
		return 0, false
	}
	b := u.BirthDate.In(now.Location())
	age := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		age--
	}
	return age, true
}

// Follow is a directed follower -> following edge.
type Follow struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	FollowerID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair" json:"followerId"`
	FollowingID string    `gorm:"type:uuid;not null;uniqueIndex:idx_follows_pair;index" json:"followingId"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	return nil
}

// CareerExperience is one entry of a user's sporting career.
type CareerExperience struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;index" json:"userId"`
	Club        string     `json:"club"`
	Role        string     `json:"role"`
	Sport       string     `json:"sport,omitempty"`
	Category    string     `json:"category,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Current     bool       `json:"current"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (e *CareerExperience) BeforeCreate(tx *gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// Verification records that one user vouched for another's profile.
type Verification struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	VerifierID string    `gorm:"type:uuid;not null;uniqueIndex:idx_verifications_pair" json:"verifierId"`
	VerifiedID string    `gorm:"type:uuid;not null;uniqueIndex:idx_verifications_pair;index" json:"verifiedId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (v *Verification) BeforeCreate(tx *gorm.DB) error {
	ensureID(&v.ID)
	return nil
}

// Favorite is a bookmarked profile.
type Favorite struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_pair" json:"userId"`
	FavoriteID string    `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_pair;index" json:"favoriteId"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	ensureID(&f.ID)
	return nil
}
