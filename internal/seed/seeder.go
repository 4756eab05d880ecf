package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedEmailDomain marks users created by the seeder
const SeedEmailDomain = "seed.sprinta.app"

// Indexer receives every seeded user, normally the search service
type Indexer interface {
	IndexUser(ctx context.Context, u *models.User)
}

// Counts sizes a dev seed
type Counts struct {
	Users         int
	Clubs         int
	Opportunities int
	Posts         int
	Messages      int
}

// DefaultCounts is the size of `seed dev`
var DefaultCounts = Counts{Users: 120, Clubs: 12, Opportunities: 40, Posts: 300, Messages: 400}

var (
	sports    = []string{"Calcio", "Basket", "Pallavolo", "Rugby", "Tennis", "Atletica", "Nuoto"}
	levels    = []string{"Professionista", "Semi-professionista", "Dilettante", "Giovanile"}
	positions = map[string][]string{
		"Calcio":    {"Portiere", "Difensore", "Centrocampista", "Attaccante"},
		"Basket":    {"Playmaker", "Guardia", "Ala", "Centro"},
		"Pallavolo": {"Palleggiatore", "Libero", "Schiacciatore", "Centrale"},
		"Rugby":     {"Pilone", "Mediano di mischia", "Tre quarti", "Estremo"},
	}
	clubPrefixes = []string{"US", "AS", "ASD", "Polisportiva", "Virtus", "Atletico", "Sporting"}
)

// testFixtures are the users of `seed test`
var testFixtures = []struct {
	email, first, last, role, sport string
}{
	{"marco.rossi@example.com", "Marco", "Rossi", models.RolePlayer, "Calcio"},
	{"giulia.bianchi@example.com", "Giulia", "Bianchi", models.RolePlayer, "Pallavolo"},
	{"luca.ferrari@example.com", "Luca", "Ferrari", models.RoleAgent, "Calcio"},
	{"sara.colombo@example.com", "Sara", "Colombo", models.RoleCoach, "Pallavolo"},
	{"paolo.esposito@example.com", "Paolo", "Esposito", models.RoleSportingDirector, "Calcio"},
}

// TokenIssuer signs access tokens, normally auth.Service
type TokenIssuer interface {
	IssueToken(userID, email string, ttl time.Duration) (string, time.Time, error)
}

// DevToken is a signed token for one seeded user
type DevToken struct {
	Email     string
	UserID    string
	Role      string
	Token     string
	ExpiresAt time.Time
}

// Seeder handles database seeding operations
type Seeder struct {
	db      *gorm.DB
	indexer Indexer
	now     time.Time
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db, now: time.Now().UTC()}
}

// SetIndexer pushes seeded users to the search index
func (s *Seeder) SetIndexer(ix Indexer) {
	s.indexer = ix
}

// SeedDev seeds the development database with realistic data
func (s *Seeder) SeedDev(ctx context.Context, counts Counts) error {
	db := s.db.WithContext(ctx)

	logger.Log.Info("Creating users...", zap.Int("count", counts.Users))
	users, err := s.seedUsers(db, counts.Users)
	if err != nil {
		return fmt.Errorf("failed to seed users: %w", err)
	}
	byRole := groupByRole(users)

	logger.Log.Info("Creating career experiences...")
	if err := s.seedCareers(db, users); err != nil {
		return fmt.Errorf("failed to seed careers: %w", err)
	}

	logger.Log.Info("Creating clubs...", zap.Int("count", counts.Clubs))
	clubs, err := s.seedClubs(db, counts.Clubs, byRole[models.RoleSportingDirector], users)
	if err != nil {
		return fmt.Errorf("failed to seed clubs: %w", err)
	}

	logger.Log.Info("Creating opportunities...", zap.Int("count", counts.Opportunities))
	opps, err := s.seedOpportunities(db, clubs, counts.Opportunities)
	if err != nil {
		return fmt.Errorf("failed to seed opportunities: %w", err)
	}

	logger.Log.Info("Creating applications...")
	if err := s.seedApplications(db, opps, byRole[models.RolePlayer]); err != nil {
		return fmt.Errorf("failed to seed applications: %w", err)
	}

	logger.Log.Info("Creating affiliations...")
	if err := s.seedAffiliations(db, byRole[models.RoleAgent], byRole[models.RolePlayer]); err != nil {
		return fmt.Errorf("failed to seed affiliations: %w", err)
	}

	logger.Log.Info("Creating follows...")
	if err := s.seedFollows(db, users); err != nil {
		return fmt.Errorf("failed to seed follows: %w", err)
	}

	logger.Log.Info("Creating posts, likes and comments...", zap.Int("posts", counts.Posts))
	if err := s.seedPosts(db, users, counts.Posts); err != nil {
		return fmt.Errorf("failed to seed posts: %w", err)
	}

	logger.Log.Info("Creating messages...", zap.Int("count", counts.Messages))
	if err := s.seedMessages(db, users, counts.Messages); err != nil {
		return fmt.Errorf("failed to seed messages: %w", err)
	}

	s.index(ctx, users)
	return nil
}

// SeedTest seeds a small fixed data set. Running it twice is a no-op.
func (s *Seeder) SeedTest(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	users := make([]models.User, 0, len(testFixtures))
	for _, fx := range testFixtures {
		u := models.User{
			Email:     fx.email,
			FirstName: fx.first,
			LastName:  fx.last,
			Role:      fx.role,
			City:      "Milano",
			Country:   "Italia",
			Sports:    models.StringList{fx.sport},
		}
		if err := db.Where(models.User{Email: fx.email}).FirstOrCreate(&u).Error; err != nil {
			return fmt.Errorf("failed to create test user %s: %w", fx.email, err)
		}
		users = append(users, u)
	}
	player, agent, director := users[0], users[2], users[4]

	club := models.Club{Name: "US Milano Test", City: "Milano", Sports: models.StringList{"Calcio"}, CreatedBy: director.ID}
	if err := db.Where(models.Club{Name: club.Name}).FirstOrCreate(&club).Error; err != nil {
		return fmt.Errorf("failed to create test club: %w", err)
	}

	membership := models.ClubMembership{ClubID: club.ID, UserID: director.ID, Role: models.ClubRoleAdmin, Permissions: models.AllClubPermissions}
	if err := db.Where(models.ClubMembership{ClubID: club.ID, UserID: director.ID}).FirstOrCreate(&membership).Error; err != nil {
		return fmt.Errorf("failed to create test membership: %w", err)
	}

	opp := models.Opportunity{
		ClubID:      club.ID,
		Title:       "Cercasi attaccante",
		Description: "Prima squadra, Eccellenza",
		Type:        models.OpportunityPlayerSearch,
		Sport:       "Calcio",
		City:        "Milano",
		ExpiryDate:  models.StartOfDay(s.now.AddDate(0, 2, 0)),
		CreatedBy:   director.ID,
	}
	if err := db.Where(models.Opportunity{ClubID: club.ID, Title: opp.Title}).FirstOrCreate(&opp).Error; err != nil {
		return fmt.Errorf("failed to create test opportunity: %w", err)
	}

	aff := models.Affiliation{AgentID: agent.ID, PlayerID: player.ID, Status: models.AffiliationPending}
	if err := db.Where(models.Affiliation{AgentID: agent.ID, PlayerID: player.ID}).FirstOrCreate(&aff).Error; err != nil {
		return fmt.Errorf("failed to create test affiliation: %w", err)
	}

	s.index(ctx, users)
	return nil
}

// Tokens signs a token for each of emails, or for the `seed test` users when
// none are given, so the CLI can act as them without the identity provider.
func (s *Seeder) Tokens(ctx context.Context, issuer TokenIssuer, ttl time.Duration, emails ...string) ([]DevToken, error) {
	if len(emails) == 0 {
		for _, fx := range testFixtures {
			emails = append(emails, fx.email)
		}
	}

	tokens := make([]DevToken, 0, len(emails))
	for _, email := range emails {
		var u models.User
		err := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).First(&u).Error
		if err != nil {
			return nil, fmt.Errorf("failed to find user %s: %w", email, err)
		}
		token, expiresAt, err := issuer.IssueToken(u.ID, u.Email, ttl)
		if err != nil {
			return nil, fmt.Errorf("failed to issue token for %s: %w", email, err)
		}
		tokens = append(tokens, DevToken{Email: u.Email, UserID: u.ID, Role: u.Role, Token: token, ExpiresAt: expiresAt})
	}
	return tokens, nil
}

// Clean removes every row from every table
func (s *Seeder) Clean(ctx context.Context) error {
	all := models.AllModels()
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Delete(all[i]).Error; err != nil {
			return fmt.Errorf("failed to clean %T: %w", all[i], err)
		}
	}
	return nil
}

func (s *Seeder) index(ctx context.Context, users []models.User) {
	if s.indexer == nil {
		logger.Log.Info("Search index not configured - skipping user indexing")
		return
	}
	for i := range users {
		s.indexer.IndexUser(ctx, &users[i])
	}
	logger.Log.Info("Indexed seeded users", zap.Int("count", len(users)))
}

func (s *Seeder) pastTime(days int) time.Time {
	return gofakeit.DateRange(s.now.AddDate(0, 0, -days), s.now).UTC()
}

func pick[T any](list []T) T {
	return list[rand.Intn(len(list))]
}

func groupByRole(users []models.User) map[string][]models.User {
	out := make(map[string][]models.User)
	for _, u := range users {
		out[u.Role] = append(out[u.Role], u)
	}
	return out
}

// roleFor spreads roles so every section of the app has data: half players,
// then agents and directors, the rest across the other professions.
func roleFor(i int) string {
	switch {
	case i%2 == 0:
		return models.RolePlayer
	case i%10 == 1:
		return models.RoleAgent
	case i%10 == 3:
		return models.RoleSportingDirector
	default:
		return models.Roles[rand.Intn(len(models.Roles))]
	}
}

func (s *Seeder) seedUsers(db *gorm.DB, count int) ([]models.User, error) {
	var existing int64
	db.Model(&models.User{}).Where("email LIKE ?", "%@"+SeedEmailDomain).Count(&existing)
	if existing >= int64(count) {
		var users []models.User
		if err := db.Where("email LIKE ?", "%@"+SeedEmailDomain).Find(&users).Error; err != nil {
			return nil, err
		}
		logger.Log.Info("Found existing seed users, skipping creation", zap.Int64("seed_users", existing))
		return users, nil
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		first, last := gofakeit.FirstName(), gofakeit.LastName()
		sport := pick(sports)
		birth := gofakeit.DateRange(time.Date(1985, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2008, 12, 31, 0, 0, 0, 0, time.UTC))
		u := models.User{
			Email:        fmt.Sprintf("%s.%s.%d@%s", gofakeit.Username(), last, i, SeedEmailDomain),
			Username:     gofakeit.Username(),
			FirstName:    first,
			LastName:     last,
			Bio:          gofakeit.HipsterSentence(),
			BirthDate:    &birth,
			City:         gofakeit.City(),
			Country:      "Italia",
			Role:         roleFor(i),
			Sports:       models.StringList{sport},
			Level:        pick(levels),
			Availability: pick([]string{"Disponibile", "Non disponibile", "Valuta offerte"}),
			Verified:     rand.Intn(5) == 0,
			CreatedAt:    s.pastTime(180),
		}
		users = append(users, u)
	}

	if err := db.CreateInBatches(&users, 100).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Seeder) seedCareers(db *gorm.DB, users []models.User) error {
	var rows []models.CareerExperience
	for _, u := range users {
		n := rand.Intn(3)
		for j := 0; j < n; j++ {
			start := s.pastTime(365 * 8)
			sport := u.Sports[0]
			exp := models.CareerExperience{
				UserID:    u.ID,
				Club:      pick(clubPrefixes) + " " + gofakeit.City(),
				Role:      u.Role,
				Sport:     sport,
				Category:  pick([]string{"Serie D", "Eccellenza", "Promozione", "Under 19", "Serie B"}),
				StartDate: &start,
				Current:   j == n-1 && rand.Intn(2) == 0,
			}
			if !exp.Current {
				end := start.AddDate(1, 0, 0)
				exp.EndDate = &end
			}
			rows = append(rows, exp)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	return db.CreateInBatches(&rows, 100).Error
}

func (s *Seeder) seedClubs(db *gorm.DB, count int, directors, users []models.User) ([]models.Club, error) {
	if len(directors) == 0 {
		directors = users
	}

	clubs := make([]models.Club, 0, count)
	for i := 0; i < count; i++ {
		owner := directors[i%len(directors)]
		city := gofakeit.City()
		club := models.Club{
			Name:        fmt.Sprintf("%s %s", pick(clubPrefixes), city),
			Description: gofakeit.HipsterSentence(),
			Sports:      models.StringList{pick(sports)},
			City:        city,
			Country:     "Italia",
			FoundedYear: 1900 + rand.Intn(120),
			Verified:    rand.Intn(3) == 0,
			CreatedBy:   owner.ID,
		}
		if err := db.Create(&club).Error; err != nil {
			return nil, err
		}

		members := []models.ClubMembership{{
			ClubID: club.ID, UserID: owner.ID, Role: models.ClubRoleAdmin, Permissions: models.AllClubPermissions,
		}}
		seen := map[string]bool{owner.ID: true}
		for j := 0; j < 4; j++ {
			u := pick(users)
			if seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			role := models.ClubRoleStaff
			switch u.Role {
			case models.RolePlayer:
				role = models.ClubRolePlayer
			case models.RoleCoach:
				role = models.ClubRoleCoach
			case models.RoleTalentScout:
				role = models.ClubRoleScout
			}
			members = append(members, models.ClubMembership{ClubID: club.ID, UserID: u.ID, Role: role})
		}
		if err := db.Create(&members).Error; err != nil {
			return nil, err
		}

		if rand.Intn(2) == 0 {
			applicant := pick(users)
			if !seen[applicant.ID] {
				jr := models.ClubJoinRequest{ClubID: club.ID, UserID: applicant.ID, RequestedRole: models.ClubRolePlayer, Message: "Vorrei entrare in squadra"}
				if err := db.Create(&jr).Error; err != nil {
					return nil, err
				}
			}
		}
		clubs = append(clubs, club)
	}
	return clubs, nil
}

func (s *Seeder) seedOpportunities(db *gorm.DB, clubs []models.Club, count int) ([]models.Opportunity, error) {
	if len(clubs) == 0 {
		return nil, nil
	}
	opps := make([]models.Opportunity, 0, count)
	for i := 0; i < count; i++ {
		club := clubs[i%len(clubs)]
		sport := club.Sports[0]
		position := ""
		if list, ok := positions[sport]; ok {
			position = pick(list)
		}
		// A few opportunities are already expired so the expiry job has work.
		expiry := models.StartOfDay(s.now.AddDate(0, 0, rand.Intn(90)-10))
		opp := models.Opportunity{
			ClubID:       club.ID,
			Title:        fmt.Sprintf("Cercasi %s", orDefault(position, "collaboratore")),
			Description:  gofakeit.HipsterSentence(),
			Type:         pick(models.OpportunityTypes),
			Sport:        sport,
			Position:     position,
			City:         club.City,
			Country:      "Italia",
			Level:        pick(levels),
			ContractType: pick([]string{"Rimborso spese", "Contratto annuale", "Prova"}),
			ExpiryDate:   expiry,
			CreatedBy:    club.CreatedBy,
		}
		opps = append(opps, opp)
	}
	if err := db.CreateInBatches(&opps, 100).Error; err != nil {
		return nil, err
	}
	return opps, nil
}

func (s *Seeder) seedApplications(db *gorm.DB, opps []models.Opportunity, players []models.User) error {
	if len(opps) == 0 || len(players) == 0 {
		return nil
	}
	statuses := []string{models.ApplicationPending, models.ApplicationPending, models.ApplicationInReview, models.ApplicationAccepted, models.ApplicationRejected}
	seen := make(map[string]bool)
	var apps []models.Application
	for _, opp := range opps {
		for j := 0; j < rand.Intn(5); j++ {
			p := pick(players)
			key := opp.ID + p.ID
			if seen[key] {
				continue
			}
			seen[key] = true
			apps = append(apps, models.Application{
				OpportunityID: opp.ID,
				ApplicantID:   p.ID,
				ClubID:        opp.ClubID,
				Message:       "Disponibile per un provino",
				Status:        pick(statuses),
			})
		}
	}
	if len(apps) == 0 {
		return nil
	}
	return db.CreateInBatches(&apps, 100).Error
}

func (s *Seeder) seedAffiliations(db *gorm.DB, agents, players []models.User) error {
	if len(agents) == 0 || len(players) == 0 {
		return nil
	}
	statuses := []string{models.AffiliationPending, models.AffiliationAccepted, models.AffiliationRejected}
	for i, p := range players {
		if i%3 != 0 {
			continue
		}
		status := pick(statuses)
		requested := s.pastTime(60)
		aff := models.Affiliation{
			AgentID:     agents[i%len(agents)].ID,
			PlayerID:    p.ID,
			Status:      status,
			RequestedAt: requested,
		}
		if status != models.AffiliationPending {
			responded := requested.Add(48 * time.Hour)
			aff.RespondedAt = &responded
			if status == models.AffiliationAccepted {
				aff.AffiliatedAt = &responded
			}
		}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&aff).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedFollows(db *gorm.DB, users []models.User) error {
	var follows []models.Follow
	seen := make(map[string]bool)
	for _, u := range users {
		for j := 0; j < rand.Intn(8); j++ {
			target := pick(users)
			key := u.ID + target.ID
			if target.ID == u.ID || seen[key] {
				continue
			}
			seen[key] = true
			follows = append(follows, models.Follow{FollowerID: u.ID, FollowingID: target.ID, CreatedAt: s.pastTime(90)})
		}
	}
	if len(follows) == 0 {
		return nil
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&follows, 200).Error; err != nil {
		return err
	}

	// Follower notifications give the grouped notification view real data.
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.FullName()
	}
	var rows []models.Notification
	for _, f := range follows {
		if rand.Intn(3) != 0 {
			continue
		}
		name := names[f.FollowerID]
		rows = append(rows, models.Notification{
			UserID:  f.FollowingID,
			Type:    notifications.TypeNewFollower,
			Title:   "Nuovo follower",
			Message: fmt.Sprintf("%s ha iniziato a seguirti.", name),
			Metadata: models.JSONMap{
				"followerId":   f.FollowerID,
				"followerName": name,
			},
			Read:      rand.Intn(2) == 0,
			CreatedAt: f.CreatedAt,
		})
	}
	if len(rows) == 0 {
		return nil
	}
	return db.CreateInBatches(&rows, 200).Error
}

func (s *Seeder) seedPosts(db *gorm.DB, users []models.User, count int) error {
	if len(users) == 0 {
		return nil
	}
	posts := make([]models.Post, 0, count)
	for i := 0; i < count; i++ {
		posts = append(posts, models.Post{
			AuthorID:  pick(users).ID,
			Content:   gofakeit.HipsterSentence(),
			CreatedAt: s.pastTime(30),
		})
	}
	if err := db.CreateInBatches(&posts, 100).Error; err != nil {
		return err
	}

	var likes []models.Like
	var comments []models.Comment
	for _, p := range posts {
		seen := make(map[string]bool)
		for j := 0; j < rand.Intn(6); j++ {
			u := pick(users)
			if seen[u.ID] {
				continue
			}
			seen[u.ID] = true
			likes = append(likes, models.Like{PostID: p.ID, UserID: u.ID})
		}
		for j := 0; j < rand.Intn(3); j++ {
			comments = append(comments, models.Comment{PostID: p.ID, AuthorID: pick(users).ID, Content: gofakeit.HipsterSentence()})
		}
	}
	if len(likes) > 0 {
		if err := db.CreateInBatches(&likes, 200).Error; err != nil {
			return err
		}
	}
	if len(comments) > 0 {
		if err := db.CreateInBatches(&comments, 200).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) seedMessages(db *gorm.DB, users []models.User, count int) error {
	if len(users) < 2 {
		return nil
	}
	messages := make([]models.Message, 0, count)
	for i := 0; i < count; i++ {
		from, to := pick(users), pick(users)
		if from.ID == to.ID {
			continue
		}
		messages = append(messages, models.Message{
			SenderID:   from.ID,
			ReceiverID: to.ID,
			Text:       gofakeit.HipsterSentence(),
			Read:       rand.Intn(2) == 0,
			CreatedAt:  s.pastTime(14),
		})
	}
	if len(messages) == 0 {
		return nil
	}
	return db.CreateInBatches(&messages, 200).Error
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
