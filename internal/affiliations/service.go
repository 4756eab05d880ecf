// Package affiliations implements the agent to player affiliation workflow:
// requests, responses, removal and agent blocking.
package affiliations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/simolima/sportlink-demo-sub001/internal/metrics"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	ErrMissingFields     = errors.New("agentId and playerId are required")
	ErrAgentBlocked      = errors.New("agent blocked by player")
	ErrAlreadyExists     = errors.New("affiliation already exists")
	ErrNotFound          = errors.New("affiliation not found")
	ErrNotOwner          = errors.New("not a party to this affiliation")
	ErrInvalidTransition = errors.New("invalid affiliation status transition")
	ErrUserNotFound      = errors.New("user not found")
	ErrAlreadyBlocked    = errors.New("agent already blocked")
	ErrBlockNotFound     = errors.New("blocked agent not found")
)

// Notifier delivers notifications after a write has committed
type Notifier interface {
	Send(ctx context.Context, in notifications.Input)
}

// Filter narrows List
type Filter struct {
	AgentID  string
	PlayerID string
	Status   string
}

// View is an affiliation with both parties summarized
type View struct {
	models.Affiliation
	Agent  *models.UserSummary `json:"agent"`
	Player *models.UserSummary `json:"player"`
}

// Actor identifies who removes an affiliation
type Actor struct {
	PlayerID string
	AgentID  string
}

// Service runs the affiliation state machine
type Service struct {
	db       *gorm.DB
	notifier Notifier
}

// NewService creates the service. notifier may be nil.
func NewService(db *gorm.DB, notifier Notifier) *Service {
	return &Service{db: db, notifier: notifier}
}

func (s *Service) notify(ctx context.Context, in notifications.Input) {
	if s.notifier != nil {
		s.notifier.Send(ctx, in)
	}
}

func (s *Service) loadUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns affiliations enriched with agent and player summaries
func (s *Service) List(ctx context.Context, f Filter) ([]View, error) {
	q := s.db.WithContext(ctx).Preload("Agent").Preload("Player")
	if f.AgentID != "" {
		q = q.Where("agent_id = ?", f.AgentID)
	}
	if f.PlayerID != "" {
		q = q.Where("player_id = ?", f.PlayerID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}

	var rows []models.Affiliation
	if err := q.Order("requested_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list affiliations: %w", err)
	}

	views := make([]View, len(rows))
	for i, a := range rows {
		views[i] = View{Affiliation: a, Agent: a.Agent.Summary(), Player: a.Player.Summary()}
		views[i].Affiliation.Agent = nil
		views[i].Affiliation.Player = nil
	}
	return views, nil
}

// IsBlocked reports whether playerID blocked agentID
func (s *Service) IsBlocked(ctx context.Context, playerID, agentID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.BlockedAgent{}).
		Where("player_id = ? AND agent_id = ?", playerID, agentID).
		Count(&count).Error
	return count > 0, err
}

// Request creates a pending affiliation from an agent to a player
func (s *Service) Request(ctx context.Context, agentID, playerID, notes string) (*models.Affiliation, error) {
	if agentID == "" || playerID == "" {
		return nil, ErrMissingFields
	}

	blocked, err := s.IsBlocked(ctx, playerID, agentID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrAgentBlocked
	}

	agent, err := s.loadUser(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadUser(ctx, playerID); err != nil {
		return nil, err
	}

	var live int64
	err = s.db.WithContext(ctx).Model(&models.Affiliation{}).
		Where("agent_id = ? AND player_id = ? AND status IN ?", agentID, playerID,
			[]string{models.AffiliationPending, models.AffiliationAccepted}).
		Count(&live).Error
	if err != nil {
		return nil, err
	}
	if live > 0 {
		return nil, ErrAlreadyExists
	}

	aff := &models.Affiliation{
		AgentID:  agentID,
		PlayerID: playerID,
		Status:   models.AffiliationPending,
		Notes:    notes,
	}
	if err := s.db.WithContext(ctx).Create(aff).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create affiliation: %w", err)
	}

	metrics.RecordTransition("affiliation", "", models.AffiliationPending)
	logger.Log.Info("Affiliation requested",
		zap.String("affiliation_id", aff.ID),
		zap.String("agent_id", agentID),
		zap.String("player_id", playerID))

	agentName := agent.FullName()
	s.notify(ctx, notifications.Input{
		UserID:  playerID,
		Type:    notifications.TypeAffiliationRequest,
		Title:   "Nuova richiesta di affiliazione",
		Message: fmt.Sprintf("%s ha richiesto di diventare il tuo agente.", agentName),
		Metadata: models.JSONMap{
			"affiliationId": aff.ID,
			"agentId":       agentID,
			"agentName":     agentName,
		},
	})

	return aff, nil
}

// Respond lets the player accept or reject a pending affiliation
func (s *Service) Respond(ctx context.Context, id, playerID, status string) (*models.Affiliation, error) {
	var aff models.Affiliation
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&aff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if playerID == "" || playerID != aff.PlayerID {
		return nil, ErrNotOwner
	}
	if status != models.AffiliationAccepted && status != models.AffiliationRejected {
		return nil, ErrInvalidTransition
	}
	if aff.Status != models.AffiliationPending {
		return nil, ErrInvalidTransition
	}

	ctx, span := telemetry.GetBusinessEvents().TraceTransition(ctx, "affiliation", aff.ID, aff.Status, status)
	defer span.End()

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":       status,
		"responded_at": now,
	}
	if status == models.AffiliationAccepted {
		updates["affiliated_at"] = now
	}

	// Guard on the current status so concurrent responses cannot both win
	res := s.db.WithContext(ctx).Model(&models.Affiliation{}).
		Where("id = ? AND status = ?", aff.ID, models.AffiliationPending).
		Updates(updates)
	if res.Error != nil {
		telemetry.RecordError(span, res.Error)
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("update affiliation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	aff.Status = status
	aff.RespondedAt = &now
	if status == models.AffiliationAccepted {
		aff.AffiliatedAt = &now
	}
	metrics.RecordTransition("affiliation", models.AffiliationPending, status)

	player, err := s.loadUser(ctx, aff.PlayerID)
	if err != nil {
		logger.Log.Warn("Affiliation player missing for notification", zap.String("affiliation_id", aff.ID), zap.Error(err))
		return &aff, nil
	}

	playerName := player.FullName()
	in := notifications.Input{
		UserID: aff.AgentID,
		Metadata: models.JSONMap{
			"affiliationId": aff.ID,
			"playerId":      aff.PlayerID,
			"playerName":    playerName,
		},
	}
	if status == models.AffiliationAccepted {
		in.Type = notifications.TypeAffiliationAccepted
		in.Title = "Richiesta di affiliazione accettata"
		in.Message = fmt.Sprintf("%s ha accettato la tua richiesta di affiliazione.", playerName)
	} else {
		in.Type = notifications.TypeAffiliationRejected
		in.Title = "Richiesta di affiliazione rifiutata"
		in.Message = fmt.Sprintf("%s ha rifiutato la tua richiesta di affiliazione.", playerName)
	}
	s.notify(ctx, in)

	return &aff, nil
}

// Remove deletes an affiliation on behalf of one of its parties. Only the
// player may block the agent while removing.
func (s *Service) Remove(ctx context.Context, id string, actor Actor, block bool) (bool, error) {
	var aff models.Affiliation
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&aff).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, err
	}

	byPlayer := actor.PlayerID != "" && actor.PlayerID == aff.PlayerID
	byAgent := !byPlayer && actor.AgentID != "" && actor.AgentID == aff.AgentID
	if !byPlayer && !byAgent {
		return false, ErrNotOwner
	}
	if block && !byPlayer {
		return false, ErrNotOwner
	}

	to := "removed"
	if block {
		to = models.AffiliationBlocked
	}
	ctx, span := telemetry.GetBusinessEvents().TraceTransition(ctx, "affiliation", aff.ID, aff.Status, to)
	defer span.End()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if block {
			ba := &models.BlockedAgent{
				PlayerID: aff.PlayerID,
				AgentID:  aff.AgentID,
				Reason:   "Blocked by player",
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(ba).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Affiliation{}, "id = ?", aff.ID).Error
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return false, fmt.Errorf("remove affiliation: %w", err)
	}

	metrics.RecordTransition("affiliation", aff.Status, to)

	if aff.Status == models.AffiliationAccepted {
		s.notifyRemoved(ctx, &aff, byPlayer)
	}
	return block, nil
}

func (s *Service) notifyRemoved(ctx context.Context, aff *models.Affiliation, byPlayer bool) {
	remover := aff.AgentID
	if byPlayer {
		remover = aff.PlayerID
	}
	user, err := s.loadUser(ctx, remover)
	if err != nil {
		logger.Log.Warn("Affiliation remover missing for notification", zap.String("affiliation_id", aff.ID), zap.Error(err))
		return
	}
	name := user.FullName()

	in := notifications.Input{
		Type:    notifications.TypeAffiliationRemoved,
		Title:   "Affiliazione terminata",
		Message: fmt.Sprintf("%s ha terminato l'affiliazione con te.", name),
	}
	if byPlayer {
		in.UserID = aff.AgentID
		in.Metadata = models.JSONMap{"affiliationId": aff.ID, "playerId": aff.PlayerID, "playerName": name}
	} else {
		in.UserID = aff.PlayerID
		in.Metadata = models.JSONMap{"affiliationId": aff.ID, "agentId": aff.AgentID, "agentName": name}
	}
	s.notify(ctx, in)
}

// ListBlocked returns blocked-agent rows filtered by either side
func (s *Service) ListBlocked(ctx context.Context, playerID, agentID string) ([]models.BlockedAgent, error) {
	q := s.db.WithContext(ctx).Preload("Agent")
	if playerID != "" {
		q = q.Where("player_id = ?", playerID)
	}
	if agentID != "" {
		q = q.Where("agent_id = ?", agentID)
	}

	var rows []models.BlockedAgent
	if err := q.Order("blocked_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list blocked agents: %w", err)
	}
	return rows, nil
}

// Block prevents agentID from sending requests to playerID
func (s *Service) Block(ctx context.Context, playerID, agentID, reason string) (*models.BlockedAgent, error) {
	if playerID == "" || agentID == "" {
		return nil, ErrMissingFields
	}

	blocked, err := s.IsBlocked(ctx, playerID, agentID)
	if err != nil {
		return nil, err
	}
	if blocked {
		return nil, ErrAlreadyBlocked
	}

	ba := &models.BlockedAgent{PlayerID: playerID, AgentID: agentID, Reason: reason}
	if err := s.db.WithContext(ctx).Create(ba).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyBlocked
		}
		return nil, fmt.Errorf("block agent: %w", err)
	}
	return ba, nil
}

// Unblock removes a block
func (s *Service) Unblock(ctx context.Context, playerID, agentID string) error {
	if playerID == "" || agentID == "" {
		return ErrMissingFields
	}
	res := s.db.WithContext(ctx).
		Where("player_id = ? AND agent_id = ?", playerID, agentID).
		Delete(&models.BlockedAgent{})
	if res.Error != nil {
		return fmt.Errorf("unblock agent: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrBlockNotFound
	}
	return nil
}
