package handlers

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/util"
)

const (
	matchPool       = 100
	matchCandidates = 10
)

// Match scores players against a club's need and returns the best ones
// POST /api/v1/match
func (h *Handlers) Match(c *gin.Context) {
	var need dto.MatchRequest
	if !bindJSON(c, &need) {
		return
	}

	var players []models.User
	err := h.dbc(c).
		Where("role = ?", models.RolePlayer).
		Order("created_at ASC").
		Limit(matchPool).
		Find(&players).Error
	if err != nil {
		util.HandleDBError(c, err, "players")
		return
	}

	c.JSON(http.StatusOK, dto.MatchResponse{Candidates: rankCandidates(need, players, h.now())})
}

// rankCandidates scores every player and keeps the top ones, highest first.
// Ties keep the input order.
func rankCandidates(need dto.MatchRequest, players []models.User, now time.Time) []dto.MatchCandidate {
	out := make([]dto.MatchCandidate, 0, len(players))
	for i := range players {
		out = append(out, scoreCandidate(need, &players[i], now))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > matchCandidates {
		out = out[:matchCandidates]
	}
	return out
}

// scoreCandidate gives 5 points for each age bound met and 10 when the
// player's city contains the wanted one.
func scoreCandidate(need dto.MatchRequest, u *models.User, now time.Time) dto.MatchCandidate {
	cand := dto.MatchCandidate{ID: u.ID, Name: orDefault(u.FullName(), "Athlete"), Why: []string{}}

	if age, ok := u.AgeAt(now); ok {
		if need.AgeMin != nil && age >= *need.AgeMin {
			cand.Score += 5
			cand.Why = append(cand.Why, "age above minimum")
		}
		if need.AgeMax != nil && age <= *need.AgeMax {
			cand.Score += 5
			cand.Why = append(cand.Why, "age below maximum")
		}
	}

	city := strings.ToLower(strings.TrimSpace(need.City))
	if city != "" && u.City != "" && strings.Contains(strings.ToLower(u.City), city) {
		cand.Score += 10
		cand.Why = append(cand.Why, "city match")
	}
	return cand
}
