package notifications

import (
	"strings"

	"github.com/simolima/sportlink-demo-sub001/internal/models"
)

// Destination returns the app path a notification opens, or nil when it has
// no specific target.
func Destination(notificationType string, metadata models.JSONMap) *string {
	path := destination(notificationType, metadata)
	if path == "" {
		return nil
	}
	return &path
}

func destination(t string, md models.JSONMap) string {
	switch t {
	case TypeAffiliationRequest:
		return "/player/affiliations"

	case TypeAffiliationAccepted, TypeAffiliationRejected:
		return "/agent/affiliations"

	case TypeAffiliationRemoved:
		// playerId is set when the agent is the recipient
		if md.String("playerId") != "" {
			return "/agent/affiliations"
		}
		return ""

	case TypeClubJoinRequest, TypeClubJoinAccepted, TypeClubJoinRejected:
		return "/clubs"

	case TypeNewFollower:
		if id := md.FirstString("fromUserId", "followerId"); id != "" {
			return "/profile/" + id
		}
		return ""

	case TypeMessageReceived:
		if id := md.FirstString("conversationId", "fromUserId"); id != "" {
			return "/messages/" + id
		}
		return "/messages"

	case TypeNewApplication, TypeApplicationReceived:
		return "/club-applications"

	case TypeCandidacyAccepted, TypeCandidacyRejected, TypeApplicationStatusChanged:
		return "/my-applications"

	case TypeNewOpportunity:
		if id := md.String("opportunityId"); id != "" {
			return "/opportunities/" + id
		}
		return "/opportunities"

	case TypePermissionGranted, TypePermissionRevoked:
		if id := md.String("clubId"); id != "" {
			return "/clubs/" + id
		}
		return ""

	case TypeProfileVerified:
		if id := md.FirstString("fromUserId", "verifierId"); id != "" {
			return "/profile/" + id
		}
		return ""

	case TypeAddedToFavorites:
		if id := md.FirstString("fromUserId", "userId"); id != "" {
			return "/profile/" + id
		}
		return ""
	}

	if strings.HasPrefix(t, "club_") {
		return "/clubs"
	}
	return ""
}
