package handlers

import (
	"net/http"
	"net/http/httptest"

	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/realtime"
)

func (s *HandlersTestSuite) postNotification(userID, notificationType string, metadata map[string]interface{}) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, "/api/v1/notifications", map[string]interface{}{
		"userId":   userID,
		"type":     notificationType,
		"title":    "Titolo",
		"message":  "Messaggio",
		"metadata": metadata,
	})
}

func (s *HandlersTestSuite) TestNotificationLifecycle() {
	user := s.fakeUser(models.RolePlayer)

	w := s.postNotification(user.ID, notifications.TypeNewOpportunity, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var item notifications.Item
	s.decode(w, &item)
	s.False(item.Read)
	s.Require().NotNil(item.Destination)
	s.Equal("/opportunities", *item.Destination)

	w = s.postNotification(user.ID, notifications.TypeMessageReceived, map[string]interface{}{"fromUserId": "abc"})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/v1/notifications", map[string]string{"userId": user.ID, "type": notifications.TypeNewFollower})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/v1/notifications?userId="+user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var list []notifications.Item
	s.decode(w, &list)
	s.Require().Len(list, 1, "message notifications are excluded by default")

	w = s.do(http.MethodGet, "/api/v1/notifications?userId="+user.ID+"&includeMessages=true", nil)
	s.decode(w, &list)
	s.Len(list, 2)

	w = s.do(http.MethodGet, "/api/v1/notifications/unread-count?userId="+user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var unread dto.UnreadCountResponse
	s.decode(w, &unread)
	s.Equal(int64(1), unread.Count)

	w = s.do(http.MethodPut, "/api/v1/notifications", map[string]interface{}{"id": item.ID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var marked dto.MarkReadResponse
	s.decode(w, &marked)
	s.True(marked.Success)
	s.Require().NotNil(marked.Notification)
	s.True(marked.Notification.Read)

	w = s.do(http.MethodGet, "/api/v1/notifications?userId="+user.ID+"&unreadOnly=true", nil)
	s.decode(w, &list)
	s.Empty(list)

	w = s.do(http.MethodPut, "/api/v1/notifications", map[string]interface{}{"id": item.ID, "read": false})
	s.Require().Equal(http.StatusOK, w.Code)
	w = s.do(http.MethodPut, "/api/v1/notifications", map[string]interface{}{"markAllAsRead": true, "userId": user.ID})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &marked)
	s.Equal(int64(2), marked.MarkedCount)

	w = s.do(http.MethodPut, "/api/v1/notifications", map[string]interface{}{"id": "missing"})
	s.Equal(http.StatusNotFound, w.Code)
	w = s.do(http.MethodPut, "/api/v1/notifications", map[string]interface{}{})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/notifications?id="+item.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var deleted dto.DeleteNotificationsResponse
	s.decode(w, &deleted)
	s.Equal(int64(1), deleted.DeletedCount)

	w = s.do(http.MethodDelete, "/api/v1/notifications?deleteAll=true&userId="+user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &deleted)
	s.Equal(int64(1), deleted.DeletedCount)
	s.Empty(s.notificationsFor(user.ID))
}

func (s *HandlersTestSuite) TestGroupedNotifications() {
	target := s.fakeUser(models.RolePlayer)
	for _, name := range []string{"Giulia Bassi", "Marco Fontana", "Sara Lombardi"} {
		w := s.postNotification(target.ID, notifications.TypeNewFollower, map[string]interface{}{"followerName": name})
		s.Require().Equal(http.StatusCreated, w.Code)
	}
	w := s.postNotification(target.ID, notifications.TypeProfileVerified, nil)
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodGet, "/api/v1/notifications?userId="+target.ID+"&grouped=true", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var entries []map[string]interface{}
	s.decode(w, &entries)
	s.Require().Len(entries, 2)

	var group map[string]interface{}
	for _, e := range entries {
		if e["type"] == "group" {
			group = e
		}
	}
	s.Require().NotNil(group, w.Body.String())
	s.Equal(notifications.TypeNewFollower, group["notificationType"])
	s.EqualValues(3, group["count"])
	s.Equal(true, group["hasUnread"])
}

func (s *HandlersTestSuite) TestNotificationPreferences() {
	user := s.fakeUser(models.RoleCoach)

	w := s.do(http.MethodGet, "/api/v1/notification-preferences?userId="+user.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var prefs dto.PreferencesResponse
	s.decode(w, &prefs)
	s.Len(prefs.Preferences, len(notifications.Categories))
	s.True(prefs.Preferences["follower"])

	w = s.do(http.MethodPost, "/api/v1/notification-preferences", map[string]interface{}{
		"userId": user.ID, "preferences": map[string]bool{"follower": false},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.decode(w, &prefs)
	s.False(prefs.Preferences["follower"])
	s.True(prefs.Preferences["messages"])

	w = s.postNotification(user.ID, notifications.TypeNewFollower, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var skipped dto.SkippedNotificationResponse
	s.decode(w, &skipped)
	s.True(skipped.Skipped)
	s.Equal(notifications.SkipReasonDisabled, skipped.Reason)
	s.Empty(s.notificationsFor(user.ID))

	w = s.do(http.MethodPost, "/api/v1/notification-preferences", map[string]interface{}{
		"userId": user.ID, "preferences": map[string]bool{"newsletter": true},
	})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodGet, "/api/v1/notification-preferences", nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlersTestSuite) TestStreamStats() {
	user := s.fakeUser(models.RolePlayer)
	client := s.hub.Register(user.ID, realtime.TransportSSE)
	defer s.hub.Unregister(client)

	w := s.do(http.MethodGet, "/api/v1/notifications/stream/stats", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var stats realtime.Stats
	s.decode(w, &stats)
	s.Equal(1, stats.TotalClients)
	s.Equal(1, stats.ClientsByUser[user.ID])
}

func (s *HandlersTestSuite) TestNotificationsAreScopedToTokenOwner() {
	owner := s.fakeUser(models.RolePlayer)
	other := s.fakeUser(models.RoleAgent)
	s.tokens.Add("owner-token", owner.ID)
	s.tokens.Add("other-token", other.ID)

	w := s.postNotification(owner.ID, notifications.TypeNewOpportunity, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var item notifications.Item
	s.decode(w, &item)

	w = s.request(http.MethodPut, "/api/v1/notifications", map[string]interface{}{"id": item.ID}, "other-token")
	s.Equal(http.StatusNotFound, w.Code, w.Body.String())

	w = s.request(http.MethodDelete, "/api/v1/notifications?id="+item.ID, nil, "other-token")
	s.Equal(http.StatusNotFound, w.Code, w.Body.String())

	stored := s.notificationsFor(owner.ID)
	s.Require().Len(stored, 1)
	s.False(stored[0].Read)

	w = s.request(http.MethodPut, "/api/v1/notifications", map[string]interface{}{"id": item.ID}, "owner-token")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.request(http.MethodDelete, "/api/v1/notifications?id="+item.ID, nil, "owner-token")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Empty(s.notificationsFor(owner.ID))
}
