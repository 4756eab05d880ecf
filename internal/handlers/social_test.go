package handlers

import (
	"net/http"

	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/notifications"
	"github.com/simolima/sportlink-demo-sub001/internal/realtime"
)

func (s *HandlersTestSuite) createPost(author *models.User, content string) models.Post {
	w := s.do(http.MethodPost, "/api/v1/posts", map[string]string{"authorId": author.ID, "content": content})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var p models.Post
	s.decode(w, &p)
	return p
}

func (s *HandlersTestSuite) TestPostsLikesAndComments() {
	author := s.fakeUser(models.RolePlayer)
	fan := s.fakeUser(models.RoleCoach)
	post := s.createPost(author, "Primo gol in Serie C!")

	w := s.do(http.MethodPost, "/api/v1/posts", map[string]string{"authorId": author.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/likes", map[string]string{"postId": post.ID, "userId": fan.ID})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var toggle dto.LikeToggleResponse
	s.decode(w, &toggle)
	s.Equal(dto.LikeActionLiked, toggle.Action)
	s.Equal(int64(1), toggle.Count)

	w = s.do(http.MethodPost, "/api/v1/comments", map[string]string{"postId": post.ID, "authorId": fan.ID, "content": "Grande!"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	w = s.do(http.MethodPost, "/api/v1/comments", map[string]string{"postId": "missing", "authorId": fan.ID, "content": "?"})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodGet, "/api/v1/posts?authorId="+author.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var posts []models.Post
	s.decode(w, &posts)
	s.Require().Len(posts, 1)
	s.Equal(int64(1), posts[0].LikesCount)
	s.Equal(int64(1), posts[0].CommentsCount)

	w = s.do(http.MethodGet, "/api/v1/likes?postId="+post.ID, nil)
	var likes dto.LikesResponse
	s.decode(w, &likes)
	s.Equal(int64(1), likes.Count)

	w = s.do(http.MethodPost, "/api/v1/likes", map[string]string{"postId": post.ID, "userId": fan.ID})
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &toggle)
	s.Equal(dto.LikeActionUnliked, toggle.Action)
	s.Equal(int64(0), toggle.Count)

	w = s.do(http.MethodGet, "/api/v1/comments?postId="+post.ID, nil)
	var comments []models.Comment
	s.decode(w, &comments)
	s.Require().Len(comments, 1)
	s.Equal("Grande!", comments[0].Content)
}

func (s *HandlersTestSuite) TestFollowNotifiesTarget() {
	follower := s.createUser(models.RoleAgent, "Franco", "Neri")
	target := s.fakeUser(models.RolePlayer)

	w := s.do(http.MethodPost, "/api/v1/follows", map[string]string{"followerId": follower.ID, "followingId": follower.ID})
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/follows", map[string]string{"followerId": follower.ID, "followingId": "nobody"})
	s.Equal(http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/v1/follows", map[string]string{"followerId": follower.ID, "followingId": target.ID})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	n := s.lastNotification(target.ID)
	s.Equal(notifications.TypeNewFollower, n.Type)
	s.Equal("Franco Neri ha iniziato a seguirti.", n.Message)
	s.Equal(follower.ID, n.Metadata["followerId"])
	s.Equal("Franco Neri", n.Metadata["followerName"])

	w = s.do(http.MethodPost, "/api/v1/follows", map[string]string{"followerId": follower.ID, "followingId": target.ID})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/v1/follows?followingId="+target.ID, nil)
	var follows []models.Follow
	s.decode(w, &follows)
	s.Len(follows, 1)

	w = s.do(http.MethodDelete, "/api/v1/follows?followerId="+follower.ID+"&followingId="+target.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var removed map[string]int64
	s.decode(w, &removed)
	s.Equal(int64(1), removed["removed"])
}

func (s *HandlersTestSuite) TestMessagingThreadAndConversations() {
	anna := s.createUser(models.RolePlayer, "Anna", "Riva")
	bruno := s.createUser(models.RoleCoach, "Bruno", "Sala")
	carla := s.createUser(models.RoleAgent, "Carla", "Tosi")

	send := func(from, to *models.User, text string) models.Message {
		w := s.do(http.MethodPost, "/api/v1/messages", map[string]string{"senderId": from.ID, "receiverId": to.ID, "text": text})
		s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
		var m models.Message
		s.decode(w, &m)
		return m
	}

	first := send(bruno, anna, "  Ciao Anna  ")
	s.Equal("Ciao Anna", first.Text)
	send(anna, bruno, "Ciao Bruno")
	send(carla, anna, "Hai un agente?")

	w := s.do(http.MethodPost, "/api/v1/messages", map[string]string{"senderId": anna.ID, "receiverId": bruno.ID, "text": "   "})
	s.Equal(http.StatusBadRequest, w.Code)

	n := s.lastNotification(anna.ID)
	s.Equal(notifications.TypeMessageReceived, n.Type)
	s.Equal(carla.ID, n.Metadata["conversationId"])
	s.Equal("Carla Tosi", n.Metadata["fromUserName"])

	w = s.do(http.MethodGet, "/api/v1/messages?userId="+anna.ID+"&peerId="+bruno.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var thread []models.Message
	s.decode(w, &thread)
	s.Require().Len(thread, 2)
	s.Equal("Ciao Anna", thread[0].Text)

	s.hub.Register(carla.ID, realtime.TransportSSE)
	w = s.do(http.MethodGet, "/api/v1/messages?userId="+anna.ID, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var convs []dto.Conversation
	s.decode(w, &convs)
	s.Require().Len(convs, 2)
	s.Equal(carla.ID, convs[0].PeerID)
	s.Equal(1, convs[0].UnreadCount)
	s.Require().NotNil(convs[0].Peer)
	s.True(convs[0].Online)
	s.Equal(bruno.ID, convs[1].PeerID)
	s.Equal(1, convs[1].UnreadCount)
	s.False(convs[1].Online)

	w = s.do(http.MethodPatch, "/api/v1/messages", map[string]string{"userId": anna.ID, "peerId": bruno.ID})
	s.Require().Equal(http.StatusOK, w.Code)
	var updated map[string]int64
	s.decode(w, &updated)
	s.Equal(int64(1), updated["updated"])

	w = s.do(http.MethodPatch, "/api/v1/messages", map[string]interface{}{})
	s.Equal(http.StatusBadRequest, w.Code)
}
