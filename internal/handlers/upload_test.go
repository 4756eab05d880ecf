package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"

	"github.com/simolima/sportlink-demo-sub001/internal/dto"
	"github.com/simolima/sportlink-demo-sub001/internal/models"
	"github.com/simolima/sportlink-demo-sub001/internal/storage"
)

type fakeUploader struct {
	calls []string
	data  []byte
}

func (f *fakeUploader) UploadImage(_ context.Context, body io.Reader, size int64, filename, userID, kind string) (*storage.UploadResult, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	f.data = b
	key := kind + "s/" + userID + "/" + filename
	f.calls = append(f.calls, key)
	return &storage.UploadResult{Key: key, URL: "https://cdn.sprinta.test/" + key, Size: size}, nil
}

func (s *HandlersTestSuite) upload(fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		s.Require().NoError(mw.WriteField(k, v))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		s.Require().NoError(err)
		_, err = part.Write(content)
		s.Require().NoError(err)
	}
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) TestUploadWithoutStorage() {
	user := s.fakeUser(models.RolePlayer)
	w := s.upload(map[string]string{"userId": user.ID}, "avatar.png", []byte("png"))
	s.Equal(http.StatusServiceUnavailable, w.Code)
}

func (s *HandlersTestSuite) TestUploadImage() {
	fake := &fakeUploader{}
	s.handlers.uploader = fake
	user := s.fakeUser(models.RoleCoach)

	w := s.upload(map[string]string{"userId": user.ID}, "Avatar.PNG", []byte("\x89PNG fake"))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var res dto.UploadResponse
	s.decode(w, &res)
	s.Equal("avatars/"+user.ID+"/Avatar.PNG", res.Key)
	s.Equal(int64(len("\x89PNG fake")), res.Size)
	s.Equal([]byte("\x89PNG fake"), fake.data)

	w = s.upload(map[string]string{"userId": user.ID, "kind": "post"}, "match.webp", []byte("webp"))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.upload(map[string]string{"userId": user.ID, "kind": "banner"}, "x.png", []byte("x"))
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.upload(map[string]string{"userId": user.ID}, "notes.pdf", []byte("%PDF"))
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.upload(map[string]string{"userId": user.ID}, "", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.upload(nil, "x.png", []byte("x"))
	s.Equal(http.StatusBadRequest, w.Code)

	s.Len(fake.calls, 2)
}
