package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/auth"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"github.com/stretchr/testify/assert"
)

func authRouter(validator auth.TokenValidator, required bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger.InitializeForTest()

	router := gin.New()
	router.Use(OptionalAuth(validator, required))
	router.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString("user_id")})
	})
	return router
}

func TestOptionalAuth(t *testing.T) {
	validator := auth.NewMockTokenValidator()
	validator.Add("good-token", "user-1")

	cases := []struct {
		name     string
		required bool
		header   string
		query    string
		status   int
		body     string
	}{
		{name: "anonymous allowed", status: http.StatusOK, body: `"userId":""`},
		{name: "anonymous rejected when required", required: true, status: http.StatusUnauthorized, body: `"UNAUTHORIZED"`},
		{name: "valid header", header: "Bearer good-token", status: http.StatusOK, body: `"userId":"user-1"`},
		{name: "lowercase scheme", header: "bearer good-token", status: http.StatusOK, body: `"userId":"user-1"`},
		{name: "query token for streams", query: "good-token", status: http.StatusOK, body: `"userId":"user-1"`},
		{name: "invalid token", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", status: http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := authRouter(validator, tc.required)
			target := "/me"
			if tc.query != "" {
				target += "?token=" + tc.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			if tc.body != "" {
				assert.Contains(t, w.Body.String(), tc.body)
			}
		})
	}
}

func TestOptionalAuthWithRealService(t *testing.T) {
	svc, err := auth.NewService([]byte("test-secret"))
	assert.NoError(t, err)
	token, _, err := svc.IssueToken("user-42", "a@b.it", 0)
	assert.NoError(t, err)

	router := authRouter(svc, true)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "user-42")
}

func TestRequestAndCorrelationIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger.InitializeForTest()

	router := gin.New()
	router.Use(RequestIDMiddleware(), CorrelationMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"requestId":     RequestID(c),
			"correlationId": CorrelationIDFromContext(c.Request.Context()),
		})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	generated := w.Header().Get(HeaderRequestID)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Header().Get(HeaderCorrelationID))

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	req.Header.Set(HeaderCorrelationID, "flow-9")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
	assert.Contains(t, w.Body.String(), `"correlationId":"flow-9"`)
}
