package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimit(t *testing.T) {
	testCases := []struct {
		input    string
		expected int
	}{
		{"", 20},
		{"10", 10},
		{"0", 20},
		{"-5", 20},
		{"500", 100},
		{"abc", 20},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLimit(tc.input, 20, 100))
		})
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2026-03-01T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, 8, d.Hour())

	_, err = ParseDate("01/03/2026")
	assert.Error(t, err)
}

func TestSplitCSV(t *testing.T) {
	assert.Equal(t, []string{"Calcio", "Basket"}, SplitCSV(" Calcio, ,Basket "))
	assert.Equal(t, []string{}, SplitCSV(""))
}

func TestIsValidImageFile(t *testing.T) {
	assert.True(t, IsValidImageFile("avatar.JPG"))
	assert.True(t, IsValidImageFile("logo.webp"))
	assert.False(t, IsValidImageFile("cv.pdf"))
	assert.Equal(t, "image/png", ImageContentType("a.png"))
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%milano%", ContainsPattern("  Milano "))
	assert.Equal(t, `%100\% sicuro%`, ContainsPattern("100% sicuro"))
	assert.Equal(t, `%a\_b\\c%`, ContainsPattern(`A_b\c`))
}

func TestResolveActor(t *testing.T) {
	gin.SetMode(gin.TestMode)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	actor, err := ResolveActor(c, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", actor)

	c.Set("user_id", "user-2")
	actor, err = ResolveActor(c, "")
	require.NoError(t, err)
	assert.Equal(t, "user-2", actor)

	_, err = ResolveActor(c, "user-1")
	assert.Error(t, err)
}
