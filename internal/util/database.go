package util

import (
	stderrors "errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// HandleDBError handles database errors and sends appropriate HTTP responses.
// Returns true if the error was handled (and a response was sent).
func HandleDBError(c *gin.Context, err error, resourceName string) bool {
	if err == nil {
		return false
	}

	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		RespondNotFound(c, resourceName)
		return true
	}

	logger.Log.Error("Database error",
		zap.String("resource", resourceName),
		zap.Error(err),
	)
	RespondInternalError(c, "failed to process "+resourceName)
	return true
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	return stderrors.Is(err, gorm.ErrDuplicatedKey)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// EscapeLike escapes LIKE wildcards in s using backslash.
func EscapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// ContainsPattern turns free text into a lowercase LIKE pattern matching it
// anywhere. Wildcards in the input match literally, so the clause using it
// must declare ESCAPE '\'.
func ContainsPattern(s string) string {
	return "%" + EscapeLike(strings.ToLower(strings.TrimSpace(s))) + "%"
}
