package util

import (
	"github.com/gin-gonic/gin"
	"github.com/simolima/sportlink-demo-sub001/internal/errors"
)

// AuthUserID returns the user id set by the auth middleware, if any.
func AuthUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}

// ResolveActor picks the acting user for a request. An authenticated caller
// is always the actor; a supplied id that disagrees is rejected. Without a
// token the supplied id is trusted.
func ResolveActor(c *gin.Context, supplied string) (string, error) {
	authID, ok := AuthUserID(c)
	if !ok {
		return supplied, nil
	}
	if supplied != "" && supplied != authID {
		return "", errors.Forbidden("acting user does not match the authenticated user")
	}
	return authID, nil
}
