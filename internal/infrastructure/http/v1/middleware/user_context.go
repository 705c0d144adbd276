package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "recipecost/internal/core/context"
)

// HeaderUserName names the caller when no bearer token was presented.
const HeaderUserName = "X-User-Name"

// UserContext fills in a display name for anonymous callers.
//
// It must run AFTER Auth/OptionalAuth. A token-authenticated user is left as is;
// otherwise the X-User-Name header, when present, becomes the changedBy name
// recorded on history snapshots and quotations.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if appctx.GetUser(c.Request.Context()) != nil {
			c.Next()
			return
		}

		if name := strings.TrimSpace(c.GetHeader(HeaderUserName)); name != "" {
			setUser(c, &appctx.UserContext{DisplayName: name})
		}
		c.Next()
	}
}
