package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jakechorley/clinic-cover/internal/api/response"
	"github.com/jakechorley/clinic-cover/pkg/core/model"
)

const (
	SupervisorIDKey = "supervisor_id"
	RoleKey         = "role"

	SupervisorIDHeader = "X-Supervisor-ID"
	RoleHeader         = "X-Supervisor-Role"
)

// Identity reads the acting supervisor from headers set by the authenticating
// proxy in front of the API. The role defaults to USER.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		supervisorID := strings.TrimSpace(c.GetHeader(SupervisorIDHeader))
		if supervisorID == "" {
			response.Unauthenticated(c, "missing "+SupervisorIDHeader+" header")
			return
		}

		role := model.RoleUser
		if raw := strings.TrimSpace(c.GetHeader(RoleHeader)); raw != "" {
			role = model.Role(strings.ToUpper(raw))
			if !role.IsValid() {
				response.Unauthenticated(c, "unknown role "+raw)
				return
			}
		}

		c.Set(SupervisorIDKey, supervisorID)
		c.Set(RoleKey, role)
		c.Next()
	}
}

// RequireRole rejects callers whose role is not one of roles
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get(RoleKey)
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "insufficient role")
	}
}
