package middleware

import (
	"net/http"

	"civic_reporter/internal/guard"
	"civic_reporter/internal/model"
	"civic_reporter/internal/response"
	"civic_reporter/internal/xerrors"

	"github.com/gin-gonic/gin"
)

// RoleMiddleware admits only sessions of the given role. Must run after
// SessionMiddleware.
func RoleMiddleware(required model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := guard.Check(required, CurrentSession(c))
		if d.Allowed() {
			c.Next()
			return
		}

		redirect := gin.H{"redirect": d.LoginPath}
		if d.NoSession {
			response.Error(c, http.StatusUnauthorized, "please log in to continue", xerrors.KindAuth, redirect)
			return
		}
		response.Error(c, http.StatusForbidden, "you do not have permission to access this resource", xerrors.KindForbidden, redirect)
	}
}

// CitizenMiddleware guards the citizen area.
func CitizenMiddleware() gin.HandlerFunc {
	return RoleMiddleware(model.RoleCitizen)
}

// AdminMiddleware guards the admin dashboard.
func AdminMiddleware() gin.HandlerFunc {
	return RoleMiddleware(model.RoleAdmin)
}

// MunicipalityMiddleware guards the municipality dashboard.
func MunicipalityMiddleware() gin.HandlerFunc {
	return RoleMiddleware(model.RoleMunicipality)
}
