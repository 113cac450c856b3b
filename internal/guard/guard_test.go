package guard

import (
	"testing"

	"civic_reporter/internal/model"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCheck_EveryRolePair(t *testing.T) {
	roles := []model.Role{model.RoleCitizen, model.RoleAdmin, model.RoleMunicipality}

	for _, required := range roles {
		for _, held := range roles {
			t.Run(string(required)+"/"+string(held), func(t *testing.T) {
				d := Check(required, &model.Session{Role: held})
				if required == held {
					assert.True(t, d.Allowed())
					return
				}
				assert.False(t, d.Allowed())
				assert.False(t, d.NoSession)
				assert.Equal(t, LoginPath(required), d.LoginPath)
			})
		}
	}
}

func TestCheck_NoSession(t *testing.T) {
	tests := map[model.Role]string{
		model.RoleCitizen:      "/login/citizen",
		model.RoleAdmin:        "/login/admin",
		model.RoleMunicipality: "/login/municipality",
	}
	for role, path := range tests {
		d := Check(role, nil)
		assert.False(t, d.Allowed())
		assert.True(t, d.NoSession)
		assert.Equal(t, path, d.LoginPath)
	}
}

func TestLoginPath_Unknown(t *testing.T) {
	assert.Equal(t, "/", LoginPath(model.Role("guest")))
}
