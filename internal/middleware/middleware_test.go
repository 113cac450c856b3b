package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"civic_reporter/internal/model"
	"civic_reporter/internal/xerrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeResolver struct {
	sessions map[string]*model.Session
	err      error
}

func (f fakeResolver) Current(_ context.Context, token string) (*model.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions[token], nil
}

var testSessions = map[string]*model.Session{
	"citizen-token": {ID: "1", Role: model.RoleCitizen},
	"admin-token":   {ID: "2", Role: model.RoleAdmin},
	"muni-token":    {ID: "3", Role: model.RoleMunicipality, Municipality: model.MunicipalityRanchi},
}

func newRouter(resolver SessionResolver, guardMW gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RecoveryMiddleware(zap.NewNop()), SessionMiddleware(resolver, zap.NewNop()))
	r.GET("/area", guardMW, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"role": CurrentSession(c).Role, "token": BearerToken(c)})
	})
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func body(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestRoleMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		mw       gin.HandlerFunc
		token    string
		status   int
		redirect string
	}{
		{"citizen allowed", CitizenMiddleware(), "citizen-token", http.StatusOK, ""},
		{"admin allowed", AdminMiddleware(), "admin-token", http.StatusOK, ""},
		{"municipality allowed", MunicipalityMiddleware(), "muni-token", http.StatusOK, ""},
		{"no session", AdminMiddleware(), "", http.StatusUnauthorized, "/login/admin"},
		{"unknown token", MunicipalityMiddleware(), "stale", http.StatusUnauthorized, "/login/municipality"},
		{"citizen into admin", AdminMiddleware(), "citizen-token", http.StatusForbidden, "/login/admin"},
		{"admin into citizen", CitizenMiddleware(), "admin-token", http.StatusForbidden, "/login/citizen"},
		{"municipality into admin", AdminMiddleware(), "muni-token", http.StatusForbidden, "/login/admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRouter(fakeResolver{sessions: testSessions}, tt.mw)
			w := get(r, "/area", tt.token)
			assert.Equal(t, tt.status, w.Code)

			b := body(t, w)
			if tt.redirect == "" {
				assert.Equal(t, tt.token, b["token"])
				return
			}
			assert.Equal(t, false, b["success"])
			assert.Equal(t, map[string]any{"redirect": tt.redirect}, b["data"])
		})
	}
}

func TestSessionMiddleware_BackendDown(t *testing.T) {
	r := newRouter(fakeResolver{err: xerrors.Wrap(xerrors.ErrBackendUnavailable, assert.AnError)}, AdminMiddleware())

	w := get(r, "/area", "admin-token")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, string(xerrors.KindBackendUnavailable), body(t, w)["error"])

	// anonymous requests never touch the store
	assert.Equal(t, http.StatusUnauthorized, get(r, "/area", "").Code)
}

func TestExtractToken(t *testing.T) {
	for header, want := range map[string]string{
		"Bearer abc":   "abc",
		"bearer  abc ": "abc",
		"Basic abc":    "",
		"Bearer":       "",
		"Bearer a b":   "",
		"":             "",
	} {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set("Authorization", header)
		assert.Equal(t, want, extractToken(c), header)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	r := newRouter(fakeResolver{}, AdminMiddleware())
	w := get(r, "/panic", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, string(xerrors.KindInternal), body(t, w)["error"])
}

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := gin.New()
	r.Use(SessionMiddleware(fakeResolver{sessions: testSessions}, zap.NewNop()), LoggingMiddleware(zap.New(core)))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	get(r, "/ok", "admin-token")
	get(r, "/missing", "")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, "admin", entries[0].ContextMap()["role"])
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.EqualValues(t, http.StatusNotFound, entries[1].ContextMap()["status"])
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
