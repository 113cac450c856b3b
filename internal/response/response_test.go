package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"civic_reporter/internal/xerrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var res Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	return res
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", xerrors.Validation("name is required"), http.StatusBadRequest, "name is required"},
		{"wrapped not found", fmt.Errorf("find: %w", xerrors.ErrNotFound), http.StatusNotFound, "resource not found"},
		{"conflict", xerrors.ErrStaleVersion, http.StatusConflict, xerrors.ErrStaleVersion.Message},
		{"backend", xerrors.Wrap(xerrors.ErrBackendUnavailable, errors.New("dial tcp 10.0.0.5:5432")), http.StatusServiceUnavailable, "the backend is unavailable"},
		{"raw error", errors.New("pq: relation \"issues\" does not exist"), http.StatusInternalServerError, "failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			FromError(c, zap.NewNop(), tt.err, "failed")

			assert.Equal(t, tt.status, w.Code)
			assert.True(t, c.IsAborted())
			res := decode(t, w)
			assert.False(t, res.Success)
			assert.Equal(t, tt.message, res.Message)
			assert.Equal(t, string(xerrors.KindOf(tt.err)), res.Error)
			assert.NotContains(t, w.Body.String(), "10.0.0.5")
			assert.NotContains(t, w.Body.String(), "relation")
		})
	}
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, 0, "ok", gin.H{"id": 1})

	assert.Equal(t, http.StatusOK, w.Code)
	res := decode(t, w)
	assert.True(t, res.Success)
	assert.Empty(t, res.Error)
	assert.Equal(t, map[string]any{"id": float64(1)}, res.Data)
}

func TestStatusFor_Unknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusFor("mystery"))
	assert.Equal(t, http.StatusTooManyRequests, StatusFor(xerrors.KindRateLimited))
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(xerrors.KindTimeout))
}
