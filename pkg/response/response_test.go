package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func TestSuccess_WritesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("request_id", "rid-1")

	Success(c, 0, map[string]string{"k": "v"}, "ok", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "rid-1", body["request_id"])
	assert.Equal(t, map[string]any{"k": "v"}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestFail_AbortsWithStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Fail(c, http.StatusConflict, "email already registered", nil)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusConflict, rec.Code)
	var body APIResponse[any]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "email already registered", body.Message)
}
