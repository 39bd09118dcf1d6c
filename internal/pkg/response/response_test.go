package response

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	apperrors "github.com/lk2023060901/app-idea-analyzer/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("client error has no details", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		HandleError(c, apperrors.New(apperrors.ErrQueryRequired), "ignored")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, map[string]any{"error": "Query parameter is required"}, decode(t, w))
	})

	t.Run("server error carries details and query", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		cause := stderrors.New("serpapi: invalid api key")
		HandleError(c, apperrors.Wrap(cause, apperrors.ErrSearchAPI), "todo app")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Error communicating with search API", body["error"])
		assert.Equal(t, "serpapi: invalid api key", body["details"])
		assert.Equal(t, "todo app", body["query"])
	})

	t.Run("plain error maps to internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		HandleError(c, stderrors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "boom", decode(t, w)["details"])
	})
}
