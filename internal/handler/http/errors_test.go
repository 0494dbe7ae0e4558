package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httphandler "geek-ludo/internal/handler/http"
	"geek-ludo/internal/service"
)

func TestHandleServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	testCases := []struct {
		err  error
		want int
	}{
		{service.ErrInvalidJoin, http.StatusBadRequest},
		{fmt.Errorf("unknown color %q: %w", "pink", service.ErrInvalidColor), http.StatusBadRequest},
		{service.ErrIncompleteVerdict, http.StatusBadRequest},
		{service.ErrNotYourTurn, http.StatusForbidden},
		{service.ErrNotJoined, http.StatusNotFound},
		{service.ErrNoReview, http.StatusNotFound},
		{service.ErrAlreadyVoted, http.StatusConflict},
		{service.ErrRequestInFlight, http.StatusConflict},
		{fmt.Errorf("send join_game: broken pipe: %w", service.ErrDisconnected), http.StatusServiceUnavailable},
		{service.ErrJournalUnavailable, http.StatusServiceUnavailable},
		{service.ErrEngineStopped, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			httphandler.HandleServiceError(c, tc.err)

			assert.Equal(t, tc.want, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
		})
	}
}
