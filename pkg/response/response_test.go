package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wiz-rd/Rummikub/internal/game"
	"github.com/wiz-rd/Rummikub/internal/game/rummikub"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int
		errStr string
	}{
		{"game not found", game.ErrGameNotFound, http.StatusNotFound, CodeGameNotFound, game.CodeGameNotFound},
		{"busy with cause", game.ErrGameBusy.WithCause(errors.New("lock held")), http.StatusConflict, CodeGameBusy, game.CodeGameBusy},
		{"out of turn", rummikub.ErrOutOfTurn.WithContext("turnIndex", 3), http.StatusConflict, CodeOutOfTurn, rummikub.CodeOutOfTurn},
		{"meld too few keeps own code", rummikub.ErrMeldTooFew, http.StatusUnprocessableEntity, CodeMeldTooFew, rummikub.CodeMeldTooFew},
		{"wrapped", fmt.Errorf("apply: %w", rummikub.ErrHandMismatch), http.StatusUnprocessableEntity, CodeHandMismatch, rummikub.CodeHandMismatch},
		{"config", rummikub.ErrConfig, http.StatusBadRequest, CodeConfigError, rummikub.CodeConfigError},
		{"player", rummikub.ErrPlayerNotFound, http.StatusForbidden, CodePlayerNotInGame, rummikub.CodePlayerNotInGame},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := FromError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, resp.Code)
			data, ok := resp.Data.(ErrorData)
			require.True(t, ok)
			assert.Equal(t, tt.errStr, data.Error)
		})
	}
}

func TestFromError_Internal(t *testing.T) {
	for _, err := range []error{errors.New("boom"), rummikub.ErrInvariantViolation} {
		status, resp := FromError(err)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, CodeServerError, resp.Code)
		assert.Nil(t, resp.Data)
	}
}

func TestErrorFromErr_WritesEnvelope(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	ErrorFromErr(c, rummikub.ErrOutOfTurn.WithContext("currentSlot", 2))

	assert.Equal(t, http.StatusConflict, w.Code)

	var body struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Error   string         `json:"error"`
			Context map[string]any `json:"context"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CodeOutOfTurn, body.Code)
	assert.Equal(t, rummikub.CodeOutOfTurn, body.Data.Error)
	assert.Equal(t, float64(2), body.Data.Context["currentSlot"])
}

func TestSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, gin.H{"id": "g1"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"id":"g1"}}`, w.Body.String())
}
