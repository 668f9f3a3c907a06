package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_StatusMapping(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:   http.StatusBadRequest,
		CodeNotFound:     http.StatusNotFound,
		CodeAlreadyExist: http.StatusConflict,
		CodeBusinessRule: http.StatusUnprocessableEntity,
		CodeDatabase:     http.StatusInternalServerError,
		CodeServer:       http.StatusInternalServerError,
		CodeForbidden:    http.StatusForbidden,
		Code("UNKNOWN"):  http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, New(code, "x").HTTPStatus, string(code))
	}
}

func TestNotFound_Details(t *testing.T) {
	err := NotFound("artist", uint(7))
	assert.Equal(t, CodeNotFound, err.Code)
	assert.Equal(t, "artist", err.Details["resource"])
	assert.Equal(t, uint(7), err.Details["id"])
}

func TestDatabase_KeepsCause(t *testing.T) {
	cause := errors.New("connection reset by peer")
	err := Database("artist.accept", cause)

	assert.Equal(t, CodeDatabase, err.Code)
	assert.ErrorIs(t, err, cause)
	assert.NotContains(t, err.Message, "connection reset")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAs_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", BusinessRule("nope"))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, CodeBusinessRule, appErr.Code)
	assert.True(t, Is(wrapped, CodeBusinessRule))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Code(""), CodeOf(nil))
	assert.Equal(t, CodeServer, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeValidation, CodeOf(Validation("bad")))
}

func TestForbidden_ListsMissing(t *testing.T) {
	err := Forbidden([]string{"artist.accept"})
	assert.Equal(t, http.StatusForbidden, err.HTTPStatus)
	assert.Equal(t, []string{"artist.accept"}, err.Details["missing"])
}
