package fault

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPredicates(t *testing.T) {
	assert.True(t, IsUnauthorized(NewUnauthorized("nope")))
	assert.True(t, IsNotFound(NewNotFound("gone", nil)))
	assert.True(t, IsValidation(NewValidation("bad input")))
	assert.True(t, IsInternal(NewInternal("boom", errors.New("cause"))))

	assert.False(t, IsUnauthorized(errors.New("plain")))
	assert.False(t, IsNotFound(NewValidation("bad input")))
}

func TestIsNotFound_Sentinel(t *testing.T) {
	assert.True(t, IsNotFound(ErrNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("get row: %w", ErrNotFound)))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(NewUnauthorized("nope")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NewNotFound("gone", nil)))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(NewValidation("bad")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(NewInternal("boom", nil)))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("wrapped: %w", ErrNotFound)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := NewInternal("boom", cause)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "root cause")
	assert.Contains(t, err.Error(), "[Internal]")
}
