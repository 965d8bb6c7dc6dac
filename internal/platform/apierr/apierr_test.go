package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	base := errors.New("drive down")
	wrapped := fmt.Errorf("provision: %w", New(http.StatusBadGateway, "provision_failed", base))

	got := From(wrapped)
	assert.Equal(t, http.StatusBadGateway, got.Status)
	assert.Equal(t, "provision_failed", got.Code)
	assert.ErrorIs(t, got, base)

	plain := From(base)
	assert.Equal(t, http.StatusInternalServerError, plain.Status)
	assert.Equal(t, "internal", plain.Code)
}

func TestErrorMessage(t *testing.T) {
	var nilErr *Error
	assert.Equal(t, "", nilErr.Error())
	assert.Equal(t, "conflict", New(409, "conflict", nil).Error())
	assert.Equal(t, "api error (418)", New(418, "", nil).Error())
}
