package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	err := New(ErrQueryRequired)
	assert.Equal(t, "Query parameter is required", err.Message)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Equal(t, "[2000] Query parameter is required", err.Error())
}

func TestWrap(t *testing.T) {
	cause := stderrors.New("dial tcp: connection refused")

	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, Wrap(nil, ErrSearchAPI))
	})

	t.Run("wraps plain error", func(t *testing.T) {
		err := Wrap(cause, ErrSearchAPI)
		assert.Equal(t, ErrSearchAPI, ExtractCode(err))
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, cause.Error(), GetDetails(err))
	})

	t.Run("keeps existing code", func(t *testing.T) {
		inner := Wrap(cause, ErrSearchUnexpectedFormat)
		outer := Wrap(fmt.Errorf("aggregate: %w", inner), ErrSearchFailed)
		assert.Equal(t, ErrSearchUnexpectedFormat, outer.Code)
	})
}

func TestExtractCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"plain error", stderrors.New("x"), ErrInternalServer},
		{"app error", New(ErrGlobeDataFailed), ErrGlobeDataFailed},
		{"wrapped app error", fmt.Errorf("ctx: %w", New(ErrIdeaSaveFailed)), ErrIdeaSaveFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractCode(tt.err))
		})
	}
}

func TestCodeTable(t *testing.T) {
	assert.False(t, IsServerError(ErrUserInputRequired))
	assert.True(t, IsServerError(ErrModelOutputMalformed))
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(ErrNotFound))
	assert.Equal(t, GetCode(ErrInternalServer), GetCode(999999))
}
