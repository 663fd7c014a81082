package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error", cause, Internal},
		{"direct", E(Forbidden, "nope", nil), Forbidden},
		{"wrapped", fmt.Errorf("handler: %w", E(Upstream, "weather down", cause)), Upstream},
		{"nil", nil, Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := E(Upstream, "forecast service unavailable", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "forecast service unavailable: connection refused", err.Error())
	assert.Equal(t, "forecast service unavailable", Message(err, "fallback"))
	assert.Equal(t, "fallback", Message(cause, "fallback"))
}
