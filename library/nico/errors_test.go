package nico

import (
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"
)

func TestAsRejection(t *testing.T) {
	_, ok := AsRejection(nil)
	require.False(t, ok)

	_, ok = AsRejection(errors.New("plain"))
	require.False(t, ok)

	wrapped := errors.Wrap(newAPIError(300, TranslateStatus(300)), "fetch")
	rej, ok := AsRejection(wrapped)
	require.True(t, ok)
	require.Equal(t, 400, rej.Status)
	require.Equal(t, "Bad Request", rej.Message)
	require.Equal(t, requestErrorDescription, rej.ErrorDescription)
}

func TestConfigurationErrorMessage(t *testing.T) {
	err := &ConfigurationError{Missing: []string{"issuer", "reason"}}
	require.Contains(t, err.Error(), "issuer, reason")
}

func TestOutcome(t *testing.T) {
	require.Equal(t, "ok", outcome(nil))
	require.Equal(t, "transport_error", outcome(newTransportError(503, "x", nil)))
	require.Equal(t, "api_error", outcome(errors.WithStack(newAPIError(101, TranslateStatus(101)))))
	require.Equal(t, "decode_error", outcome(&DecodeError{Line: 1}))
	require.Equal(t, "error", outcome(errors.New("x")))
}
