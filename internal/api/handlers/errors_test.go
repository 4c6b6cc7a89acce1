package handlers

import (
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"example.com/bloodbank/services/bank/internal/domain"
)

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusNotFound, statusFor(domain.ErrNotFound))
	require.Equal(t, http.StatusUnprocessableEntity, statusFor(domain.ErrIncompatible))
	require.Equal(t, http.StatusConflict, statusFor(domain.ErrConflict))
	require.Equal(t, http.StatusConflict, statusFor(domain.ErrInvalidState))
	require.Equal(t, http.StatusConflict, statusFor(domain.ErrAlreadyLinked))
	require.Equal(t, http.StatusInternalServerError, statusFor(domain.ErrInconsistent))
	require.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))

	// Wrapped sentinels map the same as bare ones
	require.Equal(t, http.StatusConflict, statusFor(errors.Wrap(domain.ErrConflict, "lost reservation race")))
	require.Equal(t, http.StatusNotFound, statusFor(errors.Wrap(domain.ErrNotFound, "donation unit")))
}
