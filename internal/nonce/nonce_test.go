package nonce

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)

	token, err := issuer.Issue(ScopeScreenshotProxy)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, issuer.Verify(token, ScopeScreenshotProxy))
}

func TestVerifyRejectsWrongScope(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)

	token, err := issuer.Issue("some_other_action")
	require.NoError(t, err)

	err = issuer.Verify(token, ScopeScreenshotProxy)
	require.ErrorIs(t, err, ErrInvalidNonce)
}

func TestVerifyRejectsExpired(t *testing.T) {
	issuer := NewIssuer("test-secret", -time.Minute)

	token, err := issuer.Issue(ScopeScreenshotProxy)
	require.NoError(t, err)

	err = issuer.Verify(token, ScopeScreenshotProxy)
	require.ErrorIs(t, err, ErrInvalidNonce)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		err := issuer.Verify(token, ScopeScreenshotProxy)
		require.ErrorIs(t, err, ErrInvalidNonce)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	other := NewIssuer("other-secret", time.Minute)

	token, err := other.Issue(ScopeScreenshotProxy)
	require.NoError(t, err)

	err = issuer.Verify(token, ScopeScreenshotProxy)
	require.ErrorIs(t, err, ErrInvalidNonce)
}
