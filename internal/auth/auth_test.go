package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	token, expires, err := issuer.MakeToken(&Staff{ID: "staff-1", OrgID: "org-1", Role: "admin"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := issuer.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "staff-1", claims.StaffID)
	assert.Equal(t, "org-1", claims.OrgID)
	assert.Equal(t, "admin", claims.Role)
}

func TestIssuer_RejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Minute)
	token, _, err := issuer.MakeToken(&Staff{ID: "staff-1", OrgID: "org-1"})
	require.NoError(t, err)

	issuer.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = issuer.ParseToken(token)
	assert.True(t, errors.Is(err, ErrBadToken))

	other := NewIssuer("other-secret", time.Hour)
	_, err = other.ParseToken(token)
	assert.ErrorIs(t, err, ErrBadToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{StaffID: "x", OrgID: "y"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = NewIssuer("test-secret", time.Hour).ParseToken(none)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestIssuer_RequiresOrgClaim(t *testing.T) {
	issuer := NewIssuer("test-secret", time.Hour)
	token, _, err := issuer.MakeToken(&Staff{ID: "staff-1"})
	require.NoError(t, err)
	_, err = issuer.ParseToken(token)
	assert.ErrorIs(t, err, ErrBadToken)
}

func TestIssuer_NoSecret(t *testing.T) {
	issuer := NewIssuer("", time.Hour)
	_, _, err := issuer.MakeToken(&Staff{ID: "staff-1", OrgID: "org-1"})
	assert.Error(t, err)
	_, err = issuer.ParseToken("anything")
	assert.ErrorIs(t, err, ErrBadToken)
}
