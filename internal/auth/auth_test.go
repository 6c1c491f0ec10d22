package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/danmuck/shiftctl/internal/testutil/testlog"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestStaticTokenValidate(t *testing.T) {
	tests := []struct {
		name    string
		stored  string
		input   string
		wantErr error
	}{
		{name: "empty token denied", stored: "", input: "abc", wantErr: ErrUnauthorized},
		{name: "mismatched token denied", stored: "abc", input: "xyz", wantErr: ErrUnauthorized},
		{name: "matching token accepted", stored: "abc", input: "abc", wantErr: nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			testlog.Start(t)
			err := (StaticToken{Token: tc.stored}).Validate(tc.input)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected err %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestIssueAndParse(t *testing.T) {
	testlog.Start(t)
	iss, err := NewIssuer([]byte("secret"), time.Hour)
	require.NoError(t, err)

	tok, jti, err := iss.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	require.Equal(t, jti, claims.ID)
	id, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, uint64(42), id)
	require.NoError(t, iss.Validate(tok))
}

func TestIssueUsesFreshTokenIDs(t *testing.T) {
	testlog.Start(t)
	iss, err := NewIssuer([]byte("secret"), time.Hour)
	require.NoError(t, err)
	_, a, err := iss.Issue(1)
	require.NoError(t, err)
	_, b, err := iss.Issue(1)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestParseExpired(t *testing.T) {
	testlog.Start(t)
	now := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	iss, err := NewIssuer([]byte("secret"), time.Minute, WithClock(clock))
	require.NoError(t, err)
	tok, _, err := iss.Issue(7)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = iss.Parse(tok)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseRejectsForeignTokens(t *testing.T) {
	testlog.Start(t)
	iss, err := NewIssuer([]byte("right"), time.Hour)
	require.NoError(t, err)
	other, err := NewIssuer([]byte("wrong"), time.Hour)
	require.NoError(t, err)
	renamed, err := NewIssuer([]byte("right"), time.Hour, WithName("elsewhere"))
	require.NoError(t, err)

	for name, issuer := range map[string]*Issuer{"wrong secret": other, "wrong issuer": renamed} {
		tok, _, err := issuer.Issue(1)
		require.NoError(t, err, name)
		_, err = iss.Parse(tok)
		require.ErrorIs(t, err, ErrUnauthorized, name)
	}

	_, err = iss.Parse("not.a.jwt")
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestParseRejectsOtherAlgorithms(t *testing.T) {
	testlog.Start(t)
	iss, err := NewIssuer([]byte("secret"), time.Hour)
	require.NoError(t, err)
	claims := jwt.RegisteredClaims{
		Issuer:    "shiftd",
		Subject:   "1",
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = iss.Parse(tok)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestParseRequiresNumericSubject(t *testing.T) {
	testlog.Start(t)
	iss, err := NewIssuer([]byte("secret"), time.Hour)
	require.NoError(t, err)
	claims := jwt.RegisteredClaims{
		Issuer:    "shiftd",
		Subject:   "alice",
		ID:        "x",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = iss.Parse(tok)
	require.ErrorIs(t, err, ErrUnauthorized)
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	testlog.Start(t)
	_, err := NewIssuer(nil, time.Hour)
	require.ErrorIs(t, err, ErrEmptySecret)
}
