package jwt

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateParseRoundTrip(t *testing.T) {
	ctx := context.Background()

	token, err := Generate(ctx, "user-42", "secret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := ParseUserID(ctx, token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "user-42", userID)
}

func TestGenerateRequiresSecret(t *testing.T) {
	_, err := Generate(context.Background(), "user-42", "")
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	ctx := context.Background()

	token, err := Generate(ctx, "user-42", "secret")
	require.NoError(t, err)

	_, err = ParseUserID(ctx, token, "other-secret")
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseUserID(context.Background(), "not.a.token", "secret")
	assert.Error(t, err)
}

func TestParseTokenFromHeader(t *testing.T) {
	newReq := func(header string) *http.Request {
		r, _ := http.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		return r
	}

	token, err := ParseTokenFromHeader(newReq("Bearer abc.def.ghi"))
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	// Scheme matching is case-insensitive.
	token, err = ParseTokenFromHeader(newReq("bearer abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	_, err = ParseTokenFromHeader(newReq(""))
	assert.Error(t, err)

	_, err = ParseTokenFromHeader(newReq("Basic dXNlcjpwYXNz"))
	assert.Error(t, err)

	_, err = ParseTokenFromHeader(newReq("Bearer "))
	assert.Error(t, err)
}
