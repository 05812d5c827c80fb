package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{name: "valid", header: "Bearer abc.def.ghi", want: "abc.def.ghi"},
		{name: "case insensitive scheme", header: "bearer tok", want: "tok"},
		{name: "missing header", header: "", wantErr: ErrNoCredentials},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", wantErr: ErrMalformedHeader},
		{name: "bare scheme", header: "Bearer ", wantErr: ErrMalformedHeader},
		{name: "token only", header: "sometoken", wantErr: ErrMalformedHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/me", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			got, err := ExtractBearerToken(r)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityContext(t *testing.T) {
	_, ok := IdentityFromContext(context.Background())
	assert.False(t, ok)

	identity := &Identity{UserID: "u1", Role: "faculty"}
	ctx := ContextWithIdentity(context.Background(), identity)

	got, ok := IdentityFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, identity, got)
}

func TestIdentity_Roles(t *testing.T) {
	identity := &Identity{UserID: "u1", Role: "admin"}

	assert.True(t, identity.HasRole("admin"))
	assert.False(t, identity.HasRole("student"))
	assert.True(t, identity.HasAnyRole("faculty", "admin"))
	assert.False(t, identity.HasAnyRole("faculty", "org"))

	var nilIdentity *Identity
	assert.False(t, nilIdentity.HasRole("admin"))
}
