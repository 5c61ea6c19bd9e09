package users

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Ann@Example.COM", "ann@example.com"},
		{"  bob@x.com ", "bob@x.com"},
		{"plain@x.com", "plain@x.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeEmail(tt.in))
	}
}

func TestUser_JSONHidesSecrets(t *testing.T) {
	u := User{
		ID:           "id-1",
		Name:         "Ann",
		Email:        "a@x.com",
		PasswordHash: "$2a$10$secret",
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		UpdatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	raw, err := json.Marshal(u)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.ElementsMatch(t, []string{"id", "name", "email", "createdAt"}, keys(body))
	assert.NotContains(t, string(raw), "secret")
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
