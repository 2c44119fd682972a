package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xchangepos/backend/internal/config"
	"github.com/xchangepos/backend/internal/utils"
)

func TestIssueToken(t *testing.T) {
	jwtCfg := config.JWTConfig{Secret: "cli-secret", Expiration: 2}
	userID := uuid.New()

	var out bytes.Buffer
	cmd := newIssueTokenCommand(jwtCfg, &out)
	cmd.SetArgs([]string{"--email", "officer@example.com", "--user-id", userID.String(), "--admin"})
	require.NoError(t, cmd.Execute())

	claims, err := utils.ValidateToken("cli-secret", strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "officer@example.com", claims.Email)
	assert.True(t, claims.IsAdmin)

	lifetime := time.Duration(claims.ExpiresAt-claims.IssuedAt) * time.Second
	assert.InDelta(t, (2 * time.Hour).Seconds(), lifetime.Seconds(), 1, "lifetime comes from JWT_EXPIRATION")
}

func TestIssueTokenErrors(t *testing.T) {
	var out bytes.Buffer
	cmd := newIssueTokenCommand(config.JWTConfig{Secret: "cli-secret"}, &out)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--email", "a@example.com", "--user-id", "not-a-uuid"})
	assert.Error(t, cmd.Execute())

	cmd = newIssueTokenCommand(config.JWTConfig{}, &out)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--email", "a@example.com"})
	assert.Error(t, cmd.Execute(), "no secret configured")

	cmd = newIssueTokenCommand(config.JWTConfig{Secret: "cli-secret"}, &out)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{})
	assert.Error(t, cmd.Execute(), "email is required")
}
