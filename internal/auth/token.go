package auth

import (
	"context"
	"fmt"
	"os"

	"github.com/appcenter-community/appcenter-go/internal/constants"
)

// TokenProvider supplies the API token attached to outgoing requests.
type TokenProvider interface {
	// Token returns the token to send, or an error when none is available.
	Token(ctx context.Context) (string, error)
}

// StaticTokenProvider returns the same token on every call.
type StaticTokenProvider struct {
	token string
}

// NewStaticTokenProvider creates a provider for a fixed token.
func NewStaticTokenProvider(token string) *StaticTokenProvider {
	return &StaticTokenProvider{token: token}
}

// Token implements TokenProvider.
func (p *StaticTokenProvider) Token(_ context.Context) (string, error) {
	if p.token == "" {
		return "", constants.ErrNoToken
	}

	return p.token, nil
}

// EnvTokenProvider reads the token from an environment variable on every
// call, so a rotated token is picked up without rebuilding the client.
type EnvTokenProvider struct {
	envVar string
}

// NewEnvTokenProvider creates a provider reading envVar. An empty name falls
// back to APPCENTER_API_TOKEN.
func NewEnvTokenProvider(envVar string) *EnvTokenProvider {
	if envVar == "" {
		envVar = constants.EnvAPIToken
	}

	return &EnvTokenProvider{envVar: envVar}
}

// Token implements TokenProvider.
func (p *EnvTokenProvider) Token(_ context.Context) (string, error) {
	token := os.Getenv(p.envVar)
	if token == "" {
		return "", fmt.Errorf("%w: %s is not set", constants.ErrNoToken, p.envVar)
	}

	return token, nil
}
