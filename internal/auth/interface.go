package auth

import (
	"context"

	"github.com/lochan861/mt/internal/models"
)

// AuthServiceInterface defines the contract for authentication operations.
// Handlers depend on this so they can be tested without a real store.
type AuthServiceInterface interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*models.User, error)
}

var _ AuthServiceInterface = (*Service)(nil)
