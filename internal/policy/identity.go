package policy

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/kerjaberkah/portal/auth"
	"github.com/kerjaberkah/portal/internal/authapi"
	"github.com/kerjaberkah/portal/internal/models"
)

// TokenValidator is satisfied by *authapi.Client.
type TokenValidator interface {
	Validate(ctx context.Context, token string) (authapi.Identity, error)
}

// NewTokenVerifier maps a bearer token to a local user id: the auth API
// vouches for the token, the email links it to a row in users.
func NewTokenVerifier(v TokenValidator, db *gorm.DB) auth.Verifier {
	return auth.VerifierFunc(func(ctx context.Context, token string) (uint64, error) {
		id, err := v.Validate(ctx, token)
		if err != nil {
			return 0, err
		}
		var user models.User
		err = db.WithContext(ctx).Select("id").
			Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(id.Email))).
			First(&user).Error
		if err != nil {
			return 0, fmt.Errorf("no local user for %s: %w", id.Email, err)
		}
		return user.ID, nil
	})
}
