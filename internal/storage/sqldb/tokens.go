package sqldb

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/julianstephens/streakline/internal/constants"
	"github.com/julianstephens/streakline/internal/models"
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

type sessionClaims struct {
	Email string `json:"email"`
	Type  string `json:"typ"`
	jwt.RegisteredClaims
}

func (s *Store) sign(user models.User, typ string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(ttl)
	claims := sessionClaims{
		Email: user.Email,
		Type:  typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    constants.AppName,
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign %s token: %w", typ, err)
	}
	return signed, exp, nil
}

func (s *Store) issueSession(user models.User) (*models.Session, error) {
	access, exp, err := s.sign(user, tokenAccess, constants.AccessTokenTTL*time.Second)
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.sign(user, tokenRefresh, constants.SessionTTL*time.Second)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		AccessToken:  access,
		TokenType:    "bearer",
		RefreshToken: refresh,
		// JWT expiry has second precision
		ExpiresAt: exp.Truncate(time.Second),
		User:      user,
	}, nil
}

// verify checks the signature, issuer, expiry and token type
func (s *Store) verify(token, typ string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(constants.AppName),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, err
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("unexpected token type %q", claims.Type)
	}
	return claims, nil
}

func (s *Store) refreshSession(ctx context.Context, expired *models.Session) (*models.Session, error) {
	claims, err := s.verify(expired.RefreshToken, tokenRefresh)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}
	user, err := s.userByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	return s.issueSession(user)
}
