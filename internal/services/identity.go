package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/kinship-backend/internal/data/repos"
	"github.com/yungbote/kinship-backend/internal/platform/ctxutil"
	"github.com/yungbote/kinship-backend/internal/platform/dbctx"
	"github.com/yungbote/kinship-backend/internal/platform/logger"
)

var (
	// ErrInvalidToken means the bearer token could not be verified.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrUnknownPrincipal means the token verified but maps to no user.
	ErrUnknownPrincipal = errors.New("unknown principal")
)

// IdentityClaims are the claims accepted from the identity provider. UID is an
// optional internal user id the provider may carry alongside its own subject.
type IdentityClaims struct {
	UID string `json:"uid,omitempty"`
	jwt.RegisteredClaims
}

type IdentityService interface {
	// Resolve verifies token and maps its principal to an internal user.
	Resolve(ctx context.Context, token string) (*ctxutil.RequestData, error)
}

type identityService struct {
	log        *logger.Logger
	identities repos.UserIdentityRepo
	secret     []byte
	issuer     string
}

func NewIdentityService(log *logger.Logger, identities repos.UserIdentityRepo, secret, issuer string) (IdentityService, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("missing IDENTITY_JWT_SECRET")
	}
	return &identityService{
		log:        log.With("service", "IdentityService"),
		identities: identities,
		secret:     []byte(secret),
		issuer:     strings.TrimSpace(issuer),
	}, nil
}

func (s *identityService) Resolve(ctx context.Context, token string) (*ctxutil.RequestData, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired()}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}
	claims := &IdentityClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		s.log.Debug("token rejected", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub := strings.TrimSpace(claims.Subject)
	rd := &ctxutil.RequestData{Provider: claims.Issuer, ProviderSub: sub}
	if id, err := uuid.Parse(strings.TrimSpace(claims.UID)); err == nil && id != uuid.Nil {
		rd.UserID = id
		return rd, nil
	}
	if id, err := uuid.Parse(sub); err == nil && id != uuid.Nil {
		rd.UserID = id
		return rd, nil
	}
	if sub == "" || s.identities == nil {
		return nil, ErrUnknownPrincipal
	}
	ident, err := s.identities.GetByProviderSub(dbctx.Context{Ctx: ctx}, claims.Issuer, sub)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if ident == nil || ident.UserID == uuid.Nil {
		return nil, ErrUnknownPrincipal
	}
	rd.UserID = ident.UserID
	return rd, nil
}
