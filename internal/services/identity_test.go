package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yungbote/kinship-backend/internal/data/repos"
	"github.com/yungbote/kinship-backend/internal/data/repos/testutil"
	types "github.com/yungbote/kinship-backend/internal/domain"
	"github.com/yungbote/kinship-backend/internal/platform/dbctx"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims IdentityClaims) string {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func newIdentityFixture(t *testing.T, issuer string) (IdentityService, repos.UserIdentityRepo) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	identities := repos.NewUserIdentityRepo(db, log)
	svc, err := NewIdentityService(log, identities, testSecret, issuer)
	if err != nil {
		t.Fatalf("NewIdentityService: %v", err)
	}
	return svc, identities
}

func TestNewIdentityServiceRequiresSecret(t *testing.T) {
	if _, err := NewIdentityService(testutil.Logger(t), nil, " ", ""); err == nil {
		t.Fatalf("want error for empty secret")
	}
}

func TestIdentityResolveUUIDSubject(t *testing.T) {
	svc, _ := newIdentityFixture(t, "")
	userID := uuid.New()
	tok := signToken(t, testSecret, IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String(), Issuer: "idp"}})

	rd, err := svc.Resolve(context.Background(), tok)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rd.UserID != userID {
		t.Fatalf("user: want=%s got=%s", userID, rd.UserID)
	}
	if rd.Provider != "idp" {
		t.Fatalf("provider: want=idp got=%q", rd.Provider)
	}
}

func TestIdentityResolveUIDClaim(t *testing.T) {
	svc, _ := newIdentityFixture(t, "")
	userID := uuid.New()
	tok := signToken(t, testSecret, IdentityClaims{UID: userID.String(), RegisteredClaims: jwt.RegisteredClaims{Subject: "opaque-sub"}})

	rd, err := svc.Resolve(context.Background(), tok)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rd.UserID != userID {
		t.Fatalf("user: want=%s got=%s", userID, rd.UserID)
	}
}

func TestIdentityResolveViaProviderMapping(t *testing.T) {
	svc, identities := newIdentityFixture(t, "")
	userID := uuid.New()
	if _, err := identities.Create(dbctx.Context{Ctx: context.Background()}, []*types.UserIdentity{{
		UserID: userID, Provider: "https://idp.example.com", ProviderSub: "auth0|42",
	}}); err != nil {
		t.Fatalf("seed identity: %v", err)
	}
	tok := signToken(t, testSecret, IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "auth0|42", Issuer: "https://idp.example.com"}})

	rd, err := svc.Resolve(context.Background(), tok)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if rd.UserID != userID || rd.ProviderSub != "auth0|42" {
		t.Fatalf("mapping: want=%s/auth0|42 got=%s/%s", userID, rd.UserID, rd.ProviderSub)
	}
}

func TestIdentityResolveRejections(t *testing.T) {
	svc, _ := newIdentityFixture(t, "https://idp.example.com")
	userID := uuid.New().String()

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrInvalidToken},
		{"garbage", "not-a-token", ErrInvalidToken},
		{"wrong secret", signToken(t, "other", IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID, Issuer: "https://idp.example.com"}}), ErrInvalidToken},
		{"wrong issuer", signToken(t, testSecret, IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID, Issuer: "evil"}}), ErrInvalidToken},
		{"expired", signToken(t, testSecret, IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: userID, Issuer: "https://idp.example.com", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}}), ErrInvalidToken},
		{"unknown subject", signToken(t, testSecret, IdentityClaims{RegisteredClaims: jwt.RegisteredClaims{Subject: "nobody", Issuer: "https://idp.example.com"}}), ErrUnknownPrincipal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Resolve(context.Background(), tt.token)
			if !errors.Is(err, tt.want) {
				t.Fatalf("want=%v got=%v", tt.want, err)
			}
		})
	}
}
