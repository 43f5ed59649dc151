package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/ogurasousui/company-lifecycle/internal/platform/config"
)

var (
	// ErrMissingToken は Authorization ヘッダーが無い場合に返却されます。
	ErrMissingToken = errors.New("missing bearer token")
	// ErrInvalidToken は署名や有効期限、subject が不正なトークンに返却されます。
	ErrInvalidToken = errors.New("invalid bearer token")
)

// Verifier は HS256 で署名されたベアラートークンを検証し、subject を操作者 ID として取り出します。
type Verifier struct {
	secret []byte
	issuer string
}

// NewVerifier は auth 設定から Verifier を生成します。
func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer}
}

// Verify はトークンを検証し、sub クレームの UUID を返します。
func (v *Verifier) Verify(token string) (uuid.UUID, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims jwt.RegisteredClaims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	actor, err := uuid.Parse(claims.Subject)
	if err != nil || actor == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: subject is not an actor id", ErrInvalidToken)
	}
	return actor, nil
}

// VerifyHeader は "Bearer <token>" 形式の値を検証します。
func (v *Verifier) VerifyHeader(header string) (uuid.UUID, error) {
	token, err := BearerToken(header)
	if err != nil {
		return uuid.Nil, err
	}
	return v.Verify(token)
}

// BearerToken は Authorization ヘッダー値からトークンを取り出します。
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: expected Bearer scheme", ErrInvalidToken)
	}
	return strings.TrimSpace(token), nil
}

type actorContextKey struct{}

// WithActor は操作者 ID をコンテキストに格納します。
func WithActor(ctx context.Context, actor uuid.UUID) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext はコンテキストから操作者 ID を取り出します。
func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(uuid.UUID)
	return actor, ok && actor != uuid.Nil
}
