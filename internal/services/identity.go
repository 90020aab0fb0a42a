package services

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/casegen-backend/internal/platform/apierr"
	"github.com/yungbote/casegen-backend/internal/platform/ctxutil"
	"github.com/yungbote/casegen-backend/internal/platform/envutil"
	"github.com/yungbote/casegen-backend/internal/platform/logger"
)

type IdentityConfig struct {
	SecretKey    string
	PublicKeyPEM string
	Issuer       string
	Audience     string
}

func IdentityConfigFromEnv() IdentityConfig {
	return IdentityConfig{
		SecretKey:    envutil.String("JWT_SECRET_KEY", ""),
		PublicKeyPEM: strings.ReplaceAll(envutil.String("JWT_PUBLIC_KEY_PEM", ""), `\n`, "\n"),
		Issuer:       envutil.String("JWT_ISSUER", ""),
		Audience:     envutil.String("JWT_AUDIENCE", ""),
	}
}

type IdentityService interface {
	// Configured is false when neither an HMAC secret nor an RSA key is set.
	Configured() bool
	// Verify validates the bearer token and returns ctx carrying RequestData.
	Verify(ctx context.Context, tokenString string) (context.Context, error)
}

type identityService struct {
	log     *logger.Logger
	cfg     IdentityConfig
	rsaKey  *rsa.PublicKey
	methods []string
}

func NewIdentityService(log *logger.Logger, cfg IdentityConfig) (IdentityService, error) {
	s := &identityService{log: log.With("service", "IdentityService"), cfg: cfg}
	if cfg.PublicKeyPEM != "" {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(cfg.PublicKeyPEM))
		if err != nil {
			return nil, fmt.Errorf("parse JWT_PUBLIC_KEY_PEM: %w", err)
		}
		s.rsaKey = key
		s.methods = append(s.methods, "RS256", "RS384", "RS512")
	}
	if cfg.SecretKey != "" {
		s.methods = append(s.methods, "HS256", "HS384", "HS512")
	}
	return s, nil
}

func (s *identityService) Configured() bool {
	return s.rsaKey != nil || s.cfg.SecretKey != ""
}

func (s *identityService) Verify(ctx context.Context, tokenString string) (context.Context, error) {
	if !s.Configured() {
		return ctx, apierr.NotConfigured("auth_not_configured", "neither JWT_SECRET_KEY nor JWT_PUBLIC_KEY_PEM is set")
	}
	if tokenString == "" {
		return ctx, unauthorized(errors.New("missing bearer token"))
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(s.methods), jwt.WithExpirationRequired()}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	if s.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(s.cfg.Audience))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, s.keyFor, opts...)
	if err != nil {
		s.log.Debug("token rejected", "error", err)
		return ctx, unauthorized(fmt.Errorf("invalid token: %w", err))
	}
	if !parsed.Valid {
		return ctx, unauthorized(errors.New("invalid or expired token"))
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return ctx, unauthorized(errors.New("token has no subject"))
	}

	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      sub,
	}), nil
}

func (s *identityService) keyFor(token *jwt.Token) (interface{}, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodRSA:
		if s.rsaKey == nil {
			return nil, errors.New("rsa tokens not accepted")
		}
		return s.rsaKey, nil
	case *jwt.SigningMethodHMAC:
		if s.cfg.SecretKey == "" {
			return nil, errors.New("hmac tokens not accepted")
		}
		return []byte(s.cfg.SecretKey), nil
	default:
		return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
	}
}

func unauthorized(err error) error {
	return apierr.New(http.StatusUnauthorized, "unauthorized", err)
}
