// Package auth issues and verifies the bearer tokens that gate cart and
// order operations.
package auth

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrUnauthenticated is returned when no usable bearer credential is
	// presented.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrInvalidCredential is returned for a wrong username/password pair and
	// for tokens that fail signature, algorithm, expiry or subject checks.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrNoSubject is returned for a correctly signed, unexpired token that
	// carries no subject. It matches ErrInvalidCredential.
	ErrNoSubject error = noSubjectError{}
)

type noSubjectError struct{}

func (noSubjectError) Error() string { return "token has no subject" }

func (noSubjectError) Is(target error) bool { return target == ErrInvalidCredential }

// TokenType is reported alongside every issued token.
const TokenType = "bearer"

// Config configures an Authenticator.
type Config struct {
	// Secret is the HMAC key used to sign tokens.
	Secret []byte
	// TTL is the lifetime of an issued token.
	TTL time.Duration
	// Username and Password form the single accepted demo account.
	Username string
	Password string
}

// Token is an issued access token.
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresAt   time.Time
}

// Authenticator checks the demo account and signs/verifies HS256 JWTs whose
// subject is the username.
type Authenticator struct {
	secret   []byte
	ttl      time.Duration
	username string
	password string
	now      func() time.Time
}

// New creates an Authenticator.
func New(cfg Config) *Authenticator {
	return &Authenticator{
		secret:   cfg.Secret,
		ttl:      cfg.TTL,
		username: cfg.Username,
		password: cfg.Password,
		now:      time.Now,
	}
}

// Login issues a token if username and password match the demo account.
func (a *Authenticator) Login(username, password string) (*Token, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userOK || !passOK {
		return nil, ErrInvalidCredential
	}

	now := a.now()
	exp := now.Add(a.ttl)
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return nil, errors.Wrap(err, "sign token")
	}
	return &Token{
		AccessToken: signed,
		TokenType:   TokenType,
		ExpiresAt:   exp,
	}, nil
}

// Authenticate resolves the caller identity from an Authorization header
// value of the form "Bearer <token>".
func (a *Authenticator) Authenticate(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", ErrUnauthenticated
	}
	return a.Verify(token)
}

// Verify checks the token signature and expiry and returns its subject.
func (a *Authenticator) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidCredential, "parse token: %s", err)
	}
	if claims.Subject == "" {
		return "", ErrNoSubject
	}
	return claims.Subject, nil
}
