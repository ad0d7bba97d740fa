package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/brewhaven-cafe/internal/domain/auth"
)

type callerKey struct{}

// CallerFromContext returns the identity stored by RequireAuth.
func CallerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey{}).(string)
	return caller
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(w, r)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	req, err := decodeLogin(data)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	tok, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredential) {
			zctx.From(r.Context()).Error("Issue token", zap.Error(err))
		}
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("access_token")
		e.Str(tok.AccessToken)
		e.FieldStart("token_type")
		e.Str(tok.TokenType)
		e.ObjEnd()
	})
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller identity in the request context.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, err := h.auth.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			writeDetail(w, http.StatusUnauthorized, unauthorizedDetail(err))
			return
		}

		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		ctx = zctx.Base(ctx, zctx.From(ctx).With(zap.String("caller", caller)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorizedDetail(err error) string {
	switch {
	case errors.Is(err, auth.ErrNoSubject):
		return "Invalid token payload"
	case errors.Is(err, auth.ErrInvalidCredential):
		return "Invalid or expired token"
	default:
		return "Not authenticated"
	}
}
