package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/baygut/faq-chat-bot/internal/log"
)

// Identity transport configuration.
const (
	identityCookieName = "uid"
	identityHeaderName = "X-Identity-Token"
	identityCookieAge  = 30 * 24 * 3600 // 30 days in seconds
)

// identityManager handles the signed caller identity the API runs on.
// The app has no login; callers bootstrap a random owner ID from the
// identity endpoint, carried in a tamper-evident cookie (or header, for
// non-browser clients), and every other endpoint requires it.
type identityManager struct {
	secret []byte
	isDev  bool
	logger log.Logger
}

// OwnerID extracts and verifies the caller identity from the request.
// The X-Identity-Token header takes precedence over the uid cookie.
// Returns (uuid.Nil, false, false) when no identity is presented, and
// (uuid.Nil, true, false) when one is presented but fails verification.
func (im *identityManager) OwnerID(r *http.Request) (id uuid.UUID, presented, valid bool) {
	token := r.Header.Get(identityHeaderName)
	if token == "" {
		cookie, err := r.Cookie(identityCookieName)
		if err != nil {
			return uuid.Nil, false, false
		}
		token = cookie.Value
	}

	raw, ok := verifySignedID(token, im.secret)
	if !ok {
		return uuid.Nil, true, false
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, true, false
	}
	return parsed, true, true
}

func (im *identityManager) setIdentityCookie(w http.ResponseWriter, id uuid.UUID) {
	http.SetCookie(w, &http.Cookie{
		Name:     identityCookieName,
		Value:    signID(id.String(), im.secret),
		Path:     "/",
		Secure:   !im.isDev,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   identityCookieAge,
	})
}

// issueIdentity handles GET /api/v1/identity.
// Returns the caller's identity, which identityMiddleware has already
// verified or provisioned. The token in the response body is for clients
// that cannot carry cookies; it is the same signed value the cookie holds.
func (im *identityManager) issueIdentity(w http.ResponseWriter, r *http.Request) {
	id, ok := ownerIDFromContext(r.Context())
	if !ok || id == uuid.Nil {
		id = uuid.New()
		im.setIdentityCookie(w, id)
	} else if _, _, valid := im.OwnerID(r); valid {
		// Returning caller: refresh the cookie expiry. A first-time caller
		// already got the cookie from the middleware this request.
		im.setIdentityCookie(w, id)
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"id":    id.String(),
		"token": signID(id.String(), im.secret),
	}, im.logger)
}

// identityBootstrapPath is the only route that auto-provisions an identity.
// Every other owner-scoped route requires one, so unauthenticated calls
// cannot create or read state.
const identityBootstrapPath = "/api/v1/identity"

// identityExempt reports whether the route serves public, owner-agnostic
// content and may run without a caller identity.
func identityExempt(r *http.Request) bool {
	return r.Method == http.MethodGet && r.URL.Path == "/api/v1/faq"
}

// identityMiddleware verifies a presented identity. A tampered token is
// rejected with 401 rather than silently replaced, so callers notice broken
// credentials; an absent one is rejected too, except on the bootstrap
// endpoint (where a fresh owner is minted) and on exempt public routes.
func identityMiddleware(im *identityManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, presented, valid := im.OwnerID(r)
			if presented && !valid {
				im.logger.Warn("invalid identity token",
					"path", r.URL.Path,
					"method", r.Method,
				)
				WriteError(w, http.StatusUnauthorized, "invalid_identity", "identity token verification failed", im.logger)
				return
			}
			if !presented {
				if identityExempt(r) {
					next.ServeHTTP(w, r)
					return
				}
				if !(r.Method == http.MethodGet && r.URL.Path == identityBootstrapPath) {
					WriteError(w, http.StatusUnauthorized, "identity_required", "caller identity required", im.logger)
					return
				}
				id = uuid.New()
				im.setIdentityCookie(w, id)
			}
			ctx := context.WithValue(r.Context(), ctxKeyOwnerID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// signID creates an HMAC-signed identity value: "id.base64url(HMAC-SHA256(secret, id))".
// Makes the uid cookie tamper-evident so callers cannot impersonate each other.
func signID(id string, secret []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(id))
	sig := base64.URLEncoding.EncodeToString(h.Sum(nil))
	return id + "." + sig
}

// verifySignedID splits a signed value and verifies the HMAC signature.
// Returns the extracted ID and true on success, or empty string and false on any failure.
func verifySignedID(value string, secret []byte) (string, bool) {
	idx := strings.LastIndex(value, ".")
	if idx < 1 {
		return "", false
	}

	id := value[:idx]
	sig, err := base64.URLEncoding.DecodeString(value[idx+1:])
	if err != nil {
		return "", false
	}

	h := hmac.New(sha256.New, secret)
	h.Write([]byte(id))
	expected := h.Sum(nil)

	if subtle.ConstantTimeCompare(sig, expected) != 1 {
		return "", false
	}

	return id, true
}
