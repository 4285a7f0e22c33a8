// Package csrf implements double-submit anti-forgery tokens. A random secret
// lives in the _csrf cookie; tokens are short-lived HS256 JWTs whose subject
// is a digest of that secret.
package csrf

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/hkdf"
)

const (
	CookieName = "_csrf"
	HeaderName = "X-CSRF-Token"
	FormField  = "_csrf"

	// DefaultTTL is how long an issued token stays valid.
	DefaultTTL = 2 * time.Hour
)

// altHeaderName is the header Angular-style clients send.
const altHeaderName = "X-XSRF-Token"

var (
	ErrMissingSecret = errors.New("csrf: missing secret cookie")
	ErrMissingToken  = errors.New("csrf: missing token")
	ErrInvalidToken  = errors.New("csrf: invalid token")

	// ErrBadBody wraps a form body that could not be parsed while looking
	// for the token.
	ErrBadBody = errors.New("csrf: unreadable request body")
)

var hkdfSalt = []byte("devjournal-csrf")

// Protector issues and verifies tokens.
type Protector struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// New derives the signing key from secret. An empty secret yields a random
// key, so tokens do not survive a restart.
func New(secret string) (*Protector, error) {
	master := []byte(secret)
	if len(master) == 0 {
		master = make([]byte, 32)
		if _, err := rand.Read(master); err != nil {
			return nil, fmt.Errorf("generate secret: %w", err)
		}
	}
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, hkdfSalt, []byte("csrf-token-v1")), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return &Protector{key: key, ttl: DefaultTTL, now: time.Now}, nil
}

// Token returns a fresh token bound to the request's secret cookie, setting
// the cookie first when the request has none.
func (p *Protector) Token(w http.ResponseWriter, r *http.Request) (string, error) {
	secret := secretFromRequest(r)
	if secret == "" {
		var err error
		if secret, err = newSecret(); err != nil {
			return "", err
		}
		http.SetCookie(w, &http.Cookie{
			Name:     CookieName,
			Value:    secret,
			Path:     "/",
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})
		// Later calls within the same request see the new secret.
		r.AddCookie(&http.Cookie{Name: CookieName, Value: secret})
	}
	return p.sign(secret)
}

func (p *Protector) sign(secret string) (string, error) {
	now := p.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   digest(secret),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
	})
	return token.SignedString(p.key)
}

const (
	// maxJSONPeek bounds how much of a JSON body is buffered to find _csrf.
	maxJSONPeek = 1 << 20
	// multipartMemory is the in-memory part of a parsed multipart form; file
	// parts beyond it spill to disk.
	multipartMemory = 10 << 20
)

// Verify checks the token carried by r against its secret cookie. The token
// is read from X-CSRF-Token, X-XSRF-Token, the _csrf form field or the _csrf
// member of a JSON body. A JSON body is restored for the next handler.
func (p *Protector) Verify(r *http.Request) error {
	secret := secretFromRequest(r)
	if secret == "" {
		return ErrMissingSecret
	}
	raw := r.Header.Get(HeaderName)
	if raw == "" {
		raw = r.Header.Get(altHeaderName)
	}
	if raw == "" {
		if isJSON(r) {
			raw = tokenFromJSON(r)
		} else {
			var err error
			if raw, err = tokenFromForm(r); err != nil {
				return err
			}
		}
	}
	if raw == "" {
		return ErrMissingToken
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return p.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(p.now), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	if subtle.ConstantTimeCompare([]byte(claims.Subject), []byte(digest(secret))) != 1 {
		return ErrInvalidToken
	}
	return nil
}

// Protect rejects requests whose token does not verify with 403
// {"error":"invalid csrf token"}. A form body that cannot be read is
// answered with 413 when it exceeds the body limit and 400 otherwise.
func (p *Protector) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := p.Verify(r)
		var tooLarge *http.MaxBytesError
		switch {
		case err == nil:
			next.ServeHTTP(w, r)
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, ErrBadBody):
			writeError(w, http.StatusBadRequest, "malformed request body")
		default:
			writeError(w, http.StatusForbidden, "invalid csrf token")
		}
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// tokenFromForm parses a urlencoded or multipart body and returns its _csrf
// field. Parse failures are returned wrapped in ErrBadBody.
func tokenFromForm(r *http.Request) (string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var err error
	if ct == "multipart/form-data" {
		err = r.ParseMultipartForm(multipartMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadBody, err)
	}
	return r.FormValue(FormField), nil
}

func isJSON(r *http.Request) bool {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return ct == "application/json"
}

func tokenFromJSON(r *http.Request) string {
	if r.Body == nil {
		return ""
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxJSONPeek))
	r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
	if err != nil {
		return ""
	}
	return gjson.GetBytes(body, FormField).String()
}

func secretFromRequest(r *http.Request) string {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

func newSecret() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate csrf secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
