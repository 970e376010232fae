package auth

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Guard authenticates the single owner of a deployment. With no passphrase
// hash configured the guard is disabled and every request passes.
type Guard struct {
	passphraseHash []byte
	jwt            *JWTManager
}

// NewGuard creates a guard. passphraseHash is a bcrypt hash of the owner's
// passphrase; empty disables authentication.
func NewGuard(passphraseHash string, jwt *JWTManager) *Guard {
	return &Guard{passphraseHash: []byte(passphraseHash), jwt: jwt}
}

// Enabled reports whether authentication is configured.
func (g *Guard) Enabled() bool {
	return len(g.passphraseHash) > 0
}

// IssueToken checks the passphrase and returns a fresh session token.
func (g *Guard) IssueToken(passphrase string) (string, error) {
	if !g.Enabled() {
		return "", ErrInvalidPassphrase
	}
	if err := bcrypt.CompareHashAndPassword(g.passphraseHash, []byte(passphrase)); err != nil {
		return "", ErrInvalidPassphrase
	}
	return g.jwt.Generate()
}

// Middleware validates the Bearer token on every request. A disabled guard
// passes requests through untouched.
func (g *Guard) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !g.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			http.Error(w, ErrMissingToken.Error(), http.StatusUnauthorized)
			return
		}
		if err := g.jwt.Validate(token); err != nil {
			http.Error(w, ErrInvalidToken.Error(), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HashPassphrase produces a bcrypt hash suitable for the guard
// configuration.
func HashPassphrase(passphrase string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
