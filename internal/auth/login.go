package auth

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents the successful login response
type LoginResponse struct {
	Token     string `json:"token"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	ExpiresIn int64  `json:"expires_in"`
}

// dummyHash keeps the timing of unknown users close to that of known ones.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("invoice-copilot"), bcrypt.MinCost)

// Authenticate checks username and password against the configured users
func (s *Service) Authenticate(username, password string) (role string, ok bool) {
	u, found := s.users[username]
	hash := []byte(u.PasswordHash)
	if !found {
		hash = dummyHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || !found {
		return "", false
	}
	role = u.Role
	if role == "" {
		role = "user"
	}
	return role, true
}

// HashPassword produces a bcrypt hash for the users section of the config
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// LoginHandler handles user authentication
func (s *Service) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if !s.Enabled() {
		writeError(w, http.StatusNotFound, "authentication is disabled")
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	role, ok := s.Authenticate(req.Username, req.Password)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := s.GenerateToken(req.Username, role)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		Token:     token,
		Username:  req.Username,
		Role:      role,
		ExpiresIn: int64(s.ttl.Seconds()),
	})
}
