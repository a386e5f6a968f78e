package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	testAnonKey   = "anon-key"
	testJWTSecret = "super-secret-jwt-token"
	testOTP       = "123456"
)

type fakeUser struct {
	id       string
	email    string
	password string
	metadata map[string]any
	created  time.Time
}

// fakeGoTrue is a minimal GoTrue server backed by in-memory maps.
type fakeGoTrue struct {
	mu sync.Mutex

	users   map[string]*fakeUser
	refresh map[string]string
	otps    map[string]string

	autoConfirm     bool
	omitExpiry      bool
	accessTTL       time.Duration
	failStatus      map[string]int
	logoutCalls     int
	lastAPIKey      string
	lastBearer      string
	lastGrantType   string
	lastVerifyType  string
	lastSignUpData  map[string]any
	refreshRequests int

	// refreshEntered and refreshRelease, when set, hold refresh grants
	// until released.
	refreshEntered chan struct{}
	refreshRelease chan struct{}

	srv *httptest.Server
}

func newFakeGoTrue(t *testing.T) *fakeGoTrue {
	t.Helper()
	f := &fakeGoTrue{
		users:       map[string]*fakeUser{},
		refresh:     map[string]string{},
		otps:        map[string]string{},
		autoConfirm: true,
		accessTTL:   time.Hour,
		failStatus:  map[string]int{},
	}

	r := chi.NewRouter()
	r.Use(f.recordHeaders)
	r.Route("/auth/v1", func(r chi.Router) {
		r.Post("/signup", f.signUp)
		r.Post("/token", f.token)
		r.Post("/logout", f.logout)
		r.Post("/recover", f.recover)
		r.Post("/verify", f.verify)
		r.Put("/user", f.updateUser)
	})

	f.srv = httptest.NewServer(r)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeGoTrue) URL() string { return f.srv.URL }

func (f *fakeGoTrue) addUser(email, password, username string) *fakeUser {
	f.mu.Lock()
	defer f.mu.Unlock()
	u := &fakeUser{
		id:       uuid.NewString(),
		email:    email,
		password: password,
		metadata: map[string]any{"username": username},
		created:  time.Now().UTC().Truncate(time.Second),
	}
	f.users[email] = u
	return u
}

// holdRefresh makes the next refresh grants wait. entered receives once per
// held request; closing release lets them through.
func (f *fakeGoTrue) holdRefresh() (entered <-chan struct{}, release chan<- struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshEntered = make(chan struct{}, 1)
	f.refreshRelease = make(chan struct{})
	return f.refreshEntered, f.refreshRelease
}

// failWith makes every request to path answer with status until cleared.
func (f *fakeGoTrue) failWith(path string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failStatus[path] = status
}

func (f *fakeGoTrue) recordHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.lastAPIKey = r.Header.Get("apikey")
		f.lastBearer = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		status := f.failStatus[r.URL.Path]
		f.mu.Unlock()

		if status != 0 {
			writeJSON(w, status, map[string]any{"code": status, "error_code": "unexpected_failure", "msg": "backend exploded"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *fakeGoTrue) userJSON(u *fakeUser) map[string]any {
	return map[string]any{
		"id":            u.id,
		"email":         u.email,
		"user_metadata": u.metadata,
		"created_at":    u.created.Format(time.RFC3339),
	}
}

// issue must be called with f.mu held.
func (f *fakeGoTrue) issue(u *fakeUser) map[string]any {
	exp := time.Now().Add(f.accessTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.id,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Email: u.email,
		Role:  "authenticated",
	})
	signed, _ := token.SignedString([]byte(testJWTSecret))

	refresh := uuid.NewString()
	f.refresh[refresh] = u.email

	body := map[string]any{
		"access_token":  signed,
		"refresh_token": refresh,
		"token_type":    "bearer",
		"user":          f.userJSON(u),
	}
	if !f.omitExpiry {
		body["expires_in"] = int64(f.accessTTL.Seconds())
		body["expires_at"] = exp.Unix()
	}
	return body
}

func (f *fakeGoTrue) userFromBearer(r *http.Request) *fakeUser {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return []byte(testJWTSecret), nil
	})
	if err != nil {
		return nil
	}
	return f.users[claims.Email]
}

func (f *fakeGoTrue) signUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpParams
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"msg": "bad json"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSignUpData = req.Data

	if _, ok := f.users[req.Email]; ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"code": 422, "error_code": "user_already_exists", "msg": "User already registered",
		})
		return
	}
	u := &fakeUser{
		id:       uuid.NewString(),
		email:    req.Email,
		password: req.Password,
		metadata: req.Data,
		created:  time.Now().UTC().Truncate(time.Second),
	}
	f.users[req.Email] = u

	if !f.autoConfirm {
		writeJSON(w, http.StatusOK, f.userJSON(u))
		return
	}
	writeJSON(w, http.StatusOK, f.issue(u))
}

func (f *fakeGoTrue) token(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	if r.URL.Query().Get("grant_type") == "refresh_token" {
		f.mu.Lock()
		entered, release := f.refreshEntered, f.refreshRelease
		f.mu.Unlock()
		if release != nil {
			entered <- struct{}{}
			<-release
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastGrantType = r.URL.Query().Get("grant_type")

	switch f.lastGrantType {
	case "password":
		u, ok := f.users[req.Email]
		if !ok || u.password != req.Password {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error": "invalid_grant", "error_description": "Invalid login credentials",
			})
			return
		}
		writeJSON(w, http.StatusOK, f.issue(u))

	case "refresh_token":
		f.refreshRequests++
		email, ok := f.refresh[req.RefreshToken]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"code": 400, "error_code": "refresh_token_not_found", "msg": "Invalid Refresh Token: Refresh Token Not Found",
			})
			return
		}
		delete(f.refresh, req.RefreshToken)
		writeJSON(w, http.StatusOK, f.issue(f.users[email]))

	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"msg": "unsupported grant type"})
	}
}

func (f *fakeGoTrue) logout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.userFromBearer(r) == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "invalid JWT"})
		return
	}
	f.logoutCalls++
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeGoTrue) recover(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[req.Email]; ok {
		f.otps[req.Email] = testOTP
	}
	writeJSON(w, http.StatusOK, map[string]any{})
}

func (f *fakeGoTrue) verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyParams
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastVerifyType = string(req.Type)

	if code, ok := f.otps[req.Email]; !ok || code != req.Token {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"code": 403, "error_code": "otp_expired", "msg": "Token has expired or is invalid",
		})
		return
	}
	delete(f.otps, req.Email)
	writeJSON(w, http.StatusOK, f.issue(f.users[req.Email]))
}

func (f *fakeGoTrue) updateUser(w http.ResponseWriter, r *http.Request) {
	var req UserAttributes
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	defer f.mu.Unlock()
	u := f.userFromBearer(r)
	if u == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"msg": "invalid JWT"})
		return
	}
	if req.Password != "" {
		if req.Password == u.password {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"code": 422, "error_code": "same_password", "msg": "New password should be different from the old password.",
			})
			return
		}
		u.password = req.Password
	}
	writeJSON(w, http.StatusOK, f.userJSON(u))
}
