// Package session is the client side of authentication: it exchanges
// credentials for a token and keeps the token and user in storage, where the
// HTTP client picks the token up.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"commerce-storefront/internal/apiclient"
	"commerce-storefront/internal/domain"
	"commerce-storefront/internal/nav"
	"commerce-storefront/internal/storage"
	"commerce-storefront/internal/store"
)

const (
	msgLogin    = "Đăng nhập thất bại"
	msgRegister = "Đăng ký thất bại"
)

// RegisterRequest is the signup body.
type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// State is what a login view renders.
type State struct {
	User      *domain.UserSummary `json:"user"`
	IsLoading bool                `json:"isLoading"`
	Error     string              `json:"error,omitempty"`
}

type Service struct {
	api       store.API
	storage   storage.Storage
	navigator nav.Navigator
	logger    *log.Logger

	mu    sync.Mutex
	state State
}

func New(api store.API, st storage.Storage, navigator nav.Navigator, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{api: api, storage: st, navigator: navigator, logger: logger}
}

func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	if s.state.User != nil {
		u := *s.state.User
		out.User = &u
	}
	return out
}

func (s *Service) Login(ctx context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.Session{}, fmt.Errorf("email and password are required: %w", domain.ErrInvalidInput)
	}
	return s.authenticate(ctx, "/api/auth/login", loginRequest{Email: email, Password: password}, msgLogin)
}

func (s *Service) Register(ctx context.Context, req RegisterRequest) (domain.Session, error) {
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		return domain.Session{}, fmt.Errorf("email, password and full name are required: %w", domain.ErrInvalidInput)
	}
	return s.authenticate(ctx, "/api/auth/register", req, msgRegister)
}

func (s *Service) authenticate(ctx context.Context, path string, body interface{}, fallback string) (domain.Session, error) {
	s.mu.Lock()
	s.state.IsLoading = true
	s.state.Error = ""
	s.mu.Unlock()

	var sess domain.Session
	err := s.api.Post(ctx, path, body, &sess)
	if err == nil && sess.Token == "" {
		err = &apiclient.Error{Kind: apiclient.KindServer, Path: path, Cause: errors.New("response carried no token")}
	}
	if err == nil {
		err = s.persist(ctx, sess)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = false
	if err != nil {
		s.state.Error = apiclient.Message(err, fallback)
		s.logger.Printf("session: authenticate path=%s error=%v", path, err)
		return domain.Session{}, err
	}
	user := sess.User
	s.state.User = &user
	return sess, nil
}

func (s *Service) persist(ctx context.Context, sess domain.Session) error {
	if err := s.storage.Set(ctx, storage.KeyToken, sess.Token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := storage.SetJSON(ctx, s.storage, storage.KeyUser, sess.User); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	return nil
}

// Logout forgets the session and the cached cart and returns to the login
// view. There is no server-side logout.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.storage.Remove(ctx, storage.KeyToken, storage.KeyUser, storage.KeyCart); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
	if s.navigator != nil && s.navigator.Location() != nav.PathLogin {
		s.navigator.Navigate(nav.PathLogin)
	}
	return nil
}

// Forget drops the in-memory user without touching storage. The API client
// calls it once a 401 has already cleared the stored session.
func (s *Service) Forget() {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
	s.logger.Printf("session: forgotten after unauthenticated response")
}

// Current returns the persisted session, or domain.ErrNotFound when there is
// none.
func (s *Service) Current(ctx context.Context) (domain.Session, error) {
	token, err := s.storage.Get(ctx, storage.KeyToken)
	if err != nil {
		return domain.Session{}, err
	}
	var user domain.UserSummary
	found, err := storage.GetJSON(ctx, s.storage, storage.KeyUser, &user)
	if err != nil {
		return domain.Session{}, err
	}
	if !found {
		return domain.Session{}, fmt.Errorf("user record missing: %w", domain.ErrNotFound)
	}
	s.mu.Lock()
	s.state.User = &user
	s.mu.Unlock()
	return domain.Session{Token: token, User: user}, nil
}

