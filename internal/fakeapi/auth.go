package fakeapi

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"commerce-storefront/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const passwordMin = 8

// RegisterInput captures fields expected by the register endpoint.
type RegisterInput struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
}

type tokenMeta struct {
	userID    int64
	expiresAt time.Time
}

type tokenManager struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	tokens map[string]tokenMeta
}

func newTokenManager(ttl time.Duration) *tokenManager {
	return &tokenManager{
		ttl:    ttl,
		now:    time.Now,
		tokens: make(map[string]tokenMeta),
	}
}

func (m *tokenManager) Issue(userID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		if _, taken := m.tokens[token]; taken {
			continue
		}
		m.tokens[token] = tokenMeta{userID: userID, expiresAt: m.now().Add(m.ttl)}
		return token, nil
	}
	return "", errors.New("token collision")
}

func (m *tokenManager) Validate(token string) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	meta, ok := m.tokens[token]
	if !ok {
		return 0, false
	}
	if m.now().After(meta.expiresAt) {
		delete(m.tokens, token)
		return 0, false
	}
	return meta.userID, true
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Register creates a customer account and signs it in.
func (b *Backend) Register(_ context.Context, in RegisterInput) (domain.Session, error) {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Session{}, fmt.Errorf("email không hợp lệ: %w", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(in.FullName) == "" {
		return domain.Session{}, fmt.Errorf("họ tên là bắt buộc: %w", domain.ErrInvalidInput)
	}
	if err := validatePassword(in.Password, passwordMin); err != nil {
		return domain.Session{}, err
	}
	u, err := b.addUser(email, strings.TrimSpace(in.Password), strings.TrimSpace(in.FullName), strings.TrimSpace(in.PhoneNumber), domain.RoleCustomer)
	if err != nil {
		return domain.Session{}, err
	}
	token, err := b.tokens.Issue(u.ID)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{Token: token, User: u}, nil
}

func (b *Backend) addUser(email, password, fullName, phone, role string) (domain.UserSummary, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return domain.UserSummary{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.emails[email]; exists {
		return domain.UserSummary{}, fmt.Errorf("email %s đã được sử dụng: %w", email, domain.ErrAlreadyExists)
	}
	b.nextUser++
	u := &user{
		summary: domain.UserSummary{
			ID:       b.nextUser,
			Email:    email,
			FullName: fullName,
			Phone:    phone,
			Role:     role,
		},
		passwordHash: string(hashed),
	}
	b.users[u.summary.ID] = u
	b.emails[email] = u.summary.ID
	return u.summary, nil
}

// Login validates credentials and issues a bearer token.
func (b *Backend) Login(_ context.Context, email, password string) (domain.Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	b.mu.Lock()
	id, ok := b.emails[email]
	var u *user
	if ok {
		u = b.users[id]
	}
	b.mu.Unlock()
	if u == nil {
		return domain.Session{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.passwordHash), []byte(strings.TrimSpace(password))); err != nil {
		return domain.Session{}, ErrInvalidCredentials
	}
	token, err := b.tokens.Issue(u.summary.ID)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{Token: token, User: u.summary}, nil
}

// LookupByToken returns the user bound to a valid token.
func (b *Backend) LookupByToken(_ context.Context, token string) (domain.UserSummary, error) {
	id, ok := b.tokens.Validate(token)
	if !ok {
		return domain.UserSummary{}, ErrInvalidToken
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[id]
	if !ok {
		return domain.UserSummary{}, ErrInvalidToken
	}
	return u.summary, nil
}

func validatePassword(p string, minLen int) error {
	trimmed := strings.TrimSpace(p)
	if len(trimmed) < minLen {
		return fmt.Errorf("mật khẩu phải có ít nhất %d ký tự: %w", minLen, domain.ErrInvalidInput)
	}
	hasUpper := false
	hasLower := false
	hasDigit := false
	for _, r := range trimmed {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return fmt.Errorf("mật khẩu phải có chữ hoa, chữ thường và chữ số: %w", domain.ErrInvalidInput)
	}
	return nil
}
