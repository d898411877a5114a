package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dukerupert/groceryguru/internal/model"
	"github.com/dukerupert/groceryguru/internal/store"
)

var (
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// OnRegister runs inside the registration transaction, after the person row
// exists. It is used to seed per-person data such as the default list.
type OnRegister func(ctx context.Context, tx *sql.Tx, personID int64) error

// Service handles registration, password login and session lifecycle.
type Service struct {
	db         *sql.DB
	sessionTTL time.Duration
	onRegister OnRegister
}

func NewService(db *sql.DB, sessionTTL time.Duration, onRegister OnRegister) *Service {
	return &Service{db: db, sessionTTL: sessionTTL, onRegister: onRegister}
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func (s *Service) Register(ctx context.Context, email, name, password string) (*model.Person, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	var p *model.Person
	err = store.InTx(ctx, s.db, func(tx *sql.Tx) error {
		persons := store.NewPersonStore(tx)
		existing, err := persons.GetByEmail(ctx, email)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrEmailTaken
		}
		p, err = persons.Create(ctx, email, strings.TrimSpace(name), hash)
		if err != nil {
			return err
		}
		if s.onRegister != nil {
			if err := s.onRegister(ctx, tx, p.ID); err != nil {
				return fmt.Errorf("seed person: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Authenticate checks a password login. Unknown emails and wrong passwords
// both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*model.Person, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	p, err := store.NewPersonStore(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrInvalidCredentials
	}
	ok, err := CheckPassword(p.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.Person, *model.Session, error) {
	p, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}
	sess, err := store.NewSessionStore(s.db).Create(ctx, p.ID, s.sessionTTL)
	if err != nil {
		return nil, nil, err
	}
	return p, sess, nil
}

// Session resolves a session cookie value. It returns nil for unknown or
// expired tokens.
func (s *Service) Session(ctx context.Context, token string) (*model.Session, error) {
	return store.NewSessionStore(s.db).GetByToken(ctx, token)
}

func (s *Service) Logout(ctx context.Context, sessionID int64) error {
	return store.NewSessionStore(s.db).Delete(ctx, sessionID)
}

func (s *Service) Person(ctx context.Context, id int64) (*model.Person, error) {
	return store.NewPersonStore(s.db).GetByID(ctx, id)
}

// CleanupSessions removes expired sessions and reports how many were deleted.
func (s *Service) CleanupSessions(ctx context.Context) (int64, error) {
	return store.NewSessionStore(s.db).DeleteExpired(ctx)
}
