package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"time-planner/internal/model"
	"time-planner/internal/repository"
)

// AccountProvider issues and revokes durable account identities.
type AccountProvider interface {
	Create(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, accountID uuid.UUID) error
}

// RegisterInput represents a sign-up request with optional local data to import.
type RegisterInput struct {
	Email    string
	Password string
	Bundle   *Bundle
}

// Session is an account together with a freshly issued API token.
type Session struct {
	Account   *model.Account
	Token     string
	Migration *MigrationReport
}

// AccountService registers accounts and resolves API tokens.
type AccountService struct {
	store      *repository.Store
	accounts   AccountProvider
	migrator   *Migrator
	bcryptCost int
	log        zerolog.Logger
}

func NewAccountService(store *repository.Store, accounts AccountProvider, migrator *Migrator, bcryptCost int, log zerolog.Logger) *AccountService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AccountService{store: store, accounts: accounts, migrator: migrator, bcryptCost: bcryptCost, log: log}
}

// Register creates an account and imports input.Bundle into it. When the import
// fails the account is deleted again and the error matches ErrMigrationFailed.
func (s *AccountService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	email := normalizeEmail(input.Email)
	if err := validateCredentials(email, input.Password); err != nil {
		return nil, err
	}

	if _, err := s.store.Accounts.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("a user with this email already exists: %w", ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find account: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	token, tokenHash, err := newToken()
	if err != nil {
		return nil, err
	}

	account := &model.Account{Email: email, PasswordHash: string(hash), TokenHash: tokenHash}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, duplicate(err, "a user with this email already exists")
	}
	session := &Session{Account: account, Token: token}

	if !input.Bundle.Empty() {
		report, err := s.migrator.MigrateAccountData(ctx, account.ID, *input.Bundle)
		if err != nil {
			// The caller may have given up already; the compensation must still run.
			if delErr := s.accounts.Delete(context.WithoutCancel(ctx), account.ID); delErr != nil {
				s.log.Error().Err(delErr).Str("account", account.ID.String()).Msg("roll back registration")
				err = errors.Join(err, delErr)
			}
			s.log.Warn().Err(err).Str("email", email).Msg("registration rolled back")
			return nil, fmt.Errorf("register: registration rolled back: %w", err)
		}
		session.Migration = &report
	}

	s.log.Info().Str("account", account.ID.String()).Msg("account registered")
	return session, nil
}

// Login checks credentials and rotates the API token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*Session, error) {
	account, err := s.store.Accounts.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrUnauthorized)
	}

	token, tokenHash, err := newToken()
	if err != nil {
		return nil, err
	}
	if err := s.store.Accounts.UpdateTokenHash(ctx, account.ID, tokenHash); err != nil {
		return nil, err
	}
	account.TokenHash = tokenHash
	return &Session{Account: account, Token: token}, nil
}

// Authenticate resolves an API token to its account.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*model.Account, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthorized
	}
	account, err := s.store.Accounts.FindByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

// LinkTelegram attaches a Telegram chat to the account owning token.
func (s *AccountService) LinkTelegram(ctx context.Context, token string, telegramID int64) (*model.Account, error) {
	account, err := s.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.store.Accounts.LinkTelegram(ctx, account.ID, telegramID); err != nil {
		return nil, err
	}
	account.TelegramID = &telegramID
	return account, nil
}

// ByTelegram returns the account linked to a chat.
func (s *AccountService) ByTelegram(ctx context.Context, telegramID int64) (*model.Account, error) {
	account, err := s.store.Accounts.FindByTelegramID(ctx, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return account, nil
}

// Linked lists accounts with a Telegram chat attached.
func (s *AccountService) Linked(ctx context.Context) ([]model.Account, error) {
	return s.store.Accounts.ListLinked(ctx)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	var v validator
	_, err := mail.ParseAddress(email)
	v.check(email != "" && err == nil && len(email) <= 254, "email", "a valid email address is required")

	var upper, lower, digit, other bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			other = true
		}
	}
	v.check(len(password) >= 8, "password", "must be at least 8 characters long")
	v.check(upper && lower, "password", "must mix upper and lower case letters")
	v.check(digit, "password", "must contain a number")
	v.check(other, "password", "must contain a non-alphanumeric character")
	return v.err()
}

func newToken() (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, hashToken(token), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
