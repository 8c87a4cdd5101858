package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"microwallet/internal/apperr"
	"microwallet/internal/domain"
	"microwallet/internal/logger"
	"microwallet/internal/metrics"
	"microwallet/internal/repository"

	"github.com/shopspring/decimal"
)

const (
	maxNameLength       = 50
	transactionsPageLen = 50
	referralCodeRetries = 5
)

var (
	errUserNotFound = apperr.NotFound("User not found")
	errUserExists   = apperr.Conflict("User already exists")
)

// TokenRevoker blocks a token id until it would have expired anyway
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
}

type AccountDeps struct {
	Users        UserStore
	Transactions TransactionReader
	Ledger       *Ledger
	Tokens       *TokenService
	Hasher       *Hasher
	Audit        *AuditService
	Revoker      TokenRevoker
}

// AccountService covers signup, login and the guarded profile operations
type AccountService struct {
	users        UserStore
	transactions TransactionReader
	ledger       *Ledger
	tokens       *TokenService
	hasher       *Hasher
	audit        *AuditService
	revoker      TokenRevoker
	gate         gate
}

func NewAccountService(d AccountDeps) *AccountService {
	return &AccountService{
		users:        d.Users,
		transactions: d.Transactions,
		ledger:       d.Ledger,
		tokens:       d.Tokens,
		hasher:       d.Hasher,
		audit:        d.Audit,
		revoker:      d.Revoker,
		gate:         gate{hasher: d.Hasher, audit: d.Audit},
	}
}

type SignupInput struct {
	Phone    string
	Name     string
	Password string
	Referral string
	DeviceID string
	Request  BindingRequest
}

type SignupResult struct {
	Token        string
	ReferralCode string
	BonusApplied bool
	User         *domain.User
}

// Signup creates the account and, for a qualifying referral, grants both
// bonuses in the same transaction.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (*SignupResult, error) {
	in.Phone = strings.TrimSpace(in.Phone)
	in.Name = strings.TrimSpace(in.Name)
	in.Referral = strings.TrimSpace(in.Referral)
	in.DeviceID = strings.TrimSpace(in.DeviceID)

	if in.Phone == "" || in.Name == "" || in.Password == "" || in.DeviceID == "" {
		return nil, apperr.Validation("Phone, name, password and device_id are required")
	}
	if utf8.RuneCountInString(in.Name) > maxNameLength {
		return nil, apperr.Validation("Name too long (max 50 chars)")
	}
	if err := validatePassword(in.Password, "Password must be at least 6 characters"); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, hashFailure(err)
	}

	user := &domain.User{
		Phone:        in.Phone,
		Name:         in.Name,
		PasswordHash: hash,
		SignupIP:     in.Request.SourceIP,
		DeviceID:     in.DeviceID,
		IsVerified:   true,
	}
	bonusApplied := false

	err = s.ledger.Atomically(ctx, func(tx *LedgerTx) error {
		if err := tx.LockSignups(ctx); err != nil {
			return fmt.Errorf("lock signups: %w", err)
		}

		if _, err := tx.FindUserByPhone(ctx, user.Phone); err == nil {
			return errUserExists
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("lookup phone: %w", err)
		}

		var decision *ReferralDecision
		if in.Referral != "" {
			d, err := tx.EvaluateReferral(ctx, in.Referral, user.SignupIP, user.DeviceID)
			if err != nil {
				return err
			}
			decision = d
			user.ReferredBy = d.Referrer.ReferralCode
		}

		if err := s.insertWithUniqueCode(ctx, tx, user); err != nil {
			return err
		}

		if decision != nil && decision.Eligible {
			if err := tx.GrantReferralBonus(ctx, decision.Referrer.ID, user); err != nil {
				return err
			}
			bonusApplied = true
		}
		return nil
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, errUserExists
	}
	if err != nil {
		return nil, err
	}

	switch {
	case in.Referral == "":
		metrics.Signups.WithLabelValues("none").Inc()
	case bonusApplied:
		metrics.Signups.WithLabelValues("applied").Inc()
	default:
		metrics.Signups.WithLabelValues("skipped").Inc()
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.audit.LogWithRequest(ctx, user.ID, domain.AuditActionSignup, domain.AuditCategoryAuth, in.Request,
		map[string]interface{}{"referred_by": user.ReferredBy, "bonus_applied": bonusApplied})
	logger.WithContext(ctx).Info("user signed up", "user_id", user.ID, "bonus_applied", bonusApplied)

	return &SignupResult{
		Token:        token,
		ReferralCode: user.ReferralCode,
		BonusApplied: bonusApplied,
		User:         user,
	}, nil
}

func (s *AccountService) insertWithUniqueCode(ctx context.Context, tx *LedgerTx, user *domain.User) error {
	for i := 0; i < referralCodeRetries; i++ {
		code := repository.GenerateReferralCode()
		_, err := tx.FindUserByReferralCode(ctx, code)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("check referral code: %w", err)
		}
		user.ReferralCode = code
		if err := tx.InsertUser(ctx, user); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	}
	return errors.New("could not allocate a unique referral code")
}

// Login verifies the password and issues a session token
func (s *AccountService) Login(ctx context.Context, phone, password string, req BindingRequest) (string, *domain.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return "", nil, apperr.Validation("Phone and password required")
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil, errUserNotFound
	}
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if !s.hasher.Matches(user.PasswordHash, password) {
		return "", nil, apperr.Validation("Invalid password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	s.audit.LogWithRequest(ctx, user.ID, domain.AuditActionLogin, domain.AuditCategoryAuth, req, nil)
	return token, user, nil
}

// Logout revokes the token when a revocation store is configured. Without
// one, logout is stateless and the client discards the token.
func (s *AccountService) Logout(ctx context.Context, claims *Claims) error {
	if s.revoker != nil && claims != nil && claims.ID != "" && claims.ExpiresAt != nil {
		if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return fmt.Errorf("revoke token: %w", err)
		}
	}
	if claims != nil {
		s.audit.Log(ctx, claims.UserID, domain.AuditActionLogout, domain.AuditCategoryAuth, nil)
	}
	return nil
}

func (s *AccountService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.loadUser(ctx, userID)
}

func (s *AccountService) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return user.Balance, nil
}

// Transactions returns the newest ledger rows for the user
func (s *AccountService) Transactions(ctx context.Context, userID int64) ([]domain.Transaction, error) {
	return s.transactions.RecentTransactions(ctx, userID, transactionsPageLen)
}

func (s *AccountService) ChangeName(ctx context.Context, userID int64, name string, req BindingRequest) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.gate.requireBinding(ctx, user, req, domain.AuditActionChangeName); err != nil {
		return err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return apperr.Validation("Name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return apperr.Validation("Name too long (max 50 chars)")
	}

	if err := s.users.UpdateName(ctx, userID, name); err != nil {
		return fmt.Errorf("update name: %w", err)
	}
	s.audit.LogWithRequest(ctx, userID, domain.AuditActionChangeName, domain.AuditCategoryAccount, req, nil)
	return nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string, req BindingRequest) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.gate.requireBinding(ctx, user, req, domain.AuditActionChangePassword); err != nil {
		return err
	}

	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("Old and new password required")
	}
	if err := validatePassword(newPassword, "New password must be at least 6 characters"); err != nil {
		return err
	}
	if oldPassword == newPassword {
		return apperr.Validation("New password must be different")
	}
	if !s.hasher.Matches(user.PasswordHash, oldPassword) {
		return apperr.Validation("Old password is incorrect")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return hashFailure(err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	s.audit.LogWithRequest(ctx, userID, domain.AuditActionChangePassword, domain.AuditCategoryAccount, req, nil)
	return nil
}

func (s *AccountService) SetWithdrawalPIN(ctx context.Context, userID int64, pin string, req BindingRequest) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.gate.requireBinding(ctx, user, req, domain.AuditActionSetPIN); err != nil {
		return err
	}
	if err := validatePIN(pin); err != nil {
		return err
	}
	if user.HasWithdrawalPIN() {
		return apperr.Conflict("Withdrawal PIN already set")
	}

	return s.storePIN(ctx, user, pin, req, domain.AuditActionSetPIN)
}

func (s *AccountService) ChangeWithdrawalPIN(ctx context.Context, userID int64, oldPIN, newPIN string, req BindingRequest) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.gate.requireBinding(ctx, user, req, domain.AuditActionChangePIN); err != nil {
		return err
	}
	if err := s.gate.requirePIN(ctx, user, oldPIN, req, domain.AuditActionChangePIN); err != nil {
		return err
	}
	if err := validatePIN(newPIN); err != nil {
		return err
	}
	if oldPIN == newPIN {
		return apperr.Validation("New PIN must be different")
	}

	return s.storePIN(ctx, user, newPIN, req, domain.AuditActionChangePIN)
}

func (s *AccountService) storePIN(ctx context.Context, user *domain.User, pin string, req BindingRequest, action string) error {
	hash, err := s.hasher.Hash(pin)
	if err != nil {
		return err
	}
	err = s.users.SetWithdrawalPIN(ctx, user.ID, user.WithdrawalPINHash, hash)
	if errors.Is(err, repository.ErrStaleUpdate) {
		return apperr.Conflict("Withdrawal PIN was changed by another request")
	}
	if err != nil {
		return fmt.Errorf("store pin: %w", err)
	}
	s.audit.LogWithRequest(ctx, user.ID, action, domain.AuditCategoryAccount, req, nil)
	return nil
}

func (s *AccountService) loadUser(ctx context.Context, userID int64) (*domain.User, error) {
	return loadUser(ctx, s.users, userID)
}

func loadUser(ctx context.Context, users UserStore, userID int64) (*domain.User, error) {
	user, err := users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
