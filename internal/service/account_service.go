package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/events"
	"github.com/chancov/WebAppMiningGameTG/internal/logger"
	"github.com/chancov/WebAppMiningGameTG/internal/metrics"
	"github.com/chancov/WebAppMiningGameTG/internal/repository"
)

// maxCodeAttempts bounds referral code generation. With 2^32 codes a
// collision streak this long means something is broken, not unlucky.
const maxCodeAttempts = 32

var errReferralCodeExhausted = errors.New("could not generate a unique referral code")

// maxRegisterAttempts bounds retries after a concurrent registration took the
// same referral code between our check and our insert.
const maxRegisterAttempts = 3

// RegisterInput is what a client supplies on first contact.
type RegisterInput struct {
	Identity     string
	FirstName    string
	LastName     string
	AvatarRef    string
	ReferralCode string
}

type RegisterResult struct {
	Account  *domain.Account
	WasNew   bool
	WasBonus bool
}

// AccountService owns account creation (including the referral bonus) and
// the read-only profile views.
type AccountService struct {
	store repository.Store
	deps  Deps

	newCode func() (string, error)
}

func NewAccountService(store repository.Store, deps Deps) *AccountService {
	return &AccountService{
		store:   store,
		deps:    deps.withDefaults(store),
		newCode: randomReferralCode,
	}
}

// randomReferralCode returns 8 hex characters from crypto/rand.
func randomReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// Register creates the account on first contact and returns the existing one
// afterwards. A referral code that resolves to another account credits that
// account with the signup bonus; an unknown code is ignored.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	if err := domain.ValidateIdentity(in.Identity); err != nil {
		return nil, observe(err)
	}

	now := s.deps.now()
	var (
		res RegisterResult
		out outbox
		err error
	)
	for attempt := 1; attempt <= maxRegisterAttempts; attempt++ {
		res, out = RegisterResult{}, nil
		err = s.store.InTx(ctx, func(q repository.Queries) error {
			return s.register(ctx, q, in, now, &res, &out)
		})
		if !errors.Is(err, repository.ErrReferralCodeTaken) {
			break
		}
		logger.WithContext(ctx).Warn("referral code taken at insert, retrying", "attempt", attempt)
	}
	if err != nil {
		return nil, observe(err)
	}

	if res.WasNew {
		metrics.Registrations.WithLabelValues(strconv.FormatBool(res.WasBonus)).Inc()
		metrics.CurrencyIssued.WithLabelValues("signup").Add(metrics.Amount(domain.SignupBonus))
		if res.WasBonus {
			metrics.CurrencyIssued.WithLabelValues("referral").Add(metrics.Amount(domain.SignupBonus))
		}
		logger.WithContext(ctx).Info("account registered",
			"telegram_id", res.Account.Identity, "user_id", res.Account.ID, "referral_bonus", res.WasBonus)
	}
	out.flush(ctx, s.deps.Events)
	return &res, nil
}

// register does the work of one registration attempt inside a unit of work.
func (s *AccountService) register(ctx context.Context, q repository.Queries, in RegisterInput, now time.Time, res *RegisterResult, out *outbox) error {
	existing, err := q.GetAccount(ctx, in.Identity)
	if err == nil {
		*res = RegisterResult{Account: existing}
		return nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return err
	}

	code, err := s.uniqueReferralCode(ctx, q)
	if err != nil {
		return err
	}

	var inviter *domain.Account
	if in.ReferralCode != "" {
		inviter, err = q.LockAccountByReferralCode(ctx, in.ReferralCode)
		if errors.Is(err, domain.ErrAccountNotFound) {
			inviter = nil
		} else if err != nil {
			return err
		}
	}

	acc := &domain.Account{
		Identity:     in.Identity,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		AvatarRef:    in.AvatarRef,
		Balance:      domain.SignupBonus,
		ReferralCode: code,
		CreatedAt:    now,
	}
	if inviter != nil {
		acc.InvitedBy = &inviter.ID
	}

	created, err := q.CreateAccount(ctx, acc)
	if err != nil {
		return err
	}
	if !created {
		// lost a race with a concurrent registration of the same identity
		existing, err := q.GetAccount(ctx, in.Identity)
		if err != nil {
			return err
		}
		*res = RegisterResult{Account: existing}
		return nil
	}

	if err := s.deps.Audit.Log(ctx, q, acc.ID, domain.AuditActionRegister, domain.AuditCategoryAccount, map[string]interface{}{
		"ref_code": code,
	}); err != nil {
		return err
	}
	if err := s.deps.Audit.LogBalanceChange(ctx, q, acc, domain.AuditActionSignupBonus, domain.AuditCategoryReward, domain.SignupBonus, nil); err != nil {
		return err
	}
	out.add(events.TypeAccountRegistered, acc, domain.SignupBonus, now, nil)

	*res = RegisterResult{Account: acc, WasNew: true}
	if inviter == nil {
		return nil
	}

	inviter.Credit(domain.SignupBonus)
	if err := q.UpdateAccount(ctx, inviter); err != nil {
		return err
	}
	if err := q.CreateReferral(ctx, &domain.Referral{
		InviterID: inviter.ID,
		InvitedID: acc.ID,
		Bonus:     domain.SignupBonus,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("record referral: %w", err)
	}
	if err := s.deps.Audit.LogBalanceChange(ctx, q, inviter, domain.AuditActionReferralBonus, domain.AuditCategoryReward, domain.SignupBonus, map[string]interface{}{
		"referred_id": acc.ID,
	}); err != nil {
		return err
	}
	out.add(events.TypeReferralBonus, inviter, domain.SignupBonus, now, map[string]any{"referred": acc.Identity})

	res.WasBonus = true
	return nil
}

func (s *AccountService) uniqueReferralCode(ctx context.Context, q repository.Queries) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := s.newCode()
		if err != nil {
			return "", fmt.Errorf("generate referral code: %w", err)
		}
		taken, err := q.ReferralCodeTaken(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", errReferralCodeExhausted
}

func (s *AccountService) Profile(ctx context.Context, identity string) (*domain.Account, error) {
	var acc *domain.Account
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		var err error
		acc, err = q.GetAccount(ctx, identity)
		return err
	})
	return acc, observe(err)
}

// Referrals lists the public profiles of the accounts identity invited.
func (s *AccountService) Referrals(ctx context.Context, identity string) ([]domain.PublicProfile, error) {
	var res []domain.PublicProfile
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.GetAccount(ctx, identity)
		if err != nil {
			return err
		}
		res, err = q.ListReferrals(ctx, acc.ID)
		return err
	})
	return res, observe(err)
}

func (s *AccountService) Stats(ctx context.Context, identity string) (*domain.AccountStats, error) {
	var stats domain.AccountStats
	err := s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.GetAccount(ctx, identity)
		if err != nil {
			return err
		}
		n, err := q.CountReferrals(ctx, acc.ID)
		if err != nil {
			return err
		}
		stats = domain.AccountStats{
			DaysPlayed:   acc.DaysPlayed(s.deps.now()),
			NumReferrals: n,
		}
		return nil
	})
	if err != nil {
		return nil, observe(err)
	}
	return &stats, nil
}

// SetCosmetic stores the selected card background. Ownership is not checked:
// any reference the client sends is accepted.
func (s *AccountService) SetCosmetic(ctx context.Context, identity, ref string) error {
	if identity == "" {
		return observe(domain.ErrInvalidIdentity)
	}
	return observe(s.store.InTx(ctx, func(q repository.Queries) error {
		acc, err := q.LockAccount(ctx, identity)
		if err != nil {
			return err
		}
		acc.CosmeticRef = ref
		return q.UpdateAccount(ctx, acc)
	}))
}
