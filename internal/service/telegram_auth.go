package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
	"github.com/chancov/WebAppMiningGameTG/internal/telegram"
)

var ErrInvalidInitData = errors.New("invalid init data")

// AuthResult is returned after a successful WebApp login.
type AuthResult struct {
	Token   string
	Account *domain.Account
	WasNew  bool
}

// AuthService exchanges Telegram WebApp init_data for a session token,
// registering the account on first contact.
type AuthService struct {
	accounts *AccountService
	botToken string
	Now      func() time.Time
}

func NewAuthService(accounts *AccountService, botToken string) *AuthService {
	return &AuthService{accounts: accounts, botToken: botToken, Now: time.Now}
}

func (s *AuthService) Authenticate(ctx context.Context, initData string) (*AuthResult, error) {
	if s.botToken == "" {
		return nil, ErrInvalidInitData
	}
	values, ok := telegram.ValidateInitData(initData, s.botToken, s.Now())
	if !ok {
		return nil, ErrInvalidInitData
	}

	user, err := telegram.ParseUser(values)
	if err != nil {
		return nil, ErrInvalidInitData
	}

	reg, err := s.accounts.Register(ctx, RegisterInput{
		Identity:     strconv.FormatInt(user.ID, 10),
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		AvatarRef:    user.PhotoURL,
		ReferralCode: referralFromStartParam(values.Get("start_param")),
	})
	if err != nil {
		return nil, err
	}

	token, err := GenerateJWT(reg.Account.Identity)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Account: reg.Account, WasNew: reg.WasNew}, nil
}

// referralFromStartParam extracts the code from a "ref_<code>" deep-link parameter.
func referralFromStartParam(p string) string {
	code, ok := strings.CutPrefix(p, "ref_")
	if !ok {
		return ""
	}
	return code
}
