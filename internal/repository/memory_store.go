package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/chancov/WebAppMiningGameTG/internal/domain"
)

var errReferralExists = errors.New("referral already recorded for account")

var (
	_ Store   = (*MemoryStore)(nil)
	_ Queries = (*memState)(nil)
)

// MemoryStore keeps everything in process. A unit of work holds the store mutex
// for its whole duration and works on a copy that replaces the live state only
// when fn succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemState()}
}

func (s *MemoryStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

type memState struct {
	accounts   map[int64]domain.Account
	byIdentity map[string]int64
	byRefCode  map[string]int64
	upgrades   map[int64]domain.UpgradeLevels

	cosmetics []domain.CosmeticItem
	owned     map[int64][]int64

	transactions []domain.Transaction
	referrals    []domain.Referral
	audit        []domain.AuditLog

	nextAccountID  int64
	nextCosmeticID int64
	nextTxID       int64
	nextReferralID int64
	nextAuditID    int64
}

func newMemState() *memState {
	return &memState{
		accounts:   make(map[int64]domain.Account),
		byIdentity: make(map[string]int64),
		byRefCode:  make(map[string]int64),
		upgrades:   make(map[int64]domain.UpgradeLevels),
		owned:      make(map[int64][]int64),
	}
}

// clone copies everything a unit of work may modify. Slices are append-only, so
// capping them at their length is enough to keep the original untouched.
func (m *memState) clone() *memState {
	c := *m
	c.accounts = make(map[int64]domain.Account, len(m.accounts))
	for k, v := range m.accounts {
		c.accounts[k] = v
	}
	c.byIdentity = make(map[string]int64, len(m.byIdentity))
	for k, v := range m.byIdentity {
		c.byIdentity[k] = v
	}
	c.byRefCode = make(map[string]int64, len(m.byRefCode))
	for k, v := range m.byRefCode {
		c.byRefCode[k] = v
	}
	c.upgrades = make(map[int64]domain.UpgradeLevels, len(m.upgrades))
	for k, v := range m.upgrades {
		levels := make(domain.UpgradeLevels, len(v))
		for t, l := range v {
			levels[t] = l
		}
		c.upgrades[k] = levels
	}
	c.owned = make(map[int64][]int64, len(m.owned))
	for k, v := range m.owned {
		c.owned[k] = v[:len(v):len(v)]
	}
	c.cosmetics = m.cosmetics[:len(m.cosmetics):len(m.cosmetics)]
	c.transactions = m.transactions[:len(m.transactions):len(m.transactions)]
	c.referrals = m.referrals[:len(m.referrals):len(m.referrals)]
	c.audit = m.audit[:len(m.audit):len(m.audit)]
	return &c
}

func (m *memState) CreateAccount(_ context.Context, a *domain.Account) (bool, error) {
	if _, ok := m.byIdentity[a.Identity]; ok {
		return false, nil
	}
	if _, ok := m.byRefCode[a.ReferralCode]; ok {
		return false, ErrReferralCodeTaken
	}
	m.nextAccountID++
	a.ID = m.nextAccountID
	m.accounts[a.ID] = *a
	m.byIdentity[a.Identity] = a.ID
	m.byRefCode[a.ReferralCode] = a.ID
	return true, nil
}

func (m *memState) GetAccount(_ context.Context, identity string) (*domain.Account, error) {
	id, ok := m.byIdentity[identity]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	a := m.accounts[id]
	return &a, nil
}

func (m *memState) LockAccount(ctx context.Context, identity string) (*domain.Account, error) {
	return m.GetAccount(ctx, identity)
}

func (m *memState) LockAccountByReferralCode(_ context.Context, code string) (*domain.Account, error) {
	id, ok := m.byRefCode[code]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	a := m.accounts[id]
	return &a, nil
}

func (m *memState) ReferralCodeTaken(_ context.Context, code string) (bool, error) {
	_, ok := m.byRefCode[code]
	return ok, nil
}

func (m *memState) UpdateAccount(_ context.Context, a *domain.Account) error {
	cur, ok := m.accounts[a.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	// identity, referral code and creation time are immutable
	next := *a
	next.Identity = cur.Identity
	next.ReferralCode = cur.ReferralCode
	next.CreatedAt = cur.CreatedAt
	m.accounts[a.ID] = next
	return nil
}

func (m *memState) TopAccounts(_ context.Context, limit int) ([]domain.Account, error) {
	res := make([]domain.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		res = append(res, a)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Balance.Equal(res[j].Balance) {
			return res[i].Balance.GreaterThan(res[j].Balance)
		}
		return res[i].ID < res[j].ID
	})
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *memState) UpgradeLevels(_ context.Context, accountID int64) (domain.UpgradeLevels, error) {
	levels := make(domain.UpgradeLevels)
	for t, l := range m.upgrades[accountID] {
		levels[t] = l
	}
	return levels, nil
}

func (m *memState) SetUpgradeLevel(_ context.Context, accountID int64, t domain.UpgradeType, level int) error {
	if _, ok := m.upgrades[accountID]; !ok {
		m.upgrades[accountID] = make(domain.UpgradeLevels)
	}
	m.upgrades[accountID][t] = level
	return nil
}

func (m *memState) SeedCosmetics(_ context.Context, items []domain.CosmeticItem) (int, error) {
	if len(m.cosmetics) > 0 {
		return 0, nil
	}
	for i := range items {
		m.nextCosmeticID++
		items[i].ID = m.nextCosmeticID
		m.cosmetics = append(m.cosmetics, items[i])
	}
	return len(items), nil
}

func (m *memState) ListCosmetics(_ context.Context) ([]domain.CosmeticItem, error) {
	return append([]domain.CosmeticItem{}, m.cosmetics...), nil
}

func (m *memState) GetCosmetic(_ context.Context, id int64) (*domain.CosmeticItem, error) {
	for _, it := range m.cosmetics {
		if it.ID == id {
			it := it
			return &it, nil
		}
	}
	return nil, domain.ErrItemNotFound
}

func (m *memState) OwnsCosmetic(_ context.Context, accountID, itemID int64) (bool, error) {
	for _, id := range m.owned[accountID] {
		if id == itemID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memState) AddOwnedCosmetic(ctx context.Context, accountID, itemID int64) error {
	owned, _ := m.OwnsCosmetic(ctx, accountID, itemID)
	if owned {
		return domain.ErrAlreadyOwned
	}
	m.owned[accountID] = append(m.owned[accountID], itemID)
	return nil
}

func (m *memState) OwnedCosmetics(ctx context.Context, accountID int64) ([]domain.CosmeticItem, error) {
	res := []domain.CosmeticItem{}
	for _, id := range m.owned[accountID] {
		it, err := m.GetCosmetic(ctx, id)
		if err != nil {
			continue
		}
		res = append(res, *it)
	}
	return res, nil
}

func (m *memState) CreateTransaction(_ context.Context, t *domain.Transaction) error {
	if t.Kind == "" {
		t.Kind = domain.TransactionKindTransfer
	}
	m.nextTxID++
	t.ID = m.nextTxID
	m.transactions = append(m.transactions, *t)
	return nil
}

func (m *memState) CountTransactions(_ context.Context, accountID int64) (int, error) {
	n := 0
	for _, t := range m.transactions {
		if t.SenderID == accountID || t.ReceiverID == accountID {
			n++
		}
	}
	return n, nil
}

func (m *memState) ListTransactions(_ context.Context, accountID int64, limit, offset int) ([]domain.TransferRecord, error) {
	var mine []domain.Transaction
	for _, t := range m.transactions {
		if t.SenderID == accountID || t.ReceiverID == accountID {
			mine = append(mine, t)
		}
	}
	sort.SliceStable(mine, func(i, j int) bool {
		if !mine[i].CreatedAt.Equal(mine[j].CreatedAt) {
			return mine[i].CreatedAt.After(mine[j].CreatedAt)
		}
		return mine[i].ID > mine[j].ID
	})

	res := []domain.TransferRecord{}
	if offset < 0 {
		return res, nil
	}
	for i := offset; i < len(mine) && len(res) < limit; i++ {
		t := mine[i]
		res = append(res, domain.TransferRecord{
			Transaction:      t,
			SenderIdentity:   m.accounts[t.SenderID].Identity,
			ReceiverIdentity: m.accounts[t.ReceiverID].Identity,
		})
	}
	return res, nil
}

func (m *memState) CreateReferral(_ context.Context, r *domain.Referral) error {
	for _, existing := range m.referrals {
		if existing.InvitedID == r.InvitedID {
			return errReferralExists
		}
	}
	m.nextReferralID++
	r.ID = m.nextReferralID
	m.referrals = append(m.referrals, *r)
	return nil
}

func (m *memState) ListReferrals(_ context.Context, inviterID int64) ([]domain.PublicProfile, error) {
	res := []domain.PublicProfile{}
	for _, r := range m.referrals {
		if r.InviterID != inviterID {
			continue
		}
		if a, ok := m.accounts[r.InvitedID]; ok {
			res = append(res, a.Public())
		}
	}
	return res, nil
}

func (m *memState) CountReferrals(_ context.Context, inviterID int64) (int, error) {
	n := 0
	for _, r := range m.referrals {
		if r.InviterID == inviterID {
			n++
		}
	}
	return n, nil
}

func (m *memState) CreateAuditLog(_ context.Context, l *domain.AuditLog) error {
	m.nextAuditID++
	l.ID = m.nextAuditID
	m.audit = append(m.audit, *l)
	return nil
}

func (m *memState) AuditLogs(_ context.Context, accountID int64, limit int) ([]domain.AuditLog, error) {
	res := []domain.AuditLog{}
	for i := len(m.audit) - 1; i >= 0 && len(res) < limit; i-- {
		if m.audit[i].UserID == accountID {
			res = append(res, m.audit[i])
		}
	}
	return res, nil
}
