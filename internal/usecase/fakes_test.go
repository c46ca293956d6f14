package usecase

import (
	"context"
	"encoding/binary"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/totegamma/craft-nft"
	"github.com/totegamma/craft-nft/internal/domain"
)

const (
	testMint      = "CRAFT_MINT"
	testRecipient = "RECIPIENT"
	testBuyer     = "BuyerABC"
	testSignature = "sig123"
)

func testPayment() domain.PaymentConfig {
	return domain.PaymentConfig{
		TokenMint:    testMint,
		Recipient:    testRecipient,
		TokenProgram: domain.TokenProgramID,
		Decimals:     2,
		Price:        decimal.Zero,
		Layout:       domain.DefaultAccountLayout,
	}
}

func transferData(amount uint64) []byte {
	b := make([]byte, 9)
	b[0] = splTransfer
	binary.LittleEndian.PutUint64(b[1:], amount)
	return b
}

func transferCheckedData(amount uint64, decimals uint8) []byte {
	b := make([]byte, 10)
	b[0] = splTransferChecked
	binary.LittleEndian.PutUint64(b[1:9], amount)
	b[9] = decimals
	return b
}

func successTx(sig, buyer string, data []byte) domain.TransactionRecord {
	return domain.TransactionRecord{
		Signature:   sig,
		Status:      domain.TxSuccess,
		AccountKeys: []string{buyer, testRecipient, testMint, domain.TokenProgramID},
		Instructions: []domain.Instruction{
			{ProgramIndex: 3, Accounts: []int{0, 1, 2}, Data: data},
		},
	}
}

// checkedTx lays out a TransferChecked the way the token program does:
// source, mint, destination, authority.
func checkedTx(sig, buyer string, data []byte) domain.TransactionRecord {
	return domain.TransactionRecord{
		Signature:   sig,
		Status:      domain.TxSuccess,
		AccountKeys: []string{buyer, testMint, testRecipient, domain.TokenProgramID},
		Instructions: []domain.Instruction{
			{ProgramIndex: 3, Accounts: []int{0, 1, 2, 0}, Data: data},
		},
	}
}

func purchaseRequest(sig, buyer, amount string) domain.PurchaseRequest {
	return domain.PurchaseRequest{
		Signature:     sig,
		BuyerAddress:  buyer,
		ClaimedAmount: decimal.RequireFromString(amount),
		TokenMint:     testMint,
	}
}

type mockLedger struct {
	mu    sync.Mutex
	txs   map[string]domain.TransactionRecord
	err   error
	calls int
}

func (m *mockLedger) FetchTransaction(ctx context.Context, signature string) (domain.TransactionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return domain.TransactionRecord{}, m.err
	}
	tx, ok := m.txs[signature]
	if !ok {
		return domain.TransactionRecord{Signature: signature, Status: domain.TxNotFound}, nil
	}
	return tx, nil
}

type mockContentStore struct {
	mu      sync.Mutex
	added   map[string][]byte
	failOn  map[string]bool
	counter int
}

func (m *mockContentStore) Add(ctx context.Context, name string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[name] {
		return "", context.DeadlineExceeded
	}
	if m.added == nil {
		m.added = map[string][]byte{}
	}
	m.counter++
	cid := name + "-cid"
	m.added[cid] = append([]byte(nil), data...)
	return cid, nil
}

type mockOwnershipRepo struct {
	mu          sync.Mutex
	collectible map[string]domain.Collectible
	ownership   map[string]domain.OwnershipRecord
	nextID      int64
	err         error
	// conflictWith simulates a concurrent writer that won the race.
	conflictWith *domain.OwnershipRecord
}

func newMockOwnershipRepo() *mockOwnershipRepo {
	return &mockOwnershipRepo{
		collectible: map[string]domain.Collectible{},
		ownership:   map[string]domain.OwnershipRecord{},
	}
}

func (m *mockOwnershipRepo) RecordPurchase(ctx context.Context, signature string, c domain.Collectible) (domain.OwnershipRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return domain.OwnershipRecord{}, m.err
	}
	if m.conflictWith != nil {
		winner := domain.Collectible{ID: m.conflictWith.CollectibleID, OwnerAddress: m.conflictWith.BuyerAddress, ArtifactURI: "winner"}
		m.collectible[winner.ID] = winner
		m.ownership[signature] = *m.conflictWith
		m.conflictWith = nil
		return domain.OwnershipRecord{}, domain.ErrConflict
	}
	if _, ok := m.ownership[signature]; ok {
		return domain.OwnershipRecord{}, domain.ErrConflict
	}
	m.nextID++
	rec := domain.OwnershipRecord{
		ID:                   m.nextID,
		TransactionSignature: signature,
		CollectibleID:        c.ID,
		BuyerAddress:         c.OwnerAddress,
		CreatedAt:            c.CreatedAt,
	}
	m.collectible[c.ID] = c
	m.ownership[signature] = rec
	return rec, nil
}

func (m *mockOwnershipRepo) FindBySignature(ctx context.Context, signature string) (domain.Collectible, domain.OwnershipRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.ownership[signature]
	if !ok {
		return domain.Collectible{}, domain.OwnershipRecord{}, domain.NotFoundError{Resource: "ownership record"}
	}
	return m.collectible[rec.CollectibleID], rec, nil
}

func (m *mockOwnershipRepo) ListByOwner(ctx context.Context, owner string) ([]domain.Collectible, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Collectible
	for _, c := range m.collectible {
		if c.OwnerAddress == owner {
			out = append(out, c)
		}
	}
	return out, nil
}

type mockNotifier struct {
	mu      sync.Mutex
	notices []domain.PurchaseNotice
	err     error
}

func (m *mockNotifier) SendPurchaseConfirmation(ctx context.Context, n domain.PurchaseNotice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, n)
	return m.err
}

type mockPublisher struct {
	mu     sync.Mutex
	events []craftnft.MintEvent
}

func (m *mockPublisher) PublishMint(ctx context.Context, event craftnft.MintEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

type mockGuard struct {
	mu   sync.Mutex
	held map[string]bool
}

func (m *mockGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.held == nil {
		m.held = map[string]bool{}
	}
	if m.held[key] {
		return false, nil
	}
	m.held[key] = true
	return true, nil
}

func (m *mockGuard) Release(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.held, key)
	return nil
}
