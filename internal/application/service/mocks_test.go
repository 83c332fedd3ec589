package service

import (
	"context"
	"sync"
	"time"

	"github.com/garyjia/tour-confirmation/internal/application/port"
	"github.com/garyjia/tour-confirmation/internal/domain/entity"
	"github.com/shopspring/decimal"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

type mockQuoteRepo struct {
	quotes               map[int64]*entity.Quote
	getByIDFunc          func(ctx context.Context, id int64) (*entity.Quote, error)
	updateCategoriesFunc func(ctx context.Context, id int64, categories []entity.CostCategory) error
}

func (m *mockQuoteRepo) Create(ctx context.Context, quote *entity.Quote) error {
	if m.quotes == nil {
		m.quotes = map[int64]*entity.Quote{}
	}
	m.quotes[quote.ID] = quote
	return nil
}

func (m *mockQuoteRepo) GetByID(ctx context.Context, id int64) (*entity.Quote, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return m.quotes[id], nil
}

func (m *mockQuoteRepo) UpdateCategories(ctx context.Context, id int64, categories []entity.CostCategory) error {
	if m.updateCategoriesFunc != nil {
		return m.updateCategoriesFunc(ctx, id, categories)
	}
	if q, ok := m.quotes[id]; ok {
		q.Categories = categories
	}
	return nil
}

// mockSnapshotRepo keeps one snapshot per parent
type mockSnapshotRepo struct {
	mu           sync.Mutex
	items        []entity.ConfirmedSnapshotItem
	listFunc     func(ctx context.Context, parentType string, parentID int64) ([]entity.ConfirmedSnapshotItem, error)
	replaceFunc  func(ctx context.Context, parentType string, parentID int64, items []entity.ConfirmedSnapshotItem) error
	replaceCalls int
}

func (m *mockSnapshotRepo) ListByParent(ctx context.Context, parentType string, parentID int64) ([]entity.ConfirmedSnapshotItem, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, parentType, parentID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.ConfirmedSnapshotItem(nil), m.items...), nil
}

func (m *mockSnapshotRepo) Replace(ctx context.Context, parentType string, parentID int64, items []entity.ConfirmedSnapshotItem) error {
	if m.replaceFunc != nil {
		return m.replaceFunc(ctx, parentType, parentID, items)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	m.items = append([]entity.ConfirmedSnapshotItem(nil), items...)
	return nil
}

type mockSheetRepo struct {
	sheets      map[int64]*entity.ConfirmationSheet
	getByIDFunc func(ctx context.Context, id int64) (*entity.ConfirmationSheet, error)
}

func (m *mockSheetRepo) Create(ctx context.Context, sheet *entity.ConfirmationSheet) error {
	if m.sheets == nil {
		m.sheets = map[int64]*entity.ConfirmationSheet{}
	}
	m.sheets[sheet.ID] = sheet
	return nil
}

func (m *mockSheetRepo) GetByID(ctx context.Context, id int64) (*entity.ConfirmationSheet, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return m.sheets[id], nil
}

// mockSheetItemRepo stores rows in memory unless a func field overrides it
type mockSheetItemRepo struct {
	rows            []*entity.ConfirmationSheetItem
	nextID          int64
	insertItemsFunc func(ctx context.Context, items []*entity.ConfirmationSheetItem) ([]int64, error)
}

func (m *mockSheetItemRepo) ListItems(ctx context.Context, sheetID int64) ([]*entity.ConfirmationSheetItem, error) {
	var out []*entity.ConfirmationSheetItem
	for _, r := range m.rows {
		if r.SheetID == sheetID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockSheetItemRepo) DeletePendingItems(ctx context.Context, sheetID int64) (int64, error) {
	kept := m.rows[:0]
	var deleted int64
	for _, r := range m.rows {
		if r.SheetID == sheetID && !r.IsProtected() {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.rows = kept
	return deleted, nil
}

func (m *mockSheetItemRepo) InsertItems(ctx context.Context, items []*entity.ConfirmationSheetItem) ([]int64, error) {
	if m.insertItemsFunc != nil {
		return m.insertItemsFunc(ctx, items)
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		m.nextID++
		it.ID = m.nextID
		cp := *it
		m.rows = append(m.rows, &cp)
		ids = append(ids, it.ID)
	}
	return ids, nil
}

func (m *mockSheetItemRepo) SetActualCost(ctx context.Context, id int64, cost decimal.Decimal) error {
	for _, r := range m.rows {
		if r.ID == id {
			r.ActualCost = decimal.NewNullDecimal(cost)
		}
	}
	return nil
}

type mockOutboxRepo struct {
	entries    []*entity.OutboxEntry
	appendFunc func(ctx context.Context, entry *entity.OutboxEntry) error
}

func (m *mockOutboxRepo) Append(ctx context.Context, entry *entity.OutboxEntry) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, entry)
	}
	entry.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockOutboxRepo) ClaimPending(ctx context.Context, workerID string, limit int, staleAfter time.Duration) ([]*entity.OutboxEntry, error) {
	return nil, nil
}

func (m *mockOutboxRepo) MarkSent(ctx context.Context, id int64) error {
	return nil
}

func (m *mockOutboxRepo) MarkFailed(ctx context.Context, id int64, errMsg string, status string) error {
	return nil
}

type mockCoreBookingRepo struct {
	items      map[int64]*entity.CoreBookingItem
	upsertFunc func(ctx context.Context, item *entity.CoreBookingItem) error
}

func (m *mockCoreBookingRepo) Upsert(ctx context.Context, item *entity.CoreBookingItem) error {
	if m.upsertFunc != nil {
		return m.upsertFunc(ctx, item)
	}
	if m.items == nil {
		m.items = map[int64]*entity.CoreBookingItem{}
	}
	m.items[item.SheetItemID] = item
	return nil
}

func (m *mockCoreBookingRepo) GetBySheetItemID(ctx context.Context, sheetItemID int64) (*entity.CoreBookingItem, error) {
	return m.items[sheetItemID], nil
}

// mockTxManager runs fn directly; rollback is not simulated
type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockLock struct {
	released *int
}

func (l mockLock) Release(ctx context.Context) error {
	*l.released++
	return nil
}

type mockLocker struct {
	obtainFunc func(ctx context.Context, key string, ttl time.Duration) (port.Lock, error)
	keys       []string
	released   int
}

func (m *mockLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (port.Lock, error) {
	if m.obtainFunc != nil {
		return m.obtainFunc(ctx, key, ttl)
	}
	m.keys = append(m.keys, key)
	return mockLock{released: &m.released}, nil
}
