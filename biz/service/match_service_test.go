package service

import (
	"context"
	"errors"
	"sort"
	"testing"

	"cex-match/biz/model"
	"cex-match/biz/util"

	"github.com/shopspring/decimal"
)

// 内存 fake 仓储：GetOrCreate 返回副本，Save 写回，模拟数据库读写语义

type fakeDB struct {
	orders   map[uint64]*model.Order
	balances map[balanceKey]*model.Balance
	ledger   []model.Transaction
	nextID   uint64
}

func newFakeDB() *fakeDB {
	return &fakeDB{
		orders:   make(map[uint64]*model.Order),
		balances: make(map[balanceKey]*model.Balance),
	}
}

func (db *fakeDB) seedOrder(id, userID uint64, side, price, amount string, createdAt int64) {
	db.orders[id] = &model.Order{
		OrderID:   id,
		UserID:    userID,
		Symbol:    "BTCUSDT",
		Side:      side,
		Price:     d(price),
		Amount:    d(amount),
		Status:    model.OrderStatusOpen,
		CreatedAt: createdAt,
	}
}

func (db *fakeDB) seedBalance(userID uint64, coin, amount string) {
	db.nextID++
	db.balances[balanceKey{userID: userID, coin: coin}] = &model.Balance{
		ID:     db.nextID,
		UserID: userID,
		Coin:   coin,
		Amount: d(amount),
	}
}

func (db *fakeDB) balance(userID uint64, coin string) decimal.Decimal {
	if b, ok := db.balances[balanceKey{userID: userID, coin: coin}]; ok {
		return b.Amount
	}
	return decimal.Zero
}

type fakeOrderRepo struct{ db *fakeDB }

func (r *fakeOrderRepo) OpenOrders(ctx context.Context, symbol, side string) ([]model.Order, error) {
	var out []model.Order
	for _, o := range r.db.orders {
		if o.Symbol == symbol && o.Side == side && o.Status == model.OrderStatusOpen {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Price.Cmp(out[j].Price); c != 0 {
			if side == model.SideBuy {
				return c > 0
			}
			return c < 0
		}
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out, nil
}

func (r *fakeOrderRepo) SaveFill(ctx context.Context, order *model.Order) error {
	stored, ok := r.db.orders[order.OrderID]
	if !ok {
		return errors.New("order not found")
	}
	stored.Amount = order.Amount
	stored.Status = order.Status
	return nil
}

type fakeBalanceRepo struct{ db *fakeDB }

func (r *fakeBalanceRepo) GetOrCreate(ctx context.Context, userID uint64, coin string) (*model.Balance, error) {
	key := balanceKey{userID: userID, coin: coin}
	if b, ok := r.db.balances[key]; ok {
		cp := *b
		return &cp, nil
	}
	r.db.nextID++
	b := model.Balance{ID: r.db.nextID, UserID: userID, Coin: coin, Amount: decimal.Zero}
	r.db.balances[key] = &b
	cp := b
	return &cp, nil
}

func (r *fakeBalanceRepo) Save(ctx context.Context, bal *model.Balance) error {
	cp := *bal
	r.db.balances[balanceKey{userID: bal.UserID, coin: bal.Coin}] = &cp
	return nil
}

type fakeLedgerRepo struct{ db *fakeDB }

func (r *fakeLedgerRepo) Append(ctx context.Context, tx *model.Transaction) error {
	r.db.ledger = append(r.db.ledger, *tx)
	return nil
}

type fakeFactory struct{ db *fakeDB }

func (f *fakeFactory) InTransaction(ctx context.Context, fn func(Stores) error) error {
	return fn(Stores{
		Orders:   &fakeOrderRepo{db: f.db},
		Balances: &fakeBalanceRepo{db: f.db},
		Ledger:   &fakeLedgerRepo{db: f.db},
	})
}

func newTestMatchService(db *fakeDB) *MatchService {
	return NewMatchService(&fakeFactory{db: db}, NewLocalSymbolLocker(), DefaultTradingFeeRate, []string{"USDT"}, "test-node", nil)
}

func TestRunMatchingSettlesCrossingOrders(t *testing.T) {
	db := newFakeDB()
	db.seedOrder(1, 1, model.SideBuy, "101", "1", 1000)
	db.seedOrder(2, 2, model.SideSell, "100", "1", 1000)
	db.seedBalance(1, "USDT", "1000")
	db.seedBalance(2, "BTC", "5")

	svc := newTestMatchService(db)
	report, err := svc.RunMatching(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("RunMatching failed: %v", err)
	}
	if report.Proposed != 1 || report.Settled != 1 {
		t.Fatalf("report = proposed %d settled %d, want 1/1", report.Proposed, report.Settled)
	}

	// 成交价取卖方价格 100：买方付 100 USDT，到手 0.999 BTC；卖方出 1 BTC，到手 99.9 USDT
	if got := db.balance(1, "USDT"); !got.Equal(d("900")) {
		t.Errorf("buyer USDT = %s, want 900", got)
	}
	if got := db.balance(1, "BTC"); !got.Equal(d("0.999")) {
		t.Errorf("buyer BTC = %s, want 0.999", got)
	}
	if got := db.balance(2, "BTC"); !got.Equal(d("4")) {
		t.Errorf("seller BTC = %s, want 4", got)
	}
	if got := db.balance(2, "USDT"); !got.Equal(d("99.9")) {
		t.Errorf("seller USDT = %s, want 99.9", got)
	}

	for _, id := range []uint64{1, 2} {
		o := db.orders[id]
		if !o.Amount.IsZero() || o.Status != model.OrderStatusFilled {
			t.Errorf("order %d = amount %s status %s, want 0/filled", id, o.Amount, o.Status)
		}
	}

	if len(db.ledger) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(db.ledger))
	}
	buyTx, sellTx := db.ledger[0], db.ledger[1]
	if buyTx.Type != model.TxTypeTradeBuy || buyTx.UserID != 1 || buyTx.Coin != "BTC" || !buyTx.Amount.Equal(d("0.999")) {
		t.Errorf("buy ledger entry wrong: %+v", buyTx)
	}
	if sellTx.Type != model.TxTypeTradeSell || sellTx.UserID != 2 || sellTx.Coin != "USDT" || !sellTx.Amount.Equal(d("99.9")) {
		t.Errorf("sell ledger entry wrong: %+v", sellTx)
	}
	if buyTx.Status != model.TxStatusCompleted || sellTx.Status != model.TxStatusCompleted {
		t.Errorf("ledger entries must be completed")
	}
}

func TestRunMatchingNoOpenOrders(t *testing.T) {
	db := newFakeDB()
	// 只有买盘没有卖盘
	db.seedOrder(1, 1, model.SideBuy, "100", "1", 1000)
	db.seedBalance(1, "USDT", "1000")

	svc := newTestMatchService(db)
	report, err := svc.RunMatching(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("RunMatching failed: %v", err)
	}
	if report.Proposed != 0 || report.Settled != 0 {
		t.Errorf("report = proposed %d settled %d, want 0/0", report.Proposed, report.Settled)
	}
	if got := db.balance(1, "USDT"); !got.Equal(d("1000")) {
		t.Errorf("balance mutated on no-op pass: %s", got)
	}
	if o := db.orders[1]; !o.Amount.Equal(d("1")) || o.Status != model.OrderStatusOpen {
		t.Errorf("order mutated on no-op pass: %+v", o)
	}
	if len(db.ledger) != 0 {
		t.Errorf("ledger mutated on no-op pass: %d entries", len(db.ledger))
	}
}

func TestRunMatchingSkipsInsufficientFunds(t *testing.T) {
	db := newFakeDB()
	// bid 1 价格最高先成交，但 user 10 没有计价币，整笔跳过
	db.seedOrder(1, 10, model.SideBuy, "102", "1", 1000)
	db.seedOrder(2, 20, model.SideBuy, "101", "1", 2000)
	db.seedOrder(3, 30, model.SideSell, "100", "1", 1000)
	db.seedOrder(4, 40, model.SideSell, "100", "1", 2000)
	db.seedBalance(20, "USDT", "1000")
	db.seedBalance(30, "BTC", "1")
	db.seedBalance(40, "BTC", "1")

	svc := newTestMatchService(db)
	report, err := svc.RunMatching(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("RunMatching failed: %v", err)
	}
	if report.Proposed != 2 || report.Settled != 1 {
		t.Fatalf("report = proposed %d settled %d, want 2/1", report.Proposed, report.Settled)
	}
	if len(report.Outcomes) != 2 ||
		report.Outcomes[0] != OutcomeSkippedInsufficientFunds ||
		report.Outcomes[1] != OutcomeSettled {
		t.Fatalf("outcomes = %v, want [skipped, settled]", report.Outcomes)
	}

	// 被跳过的一对订单完全不动
	if o := db.orders[1]; !o.Amount.Equal(d("1")) || o.Status != model.OrderStatusOpen {
		t.Errorf("skipped bid mutated: %+v", o)
	}
	if o := db.orders[3]; !o.Amount.Equal(d("1")) || o.Status != model.OrderStatusOpen {
		t.Errorf("skipped ask mutated: %+v", o)
	}
	// 独立的一对照常结算
	if o := db.orders[2]; o.Status != model.OrderStatusFilled {
		t.Errorf("independent bid not settled: %+v", o)
	}
	if o := db.orders[4]; o.Status != model.OrderStatusFilled {
		t.Errorf("independent ask not settled: %+v", o)
	}
	if len(db.ledger) != 2 {
		t.Errorf("expected 2 ledger entries, got %d", len(db.ledger))
	}
}

func TestRunMatchingLaterExecutionSeesEarlierDeltas(t *testing.T) {
	db := newFakeDB()
	// 买方余额恰好够第一笔，第二笔必须因为第一笔的扣减而被跳过
	db.seedOrder(1, 1, model.SideBuy, "100", "2", 1000)
	db.seedOrder(2, 2, model.SideSell, "100", "1", 1000)
	db.seedOrder(3, 2, model.SideSell, "100", "1", 2000)
	db.seedBalance(1, "USDT", "100")
	db.seedBalance(2, "BTC", "10")

	svc := newTestMatchService(db)
	report, err := svc.RunMatching(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("RunMatching failed: %v", err)
	}
	if report.Proposed != 2 || report.Settled != 1 {
		t.Fatalf("report = proposed %d settled %d, want 2/1", report.Proposed, report.Settled)
	}
	if got := db.balance(1, "USDT"); !got.IsZero() {
		t.Errorf("buyer USDT = %s, want 0", got)
	}
	if o := db.orders[1]; !o.Amount.Equal(d("1")) || o.Status != model.OrderStatusOpen {
		t.Errorf("bid should keep 1 open after partial settle: %+v", o)
	}
	if o := db.orders[2]; o.Status != model.OrderStatusFilled {
		t.Errorf("first ask should fill: %+v", o)
	}
	if o := db.orders[3]; !o.Amount.Equal(d("1")) || o.Status != model.OrderStatusOpen {
		t.Errorf("second ask must stay open: %+v", o)
	}
}

func TestRunMatchingFilledOrdersNeverReappear(t *testing.T) {
	db := newFakeDB()
	db.seedOrder(1, 1, model.SideBuy, "100", "1", 1000)
	db.seedOrder(2, 2, model.SideSell, "100", "1", 1000)
	db.seedBalance(1, "USDT", "100")
	db.seedBalance(2, "BTC", "1")

	svc := newTestMatchService(db)
	if _, err := svc.RunMatching(context.Background(), "BTCUSDT"); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}
	report, err := svc.RunMatching(context.Background(), "BTCUSDT")
	if err != nil {
		t.Fatalf("second pass failed: %v", err)
	}
	if report.Proposed != 0 || report.Settled != 0 {
		t.Errorf("filled orders must not re-enter matching, report = %+v", report)
	}
}

func TestRunMatchingUnsupportedSymbol(t *testing.T) {
	svc := newTestMatchService(newFakeDB())
	for _, symbol := range []string{"FOO", "USDT", ""} {
		_, err := svc.RunMatching(context.Background(), symbol)
		if !errors.Is(err, util.ErrUnsupportedSymbol) {
			t.Errorf("RunMatching(%q) err = %v, want ErrUnsupportedSymbol", symbol, err)
		}
	}
}

func TestRunMatchingCommitFailureRollsBack(t *testing.T) {
	db := newFakeDB()
	db.seedOrder(1, 1, model.SideBuy, "100", "1", 1000)
	db.seedOrder(2, 2, model.SideSell, "100", "1", 1000)
	db.seedBalance(1, "USDT", "100")
	db.seedBalance(2, "BTC", "1")

	failErr := errors.New("commit failed")
	svc := NewMatchService(failingFactory{inner: &fakeFactory{db: db}, err: failErr},
		NewLocalSymbolLocker(), DefaultTradingFeeRate, []string{"USDT"}, "test-node", nil)

	_, err := svc.RunMatching(context.Background(), "BTCUSDT")
	if !errors.Is(err, failErr) {
		t.Fatalf("expected commit error to propagate, got %v", err)
	}
}

// failingFactory 模拟事务提交失败：执行完回调后返回错误
type failingFactory struct {
	inner StoreFactory
	err   error
}

func (f failingFactory) InTransaction(ctx context.Context, fn func(Stores) error) error {
	if err := f.inner.InTransaction(ctx, fn); err != nil {
		return err
	}
	return f.err
}
