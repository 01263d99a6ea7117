package service

import (
	"context"
	"errors"
	"time"

	redisDal "cex-match/biz/dal/redis"
	"cex-match/biz/model"
	"cex-match/biz/util"
	cexutil "cex-match/util"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrSymbolBusy 同一交易对已有一轮撮合在跑
var ErrSymbolBusy = errors.New("matching already in flight for symbol")

// ExecutionOutcome 单笔成交在结算阶段的三种结果
type ExecutionOutcome int

const (
	OutcomeSettled ExecutionOutcome = iota
	OutcomeSkippedInsufficientFunds
	OutcomeInvalid
)

func (o ExecutionOutcome) String() string {
	switch o {
	case OutcomeSettled:
		return "settled"
	case OutcomeSkippedInsufficientFunds:
		return "skipped_insufficient_funds"
	case OutcomeInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// MatchReport 一轮撮合的结果
// Proposed 为撮合算法产生的成交笔数，Settled 为实际结算成功的笔数
type MatchReport struct {
	Symbol   string
	Proposed int
	Settled  int
	Outcomes []ExecutionOutcome
}

// MatchService 撮合编排：读单 -> 撮合 -> 逐笔结算 -> 单事务提交
type MatchService struct {
	stores     StoreFactory
	locker     SymbolLocker
	feeRate    decimal.Decimal
	quoteCoins []string
	nodeID     string
	audit      *zap.Logger
}

func NewMatchService(stores StoreFactory, locker SymbolLocker, feeRate decimal.Decimal, quoteCoins []string, nodeID string, audit *zap.Logger) *MatchService {
	return &MatchService{
		stores:     stores,
		locker:     locker,
		feeRate:    feeRate,
		quoteCoins: quoteCoins,
		nodeID:     nodeID,
		audit:      audit,
	}
}

type balanceKey struct {
	userID uint64
	coin   string
}

// RunMatching 对一个交易对执行一轮撮合
// 整个 读单-撮合-结算-提交 序列持有该交易对的互斥锁
// 全部写操作在一个事务内提交，任一步失败整体回滚
func (s *MatchService) RunMatching(ctx context.Context, symbol string) (*MatchReport, error) {
	baseCoin, quoteCoin, err := util.SplitSymbol(symbol, s.quoteCoins)
	if err != nil {
		return nil, err
	}
	clean := baseCoin + quoteCoin

	release, err := s.locker.Lock(ctx, clean)
	if err != nil {
		return nil, err
	}
	defer release()

	report := &MatchReport{Symbol: clean}
	var events []SettlementEvent
	var filled []*model.Order

	err = s.stores.InTransaction(ctx, func(st Stores) error {
		buyRows, err := st.Orders.OpenOrders(ctx, clean, model.SideBuy)
		if err != nil {
			return err
		}
		sellRows, err := st.Orders.OpenOrders(ctx, clean, model.SideSell)
		if err != nil {
			return err
		}

		buys := make([]BookOrder, 0, len(buyRows))
		for _, o := range buyRows {
			buys = append(buys, BookOrderFromModel(o))
		}
		sells := make([]BookOrder, 0, len(sellRows))
		for _, o := range sellRows {
			sells = append(sells, BookOrderFromModel(o))
		}

		matches := MatchOrders(buys, sells)
		report.Proposed = len(matches)
		if len(matches) == 0 {
			return nil
		}

		byID := make(map[uint64]*model.Order, len(buyRows)+len(sellRows))
		for i := range buyRows {
			byID[buyRows[i].OrderID] = &buyRows[i]
		}
		for i := range sellRows {
			byID[sellRows[i].OrderID] = &sellRows[i]
		}

		// 批次内按 (user, coin) 共享余额对象，后面的成交能看到前面成交的变动
		balances := make(map[balanceKey]*model.Balance)

		for _, m := range matches {
			outcome, ev, err := s.settleExecution(ctx, st, byID, balances, &filled, m, clean, baseCoin, quoteCoin)
			if err != nil {
				return err
			}
			report.Outcomes = append(report.Outcomes, outcome)
			if outcome == OutcomeSettled {
				report.Settled++
				events = append(events, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 提交成功后才对外发布
	if len(events) > 0 {
		PublishSettlements(events)
		for _, ev := range events {
			redisDal.CacheSettlement(clean, ev, 100)
		}
	}
	for _, o := range filled {
		redisDal.RemoveUserActiveOrder(o.UserID, o.OrderID)
	}

	hlog.Infof("撮合完成, symbol=%s, proposed=%d, settled=%d", clean, report.Proposed, report.Settled)
	return report, nil
}

func (s *MatchService) getBalance(ctx context.Context, st Stores, balances map[balanceKey]*model.Balance, userID uint64, coin string) (*model.Balance, error) {
	key := balanceKey{userID: userID, coin: coin}
	if bal, ok := balances[key]; ok {
		return bal, nil
	}
	bal, err := st.Balances.GetOrCreate(ctx, userID, coin)
	if err != nil {
		return nil, err
	}
	balances[key] = bal
	return bal, nil
}

// settleExecution 结算单笔成交
// 偿付能力不足时整笔跳过：不动余额、不动订单、不记流水，后续成交照常处理
func (s *MatchService) settleExecution(ctx context.Context, st Stores, byID map[uint64]*model.Order, balances map[balanceKey]*model.Balance, filled *[]*model.Order, m MatchExecution, symbol, baseCoin, quoteCoin string) (ExecutionOutcome, SettlementEvent, error) {
	buyOrder, okBuy := byID[m.BuyOrderID]
	sellOrder, okSell := byID[m.SellOrderID]
	if !okBuy || !okSell || m.Amount.Sign() <= 0 {
		s.auditExecution(symbol, m, OutcomeInvalid, SettlementResult{})
		return OutcomeInvalid, SettlementEvent{}, nil
	}

	buyerQuote, err := s.getBalance(ctx, st, balances, buyOrder.UserID, quoteCoin)
	if err != nil {
		return OutcomeInvalid, SettlementEvent{}, err
	}
	buyerBase, err := s.getBalance(ctx, st, balances, buyOrder.UserID, baseCoin)
	if err != nil {
		return OutcomeInvalid, SettlementEvent{}, err
	}
	sellerBase, err := s.getBalance(ctx, st, balances, sellOrder.UserID, baseCoin)
	if err != nil {
		return OutcomeInvalid, SettlementEvent{}, err
	}
	sellerQuote, err := s.getBalance(ctx, st, balances, sellOrder.UserID, quoteCoin)
	if err != nil {
		return OutcomeInvalid, SettlementEvent{}, err
	}

	settlement := SettleTrade(m.Price, m.Amount, s.feeRate)

	requiredQuote := settlement.BuyerQuoteDelta.Neg()
	requiredBase := settlement.SellerBaseDelta.Neg()
	if buyerQuote.Amount.Cmp(requiredQuote) < 0 || sellerBase.Amount.Cmp(requiredBase) < 0 {
		s.auditExecution(symbol, m, OutcomeSkippedInsufficientFunds, settlement)
		return OutcomeSkippedInsufficientFunds, SettlementEvent{}, nil
	}

	buyerQuote.Amount = buyerQuote.Amount.Add(settlement.BuyerQuoteDelta)
	buyerBase.Amount = buyerBase.Amount.Add(settlement.BuyerBaseDelta)
	sellerBase.Amount = sellerBase.Amount.Add(settlement.SellerBaseDelta)
	sellerQuote.Amount = sellerQuote.Amount.Add(settlement.SellerQuoteDelta)
	for _, bal := range []*model.Balance{buyerQuote, buyerBase, sellerBase, sellerQuote} {
		if err := st.Balances.Save(ctx, bal); err != nil {
			return OutcomeInvalid, SettlementEvent{}, err
		}
	}

	buyOrder.Amount = buyOrder.Amount.Sub(m.Amount)
	sellOrder.Amount = sellOrder.Amount.Sub(m.Amount)
	for _, o := range []*model.Order{buyOrder, sellOrder} {
		if o.Amount.IsZero() {
			o.Status = model.OrderStatusFilled
			*filled = append(*filled, o)
		}
		if err := st.Orders.SaveFill(ctx, o); err != nil {
			return OutcomeInvalid, SettlementEvent{}, err
		}
	}

	now := time.Now().UnixMilli()
	buyTx := &model.Transaction{
		UserID:    buyOrder.UserID,
		Coin:      baseCoin,
		Amount:    settlement.BuyerBaseDelta,
		Type:      model.TxTypeTradeBuy,
		Status:    model.TxStatusCompleted,
		CreatedAt: now,
	}
	sellTx := &model.Transaction{
		UserID:    sellOrder.UserID,
		Coin:      quoteCoin,
		Amount:    settlement.SellerQuoteDelta,
		Type:      model.TxTypeTradeSell,
		Status:    model.TxStatusCompleted,
		CreatedAt: now,
	}
	if err := st.Ledger.Append(ctx, buyTx); err != nil {
		return OutcomeInvalid, SettlementEvent{}, err
	}
	if err := st.Ledger.Append(ctx, sellTx); err != nil {
		return OutcomeInvalid, SettlementEvent{}, err
	}

	eventID, err := cexutil.GenerateEventID()
	if err != nil {
		return OutcomeInvalid, SettlementEvent{}, err
	}
	s.auditExecution(symbol, m, OutcomeSettled, settlement)

	ev := SettlementEvent{
		EventID:     eventID,
		Symbol:      symbol,
		BuyOrderID:  buyOrder.OrderID,
		SellOrderID: sellOrder.OrderID,
		BuyUserID:   buyOrder.UserID,
		SellUserID:  sellOrder.UserID,
		Price:       m.Price.String(),
		Amount:      m.Amount.String(),
		BuyerFee:    settlement.BuyerFee.String(),
		SellerFee:   settlement.SellerFee.String(),
		Timestamp:   now,
		NodeID:      s.nodeID,
	}
	return OutcomeSettled, ev, nil
}

func (s *MatchService) auditExecution(symbol string, m MatchExecution, outcome ExecutionOutcome, settlement SettlementResult) {
	if s.audit == nil {
		return
	}
	s.audit.Info("settlement",
		zap.String("symbol", symbol),
		zap.String("outcome", outcome.String()),
		zap.Uint64("buy_order_id", m.BuyOrderID),
		zap.Uint64("sell_order_id", m.SellOrderID),
		zap.String("price", m.Price.String()),
		zap.String("amount", m.Amount.String()),
		zap.String("buyer_fee", settlement.BuyerFee.String()),
		zap.String("seller_fee", settlement.SellerFee.String()),
		zap.String("node_id", s.nodeID),
	)
}
