package zerodha

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/openkite/goindiatrader/common"
	"github.com/openkite/goindiatrader/config"
	exchange "github.com/openkite/goindiatrader/exchanges"
	"github.com/openkite/goindiatrader/exchanges/account"
	"github.com/openkite/goindiatrader/exchanges/kline"
	"github.com/openkite/goindiatrader/exchanges/order"
	"github.com/openkite/goindiatrader/exchanges/ticker"
	"github.com/openkite/goindiatrader/exchanges/trade"
)

// quoteCurrency is the settlement currency for Indian equities. Unified
// pairs take the form "EXCHANGE:TRADINGSYMBOL/INR", e.g. "NSE:INFY/INR"
const quoteCurrency = "INR"

const (
	defaultVariety  = "regular"
	defaultValidity = "DAY"

	// default lookback window for historic candles when no start is given
	defaultCandleLookback = 30 * 24 * time.Hour
)

// orderStatuses maps Kite order states onto the unified status set
var orderStatuses = map[string]order.Status{
	"OPEN":            order.Open,
	"TRIGGER PENDING": order.TriggerPending,
	"COMPLETE":        order.Filled,
	"CANCELLED":       order.Cancelled,
	"REJECTED":        order.Rejected,
}

// orderTypes maps Kite order types onto the unified type set
var orderTypes = map[string]order.Type{
	"MARKET": order.Market,
	"LIMIT":  order.Limit,
	"SL":     order.StopLimit,
	"SL-M":   order.StopMarket,
}

// klineIntervals maps unified intervals onto Kite interval names
var klineIntervals = map[kline.Interval]string{
	kline.OneMin:     "minute",
	kline.ThreeMin:   "3minute",
	kline.FiveMin:    "5minute",
	kline.TenMin:     "10minute",
	kline.FifteenMin: "15minute",
	kline.ThirtyMin:  "30minute",
	kline.OneHour:    "60minute",
	kline.OneDay:     "day",
}

// SetDefaults sets the basic defaults for Zerodha
func (z *Zerodha) SetDefaults() {
	z.Name = "Zerodha"
	z.Enabled = true
	z.API.CredentialsValidator.RequiresKey = true
	z.API.CredentialsValidator.RequiresSecret = true
	z.API.Endpoints.URLDefault = kiteAPIURL
	z.API.Endpoints.URL = kiteAPIURL
	z.HTTPTimeout = exchange.DefaultHTTPTimeout
	z.HTTPClient = common.NewHTTPClientWithTimeout(z.HTTPTimeout)
	z.instruments = make(map[string]Instrument)
}

// Setup takes in the supplied exchange configuration details and sets params
func (z *Zerodha) Setup(cfg *config.ExchangeConfig) error {
	if !cfg.Enabled {
		z.SetEnabled(false)
		return nil
	}
	z.SetupDefaults(cfg)
	z.tokenCachePath = cfg.TokenCachePath
	return nil
}

// FetchTradablePairs returns the unified pairs of every tradable equity
// instrument
func (z *Zerodha) FetchTradablePairs(ctx context.Context) ([]string, error) {
	if err := z.UpdateInstruments(ctx); err != nil {
		return nil, err
	}

	z.mtx.RLock()
	defer z.mtx.RUnlock()
	pairs := make([]string, 0, len(z.instruments))
	for k := range z.instruments {
		pairs = append(pairs, k+"/"+quoteCurrency)
	}
	return pairs, nil
}

// UpdateInstruments refreshes the instrument master, retaining equity
// instruments keyed by "EXCHANGE:TRADINGSYMBOL". The broker refreshes the
// dump each morning so one update per session is enough
func (z *Zerodha) UpdateInstruments(ctx context.Context) error {
	instruments, err := z.GetInstruments(ctx, "")
	if err != nil {
		return err
	}

	m := make(map[string]Instrument)
	for i := range instruments {
		if instruments[i].InstrumentType != "EQ" {
			continue
		}
		m[instruments[i].Exchange+":"+instruments[i].TradingSymbol] = instruments[i]
	}

	z.mtx.Lock()
	z.instruments = m
	z.mtx.Unlock()

	if z.Verbose {
		log.WithFields(log.Fields{
			"exchange":    z.Name,
			"instruments": len(m),
		}).Debug("instrument master updated")
	}
	return nil
}

// Instrument returns the instrument backing a unified pair. UpdateInstruments
// must have populated the instrument master first
func (z *Zerodha) Instrument(pair string) (Instrument, error) {
	id, err := quoteID(pair)
	if err != nil {
		return Instrument{}, err
	}

	z.mtx.RLock()
	defer z.mtx.RUnlock()
	inst, ok := z.instruments[id]
	if !ok {
		return Instrument{}, fmt.Errorf("%w: unknown instrument %s, update the instrument master first",
			exchange.ErrBadRequest, pair)
	}
	return inst, nil
}

// UpdateTicker updates and returns the ticker for a unified pair
func (z *Zerodha) UpdateTicker(ctx context.Context, pair string) (*ticker.Price, error) {
	id, err := quoteID(pair)
	if err != nil {
		return nil, err
	}

	quotes, err := z.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	q, ok := quotes[id]
	if !ok {
		return nil, fmt.Errorf("%w: no quote returned for %s", exchange.ErrExchangeError, id)
	}

	p := z.parseTicker(pair, &q)
	if err := ticker.ProcessTicker(p); err != nil {
		return nil, err
	}
	return p, nil
}

// FetchTicker returns the last cached ticker for a unified pair, updating it
// when no cached copy exists
func (z *Zerodha) FetchTicker(ctx context.Context, pair string) (*ticker.Price, error) {
	p, err := ticker.GetTicker(z.Name, pair)
	if err != nil {
		return z.UpdateTicker(ctx, pair)
	}
	return p, nil
}

func (z *Zerodha) parseTicker(pair string, q *Quote) *ticker.Price {
	p := &ticker.Price{
		Pair:          pair,
		Last:          q.LastPrice,
		High:          q.OHLC.High,
		Low:           q.OHLC.Low,
		Open:          q.OHLC.Open,
		Close:         q.LastPrice,
		PreviousClose: q.OHLC.Close,
		Volume:        q.Volume,
		ExchangeName:  z.Name,
		LastUpdated:   q.Timestamp.Time,
	}
	if len(q.Depth.Buy) > 0 {
		p.Bid = q.Depth.Buy[0].Price
		p.BidSize = float64(q.Depth.Buy[0].Quantity)
	}
	if len(q.Depth.Sell) > 0 {
		p.Ask = q.Depth.Sell[0].Price
		p.AskSize = float64(q.Depth.Sell[0].Quantity)
	}
	return p
}

// GetHistoricCandles returns candles for a unified pair within the requested
// time range
func (z *Zerodha) GetHistoricCandles(ctx context.Context, pair string, interval kline.Interval, start, end time.Time) (kline.Item, error) {
	kiteInterval, ok := klineIntervals[interval]
	if !ok {
		return kline.Item{}, fmt.Errorf("%w: %s", kline.ErrUnsupportedInterval, interval.Short())
	}

	inst, err := z.Instrument(pair)
	if err != nil {
		return kline.Item{}, err
	}

	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.Add(-defaultCandleLookback)
	}

	candles, err := z.GetHistoricalData(ctx, inst.InstrumentToken, kiteInterval, start, end)
	if err != nil {
		return kline.Item{}, err
	}

	item := kline.Item{
		Exchange: z.Name,
		Pair:     pair,
		Interval: interval,
		Candles:  make([]kline.Candle, 0, len(candles)),
	}
	for i := range candles {
		item.Candles = append(item.Candles, kline.Candle{
			Time:   candles[i].Timestamp.Time,
			Open:   candles[i].Open,
			High:   candles[i].High,
			Low:    candles[i].Low,
			Close:  candles[i].Close,
			Volume: candles[i].Volume,
		})
	}
	item.SortCandlesByTimestamp(false)
	return item, nil
}

// UpdateAccountInfo retrieves cash margins and demat holdings and merges
// them into unified account holdings. The INR balance comes from the equity
// margin segment; every demat holding becomes a balance under its
// "EXCHANGE:TRADINGSYMBOL" identifier
func (z *Zerodha) UpdateAccountInfo(ctx context.Context) (account.Holdings, error) {
	margins, err := z.GetMargins(ctx)
	if err != nil {
		return account.Holdings{}, err
	}
	holdings, err := z.GetHoldings(ctx)
	if err != nil {
		return account.Holdings{}, err
	}

	var acc account.SubAccount
	cash := margins.Equity.Available.Cash
	net := margins.Equity.Net
	hold := net - cash
	if hold < 0 {
		hold = 0
	}
	acc.Currencies = append(acc.Currencies, account.Balance{
		Currency: quoteCurrency,
		Total:    net,
		Free:     cash,
		Hold:     hold,
	})

	for i := range holdings {
		if holdings[i].Quantity <= 0 {
			continue
		}
		acc.Currencies = append(acc.Currencies, account.Balance{
			Currency: holdings[i].Exchange + ":" + holdings[i].TradingSymbol,
			Total:    holdings[i].Quantity,
			Free:     holdings[i].Quantity,
		})
	}

	resp := account.Holdings{
		Exchange: z.Name,
		Accounts: []account.SubAccount{acc},
	}
	if err := account.Process(&resp); err != nil {
		return account.Holdings{}, err
	}
	return resp, nil
}

// FetchAccountInfo returns the last processed account holdings, updating
// them when none exist
func (z *Zerodha) FetchAccountInfo(ctx context.Context) (account.Holdings, error) {
	acc, err := account.GetHoldings(z.Name)
	if err != nil {
		return z.UpdateAccountInfo(ctx)
	}
	return acc, nil
}

// SubmitOrder submits a new order
func (z *Zerodha) SubmitOrder(ctx context.Context, s *order.Submit) (order.SubmitResponse, error) {
	var resp order.SubmitResponse
	if err := s.Validate(); err != nil {
		return resp, err
	}

	segment, symbol, err := splitPair(s.Pair)
	if err != nil {
		return resp, err
	}

	quantity := int64(s.Amount)
	if float64(quantity) != s.Amount {
		return resp, fmt.Errorf("%w: amount must be a whole number of shares", order.ErrAmountIsInvalid)
	}

	variety := s.Variety
	if variety == "" {
		variety = defaultVariety
	}
	validity := s.Validity
	if validity == "" {
		validity = defaultValidity
	}
	// Tag fills so they can be correlated back to this client
	tag := s.Tag
	if tag == "" {
		tag = "goit" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}

	params := &OrderParams{
		Exchange:        segment,
		TradingSymbol:   symbol,
		TransactionType: s.Side.String(),
		OrderType:       kiteOrderType(s.Type),
		Quantity:        quantity,
		Product:         strings.ToUpper(s.Product),
		Validity:        strings.ToUpper(validity),
		Price:           s.Price,
		TriggerPrice:    s.TriggerPrice,
		Tag:             tag,
	}

	orderID, err := z.PlaceOrder(ctx, variety, params)
	if err != nil {
		return resp, err
	}
	resp.IsOrderPlaced = true
	resp.OrderID = orderID
	return resp, nil
}

// ModifyOrder amends a pending order
func (z *Zerodha) ModifyOrder(ctx context.Context, action *order.Modify) (string, error) {
	if action == nil || action.ID == "" {
		return "", order.ErrOrderIDIsEmpty
	}
	variety := action.Variety
	if variety == "" {
		variety = defaultVariety
	}

	params := &OrderParams{
		Quantity:     int64(action.Amount),
		Price:        action.Price,
		TriggerPrice: action.TriggerPrice,
		Validity:     strings.ToUpper(action.Validity),
	}
	if action.Type != "" && action.Type != order.UnknownType {
		params.OrderType = kiteOrderType(action.Type)
	}

	return z.ModifyExistingOrder(ctx, variety, action.ID, params)
}

// CancelOrder cancels an order by its corresponding ID number
func (z *Zerodha) CancelOrder(ctx context.Context, o *order.Cancel) error {
	if o == nil || o.ID == "" {
		return order.ErrOrderIDIsEmpty
	}
	variety := o.Variety
	if variety == "" {
		variety = defaultVariety
	}
	_, err := z.CancelExistingOrder(ctx, variety, o.ID)
	return err
}

// GetOrderInfo returns the latest state of an order
func (z *Zerodha) GetOrderInfo(ctx context.Context, orderID string) (order.Detail, error) {
	if orderID == "" {
		return order.Detail{}, order.ErrOrderIDIsEmpty
	}
	states, err := z.GetOrderStates(ctx, orderID)
	if err != nil {
		return order.Detail{}, err
	}
	if len(states) == 0 {
		return order.Detail{}, fmt.Errorf("%w: order %s not found", exchange.ErrInvalidOrder, orderID)
	}
	// The history endpoint returns every state transition in order, the
	// last entry is the current state
	return z.parseOrder(&states[len(states)-1]), nil
}

// GetActiveOrders retrieves any open orders for the current trading day
func (z *Zerodha) GetActiveOrders(ctx context.Context, req *order.GetOrdersRequest) ([]order.Detail, error) {
	return z.getOrdersByStatus(ctx, req, order.Open, order.TriggerPending)
}

// GetOrderHistory retrieves the completed, cancelled and rejected orders of
// the current trading day
func (z *Zerodha) GetOrderHistory(ctx context.Context, req *order.GetOrdersRequest) ([]order.Detail, error) {
	return z.getOrdersByStatus(ctx, req, order.Filled, order.Cancelled, order.Rejected)
}

func (z *Zerodha) getOrdersByStatus(ctx context.Context, req *order.GetOrdersRequest, statuses ...order.Status) ([]order.Detail, error) {
	raw, err := z.GetOrders(ctx)
	if err != nil {
		return nil, err
	}

	var details []order.Detail
	for i := range raw {
		d := z.parseOrder(&raw[i])
		for j := range statuses {
			if d.Status == statuses[j] {
				details = append(details, d)
				break
			}
		}
	}

	if req != nil {
		order.FilterOrdersByPairs(&details, req.Pairs)
		order.FilterOrdersBySide(&details, req.Side)
		order.FilterOrdersByTimeRange(&details, req.StartTime, req.EndTime)
	}
	order.SortOrdersByDate(&details, false)
	return details, nil
}

// GetMyTrades returns the fills of the current trading day, optionally
// filtered to a unified pair
func (z *Zerodha) GetMyTrades(ctx context.Context, pair string) ([]trade.Data, error) {
	raw, err := z.GetTrades(ctx)
	if err != nil {
		return nil, err
	}

	var trades []trade.Data
	for i := range raw {
		t := z.parseTrade(&raw[i])
		if pair != "" && !strings.EqualFold(t.Pair, pair) {
			continue
		}
		trades = append(trades, t)
	}
	return trades, nil
}

// GetFeeByType returns an estimate of fee based on the type of transaction
func (z *Zerodha) GetFeeByType(feeBuilder *exchange.FeeBuilder) (float64, error) {
	return z.GetFee(feeBuilder)
}

func (z *Zerodha) parseOrder(o *Order) order.Detail {
	status, ok := orderStatuses[o.Status]
	if !ok {
		status = order.UnknownStatus
	}
	oType, ok := orderTypes[o.OrderType]
	if !ok {
		oType = order.UnknownType
	}

	var cost float64
	if o.FilledQuantity > 0 && o.AveragePrice > 0 {
		cost = o.FilledQuantity * o.AveragePrice
	}

	return order.Detail{
		Exchange:        z.Name,
		ID:              o.OrderID,
		ClientOrderID:   o.Tag,
		Pair:            unifiedPair(o.Exchange, o.TradingSymbol),
		Side:            order.Side(o.TransactionType),
		Type:            oType,
		Status:          status,
		Price:           o.Price,
		AveragePrice:    o.AveragePrice,
		TriggerPrice:    o.TriggerPrice,
		Amount:          o.Quantity,
		ExecutedAmount:  o.FilledQuantity,
		RemainingAmount: o.PendingQuantity,
		Cost:            cost,
		Validity:        o.Validity,
		Product:         o.Product,
		StatusMessage:   o.StatusMessage,
		Date:            o.OrderTimestamp.Time,
	}
}

func (z *Zerodha) parseTrade(t *Trade) trade.Data {
	return trade.Data{
		ID:        t.TradeID,
		OrderID:   t.OrderID,
		Exchange:  z.Name,
		Pair:      unifiedPair(t.Exchange, t.TradingSymbol),
		Side:      order.Side(t.TransactionType),
		Price:     t.Price,
		Amount:    t.Quantity,
		Cost:      t.Price * t.Quantity,
		Timestamp: t.FillTimestamp.Time,
	}
}

func kiteOrderType(t order.Type) string {
	switch t {
	case order.StopLimit:
		return "SL"
	case order.StopMarket:
		return "SL-M"
	default:
		return t.String()
	}
}

// splitPair splits a unified "EXCHANGE:TRADINGSYMBOL/INR" pair into its
// exchange segment and trading symbol
func splitPair(pair string) (segment, symbol string, err error) {
	base, quote, found := strings.Cut(pair, "/")
	if !found || quote != quoteCurrency {
		return "", "", fmt.Errorf("%w: pair %q must be quoted in %s", exchange.ErrBadRequest, pair, quoteCurrency)
	}
	segment, symbol, found = strings.Cut(base, ":")
	if !found || segment == "" || symbol == "" {
		return "", "", fmt.Errorf("%w: pair %q must take the form EXCHANGE:TRADINGSYMBOL/%s", exchange.ErrBadRequest, pair, quoteCurrency)
	}
	return segment, symbol, nil
}

// quoteID converts a unified pair into the "EXCHANGE:TRADINGSYMBOL" form the
// quote endpoints expect
func quoteID(pair string) (string, error) {
	segment, symbol, err := splitPair(pair)
	if err != nil {
		return "", err
	}
	return segment + ":" + symbol, nil
}

func unifiedPair(segment, symbol string) string {
	return segment + ":" + symbol + "/" + quoteCurrency
}
