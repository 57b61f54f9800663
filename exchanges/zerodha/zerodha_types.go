package zerodha

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// indiaTime is the exchange local zone. Kite emits naive timestamps in IST.
var indiaTime = time.FixedZone("IST", 5*60*60+30*60)

// kiteTime covers the timestamp formats Kite emits: naive "2006-01-02
// 15:04:05" strings in IST on order and trade records, and zoned RFC3339
// variants on candle data
type kiteTime struct {
	time.Time
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (k *kiteTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		k.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05-0700",
		time.RFC3339,
		"2006-01-02",
	} {
		if t, err := time.ParseInLocation(layout, s, indiaTime); err == nil {
			k.Time = t
			return nil
		}
	}
	return fmt.Errorf("unable to parse kite timestamp %q", s)
}

// kiteEnvelope is the response wrapper every Kite endpoint returns:
// {"status": "success", "data": ...} or
// {"status": "error", "message": ..., "error_type": ...}
type kiteEnvelope struct {
	Status    string          `json:"status"`
	Data      json.RawMessage `json:"data"`
	Message   string          `json:"message"`
	ErrorType string          `json:"error_type"`
}

// Instrument is a single row of the instruments master dump. The dump is
// served as CSV, hence the csv tags
type Instrument struct {
	InstrumentToken uint32  `csv:"instrument_token"`
	ExchangeToken   uint32  `csv:"exchange_token"`
	TradingSymbol   string  `csv:"tradingsymbol"`
	Name            string  `csv:"name"`
	LastPrice       float64 `csv:"last_price"`
	Expiry          string  `csv:"expiry"`
	Strike          float64 `csv:"strike"`
	TickSize        float64 `csv:"tick_size"`
	LotSize         int64   `csv:"lot_size"`
	InstrumentType  string  `csv:"instrument_type"`
	Segment         string  `csv:"segment"`
	Exchange        string  `csv:"exchange"`
}

// DepthItem is a single level of the five level market depth block
type DepthItem struct {
	Price    float64 `json:"price"`
	Quantity int64   `json:"quantity"`
	Orders   int64   `json:"orders"`
}

// Quote holds a full market quote for one instrument
type Quote struct {
	InstrumentToken uint32   `json:"instrument_token"`
	Timestamp       kiteTime `json:"timestamp"`
	LastTradeTime   kiteTime `json:"last_trade_time"`
	LastPrice       float64  `json:"last_price"`
	LastQuantity    int64    `json:"last_quantity"`
	BuyQuantity     int64    `json:"buy_quantity"`
	SellQuantity    int64    `json:"sell_quantity"`
	Volume          float64  `json:"volume"`
	AveragePrice    float64  `json:"average_price"`
	OpenInterest    float64  `json:"oi"`
	NetChange       float64  `json:"net_change"`
	OHLC            struct {
		Open  float64 `json:"open"`
		High  float64 `json:"high"`
		Low   float64 `json:"low"`
		Close float64 `json:"close"`
	} `json:"ohlc"`
	Depth struct {
		Buy  []DepthItem `json:"buy"`
		Sell []DepthItem `json:"sell"`
	} `json:"depth"`
}

// OHLCQuote is the abbreviated quote returned by the quote/ohlc endpoint
type OHLCQuote struct {
	InstrumentToken uint32  `json:"instrument_token"`
	LastPrice       float64 `json:"last_price"`
	OHLC            struct {
		Open  float64 `json:"open"`
		High  float64 `json:"high"`
		Low   float64 `json:"low"`
		Close float64 `json:"close"`
	} `json:"ohlc"`
}

// LTPQuote is the last traded price quote returned by the quote/ltp endpoint
type LTPQuote struct {
	InstrumentToken uint32  `json:"instrument_token"`
	LastPrice       float64 `json:"last_price"`
}

// MarginFunds is the available/utilised breakdown inside a margin segment
type MarginFunds struct {
	AdhocMargin   float64 `json:"adhoc_margin"`
	Cash          float64 `json:"cash"`
	Collateral    float64 `json:"collateral"`
	IntradayPayin float64 `json:"intraday_payin"`
	LiveBalance   float64 `json:"live_balance"`
	Debits        float64 `json:"debits"`
	Exposure      float64 `json:"exposure"`
	M2MRealised   float64 `json:"m2m_realised"`
	M2MUnrealised float64 `json:"m2m_unrealised"`
	OptionPremium float64 `json:"option_premium"`
	Payout        float64 `json:"payout"`
	Span          float64 `json:"span"`
	HoldingSales  float64 `json:"holding_sales"`
	Turnover      float64 `json:"turnover"`
}

// SegmentMargins holds the funds for one margin segment, equity or commodity
type SegmentMargins struct {
	Enabled   bool        `json:"enabled"`
	Net       float64     `json:"net"`
	Available MarginFunds `json:"available"`
	Utilised  MarginFunds `json:"utilised"`
}

// Margins is the full user/margins response
type Margins struct {
	Equity    SegmentMargins `json:"equity"`
	Commodity SegmentMargins `json:"commodity"`
}

// Holding is a single demat holding
type Holding struct {
	TradingSymbol      string  `json:"tradingsymbol"`
	Exchange           string  `json:"exchange"`
	InstrumentToken    uint32  `json:"instrument_token"`
	ISIN               string  `json:"isin"`
	Product            string  `json:"product"`
	Quantity           float64 `json:"quantity"`
	T1Quantity         float64 `json:"t1_quantity"`
	RealisedQuantity   float64 `json:"realised_quantity"`
	AuthorisedQuantity float64 `json:"authorised_quantity"`
	AveragePrice       float64 `json:"average_price"`
	LastPrice          float64 `json:"last_price"`
	ClosePrice         float64 `json:"close_price"`
	PnL                float64 `json:"pnl"`
	DayChange          float64 `json:"day_change"`
}

// Position is a single net or day position
type Position struct {
	TradingSymbol     string  `json:"tradingsymbol"`
	Exchange          string  `json:"exchange"`
	InstrumentToken   uint32  `json:"instrument_token"`
	Product           string  `json:"product"`
	Quantity          float64 `json:"quantity"`
	OvernightQuantity float64 `json:"overnight_quantity"`
	Multiplier        float64 `json:"multiplier"`
	AveragePrice      float64 `json:"average_price"`
	ClosePrice        float64 `json:"close_price"`
	LastPrice         float64 `json:"last_price"`
	Value             float64 `json:"value"`
	PnL               float64 `json:"pnl"`
	M2M               float64 `json:"m2m"`
	Unrealised        float64 `json:"unrealised"`
	Realised          float64 `json:"realised"`
	BuyQuantity       float64 `json:"buy_quantity"`
	BuyPrice          float64 `json:"buy_price"`
	BuyValue          float64 `json:"buy_value"`
	SellQuantity      float64 `json:"sell_quantity"`
	SellPrice         float64 `json:"sell_price"`
	SellValue         float64 `json:"sell_value"`
}

// Positions is the full portfolio/positions response
type Positions struct {
	Net []Position `json:"net"`
	Day []Position `json:"day"`
}

// Order is a single order record as returned by the orders endpoints
type Order struct {
	OrderID           string   `json:"order_id"`
	ParentOrderID     string   `json:"parent_order_id"`
	ExchangeOrderID   string   `json:"exchange_order_id"`
	Status            string   `json:"status"`
	StatusMessage     string   `json:"status_message"`
	OrderTimestamp    kiteTime `json:"order_timestamp"`
	ExchangeTimestamp kiteTime `json:"exchange_timestamp"`
	Variety           string   `json:"variety"`
	Exchange          string   `json:"exchange"`
	TradingSymbol     string   `json:"tradingsymbol"`
	InstrumentToken   uint32   `json:"instrument_token"`
	OrderType         string   `json:"order_type"`
	TransactionType   string   `json:"transaction_type"`
	Validity          string   `json:"validity"`
	Product           string   `json:"product"`
	Quantity          float64  `json:"quantity"`
	DisclosedQuantity float64  `json:"disclosed_quantity"`
	Price             float64  `json:"price"`
	TriggerPrice      float64  `json:"trigger_price"`
	AveragePrice      float64  `json:"average_price"`
	FilledQuantity    float64  `json:"filled_quantity"`
	PendingQuantity   float64  `json:"pending_quantity"`
	CancelledQuantity float64  `json:"cancelled_quantity"`
	Tag               string   `json:"tag"`
}

// Trade is a single fill as returned by the trades endpoints
type Trade struct {
	TradeID           string   `json:"trade_id"`
	OrderID           string   `json:"order_id"`
	ExchangeOrderID   string   `json:"exchange_order_id"`
	TradingSymbol     string   `json:"tradingsymbol"`
	Exchange          string   `json:"exchange"`
	InstrumentToken   uint32   `json:"instrument_token"`
	TransactionType   string   `json:"transaction_type"`
	Product           string   `json:"product"`
	Price             float64  `json:"average_price"`
	Quantity          float64  `json:"quantity"`
	FillTimestamp     kiteTime `json:"fill_timestamp"`
	OrderTimestamp    kiteTime `json:"order_timestamp"`
	ExchangeTimestamp kiteTime `json:"exchange_timestamp"`
}

// HistoricalCandle is one candle of the historical data endpoint. Kite packs
// candles as positional arrays [timestamp, open, high, low, close, volume]
type HistoricalCandle struct {
	Timestamp kiteTime
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (h *HistoricalCandle) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) < 6 {
		return fmt.Errorf("historical candle has %d fields, want at least 6", len(raw))
	}
	if err := json.Unmarshal(raw[0], &h.Timestamp); err != nil {
		return err
	}
	for i, target := range []*float64{&h.Open, &h.High, &h.Low, &h.Close, &h.Volume} {
		if err := json.Unmarshal(raw[i+1], target); err != nil {
			return err
		}
	}
	return nil
}

type historicalData struct {
	Candles []HistoricalCandle `json:"candles"`
}

// UserSession is issued by the session/token endpoint after a request token
// exchange
type UserSession struct {
	UserID       string   `json:"user_id"`
	UserName     string   `json:"user_name"`
	Email        string   `json:"email"`
	Broker       string   `json:"broker"`
	APIKey       string   `json:"api_key"`
	AccessToken  string   `json:"access_token"`
	PublicToken  string   `json:"public_token"`
	RefreshToken string   `json:"refresh_token"`
	LoginTime    kiteTime `json:"login_time"`
}

// UserProfile is the user/profile response
type UserProfile struct {
	UserID     string   `json:"user_id"`
	UserName   string   `json:"user_name"`
	Email      string   `json:"email"`
	UserType   string   `json:"user_type"`
	Broker     string   `json:"broker"`
	Exchanges  []string `json:"exchanges"`
	Products   []string `json:"products"`
	OrderTypes []string `json:"order_types"`
}

// OrderParams holds the parameters for placing or modifying an order
type OrderParams struct {
	Exchange          string
	TradingSymbol     string
	TransactionType   string
	OrderType         string
	Quantity          int64
	DisclosedQuantity int64
	Price             float64
	TriggerPrice      float64
	Product           string
	Validity          string
	Tag               string
}
