package zerodha

import (
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	exchange "github.com/openkite/goindiatrader/exchanges"
	"github.com/openkite/goindiatrader/exchanges/kline"
	"github.com/openkite/goindiatrader/exchanges/order"
)

const (
	apiKey    = "testapikey"
	apiSecret = "testapisecret"
)

const instrumentsCSV = `instrument_token,exchange_token,tradingsymbol,name,last_price,expiry,strike,tick_size,lot_size,instrument_type,segment,exchange
408065,1594,INFY,INFOSYS,1388.6,,0,0.05,1,EQ,NSE,NSE
738561,2885,RELIANCE,RELIANCE INDUSTRIES,2431.5,,0,0.05,1,EQ,NSE,NSE
12073986,47164,NIFTY24AUGFUT,,0,2024-08-29,0,0.05,25,FUT,NFO-FUT,NFO
`

const quoteJSON = `{
 "status": "success",
 "data": {
  "NSE:INFY": {
   "instrument_token": 408065,
   "timestamp": "2024-05-31 15:29:59",
   "last_trade_time": "2024-05-31 15:29:58",
   "last_price": 1388.6,
   "last_quantity": 27,
   "buy_quantity": 5258,
   "sell_quantity": 12780,
   "volume": 7360198,
   "average_price": 1394.87,
   "net_change": -10.7,
   "ohlc": {"open": 1396, "high": 1404.45, "low": 1385.1, "close": 1399.3},
   "depth": {
    "buy": [{"price": 1388.6, "quantity": 150, "orders": 3}],
    "sell": [{"price": 1388.95, "quantity": 210, "orders": 2}]
   }
  }
 }
}`

const marginsJSON = `{
 "status": "success",
 "data": {
  "equity": {
   "enabled": true,
   "net": 99725.05,
   "available": {
    "adhoc_margin": 0,
    "cash": 245431.6,
    "collateral": 0,
    "intraday_payin": 0
   },
   "utilised": {
    "debits": 145706.55,
    "exposure": 38981.25,
    "span": 101989
   }
  },
  "commodity": {"enabled": false, "net": 0}
 }
}`

const holdingsJSON = `{
 "status": "success",
 "data": [
  {
   "tradingsymbol": "INFY",
   "exchange": "NSE",
   "instrument_token": 408065,
   "isin": "INE009A01021",
   "product": "CNC",
   "quantity": 50,
   "t1_quantity": 0,
   "average_price": 1350.2,
   "last_price": 1388.6,
   "pnl": 1920.0
  },
  {
   "tradingsymbol": "BHEL",
   "exchange": "BSE",
   "quantity": 0,
   "average_price": 75.2,
   "last_price": 72.1
  }
 ]
}`

const ordersJSON = `{
 "status": "success",
 "data": [
  {
   "order_id": "240531000000001",
   "status": "OPEN",
   "order_timestamp": "2024-05-31 09:16:02",
   "variety": "regular",
   "exchange": "NSE",
   "tradingsymbol": "INFY",
   "instrument_token": 408065,
   "order_type": "LIMIT",
   "transaction_type": "BUY",
   "validity": "DAY",
   "product": "CNC",
   "quantity": 10,
   "price": 1380,
   "trigger_price": 0,
   "average_price": 0,
   "filled_quantity": 0,
   "pending_quantity": 10,
   "tag": "goitabc"
  },
  {
   "order_id": "240531000000002",
   "status": "COMPLETE",
   "order_timestamp": "2024-05-31 10:05:43",
   "variety": "regular",
   "exchange": "NSE",
   "tradingsymbol": "RELIANCE",
   "order_type": "MARKET",
   "transaction_type": "SELL",
   "validity": "DAY",
   "product": "MIS",
   "quantity": 5,
   "price": 0,
   "average_price": 2430.8,
   "filled_quantity": 5,
   "pending_quantity": 0
  },
  {
   "order_id": "240531000000003",
   "status": "REJECTED",
   "status_message": "Insufficient funds",
   "order_timestamp": "2024-05-31 11:12:09",
   "exchange": "NSE",
   "tradingsymbol": "INFY",
   "order_type": "SL",
   "transaction_type": "BUY",
   "quantity": 100,
   "price": 1400,
   "trigger_price": 1398
  }
 ]
}`

const tradesJSON = `{
 "status": "success",
 "data": [
  {
   "trade_id": "10000001",
   "order_id": "240531000000002",
   "tradingsymbol": "RELIANCE",
   "exchange": "NSE",
   "transaction_type": "SELL",
   "product": "MIS",
   "average_price": 2430.8,
   "quantity": 5,
   "fill_timestamp": "2024-05-31 10:05:44"
  }
 ]
}`

const historicalJSON = `{
 "status": "success",
 "data": {
  "candles": [
   ["2024-05-30T09:15:00+0530", 1391, 1398.4, 1389.2, 1396, 1204532],
   ["2024-05-31T09:15:00+0530", 1396, 1404.45, 1385.1, 1388.6, 7360198]
  ]
 }
}`

// testInstance returns a configured exchange pointed at a mock Kite server
func testInstance(t *testing.T, handler http.Handler) *Zerodha {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	z := new(Zerodha)
	z.SetDefaults()
	z.API.Endpoints.URL = server.URL
	z.SetCredentials(apiKey, apiSecret, "testaccesstoken")
	z.tokenCachePath = filepath.Join(t.TempDir(), "zerodha.json")
	return z
}

func authHandler(t *testing.T, payload string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, kiteAPIVersion, r.Header.Get("X-Kite-Version"), "version header should be set")
		assert.Equal(t, "token "+apiKey+":testaccesstoken", r.Header.Get("Authorization"), "auth header should be set")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	})
}

func TestGetQuote(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "NSE:INFY", r.URL.Query().Get("i"))
		_, _ = w.Write([]byte(quoteJSON))
	}))

	quotes, err := z.GetQuote(context.Background(), "NSE:INFY")
	require.NoError(t, err)
	q, ok := quotes["NSE:INFY"]
	require.True(t, ok, "quote for requested instrument should be present")
	assert.Equal(t, 1388.6, q.LastPrice)
	assert.Equal(t, 1404.45, q.OHLC.High)
	assert.Equal(t, 1399.3, q.OHLC.Close)
	require.NotEmpty(t, q.Depth.Buy)
	assert.Equal(t, 1388.6, q.Depth.Buy[0].Price)
	assert.Equal(t, int64(150), q.Depth.Buy[0].Quantity)
	assert.Equal(t, 2024, q.Timestamp.Year())
}

func TestGetInstruments(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/instruments", r.URL.Path)
		_, _ = w.Write([]byte(instrumentsCSV))
	}))

	instruments, err := z.GetInstruments(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, instruments, 3)
	assert.Equal(t, "INFY", instruments[0].TradingSymbol)
	assert.Equal(t, uint32(408065), instruments[0].InstrumentToken)
	assert.Equal(t, 0.05, instruments[0].TickSize)
	assert.Equal(t, "FUT", instruments[2].InstrumentType)
}

func TestGetInstrumentsGzipped(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte(instrumentsCSV))
		_ = gz.Close()
	}))

	instruments, err := z.GetInstruments(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, instruments, 3)
}

func TestUpdateInstruments(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(instrumentsCSV))
	}))

	require.NoError(t, z.UpdateInstruments(context.Background()))

	// futures contracts are filtered out of the equity instrument master
	_, err := z.Instrument("NFO:NIFTY24AUGFUT/INR")
	assert.ErrorIs(t, err, exchange.ErrBadRequest)

	inst, err := z.Instrument("NSE:INFY/INR")
	require.NoError(t, err)
	assert.Equal(t, uint32(408065), inst.InstrumentToken)
	assert.Equal(t, int64(1), inst.LotSize)
}

func TestFetchTradablePairs(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(instrumentsCSV))
	}))

	pairs, err := z.FetchTradablePairs(context.Background())
	require.NoError(t, err)
	assert.Len(t, pairs, 2)
	assert.Contains(t, pairs, "NSE:INFY/INR")
	assert.Contains(t, pairs, "NSE:RELIANCE/INR")
}

func TestGetMargins(t *testing.T) {
	t.Parallel()
	z := testInstance(t, authHandler(t, marginsJSON))

	margins, err := z.GetMargins(context.Background())
	require.NoError(t, err)
	assert.True(t, margins.Equity.Enabled)
	assert.Equal(t, 99725.05, margins.Equity.Net)
	assert.Equal(t, 245431.6, margins.Equity.Available.Cash)
	assert.False(t, margins.Commodity.Enabled)
}

func TestGetHoldings(t *testing.T) {
	t.Parallel()
	z := testInstance(t, authHandler(t, holdingsJSON))

	holdings, err := z.GetHoldings(context.Background())
	require.NoError(t, err)
	require.Len(t, holdings, 2)
	assert.Equal(t, "INFY", holdings[0].TradingSymbol)
	assert.Equal(t, 50.0, holdings[0].Quantity)
	assert.Equal(t, "INE009A01021", holdings[0].ISIN)
}

func TestUpdateAccountInfo(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/user/margins":
			_, _ = w.Write([]byte(marginsJSON))
		case "/portfolio/holdings":
			_, _ = w.Write([]byte(holdingsJSON))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	holdings, err := z.UpdateAccountInfo(context.Background())
	require.NoError(t, err)
	require.Len(t, holdings.Accounts, 1)
	currencies := holdings.Accounts[0].Currencies

	// INR cash plus one non zero demat holding
	require.Len(t, currencies, 2)
	assert.Equal(t, "INR", currencies[0].Currency)
	assert.Equal(t, 99725.05, currencies[0].Total)
	assert.Equal(t, 245431.6, currencies[0].Free)
	// net below cash means nothing is on hold
	assert.Equal(t, 0.0, currencies[0].Hold)

	assert.Equal(t, "NSE:INFY", currencies[1].Currency)
	assert.Equal(t, 50.0, currencies[1].Total)
}

func TestGetOrders(t *testing.T) {
	t.Parallel()
	z := testInstance(t, authHandler(t, ordersJSON))

	orders, err := z.GetOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, "240531000000001", orders[0].OrderID)
	assert.Equal(t, "OPEN", orders[0].Status)
	assert.Equal(t, 31, orders[0].OrderTimestamp.Day())
}

func TestGetActiveOrders(t *testing.T) {
	t.Parallel()
	z := testInstance(t, authHandler(t, ordersJSON))

	orders, err := z.GetActiveOrders(context.Background(), &order.GetOrdersRequest{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "240531000000001", orders[0].ID)
	assert.Equal(t, order.Open, orders[0].Status)
	assert.Equal(t, "NSE:INFY/INR", orders[0].Pair)
	assert.Equal(t, "goitabc", orders[0].ClientOrderID)
}

func TestGetOrderHistoryWrapper(t *testing.T) {
	t.Parallel()
	z := testInstance(t, authHandler(t, ordersJSON))

	orders, err := z.GetOrderHistory(context.Background(), &order.GetOrdersRequest{})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, order.Filled, orders[0].Status)
	assert.Equal(t, order.Rejected, orders[1].Status)
	assert.Equal(t, "Insufficient funds", orders[1].StatusMessage)
}

func TestGetOrderInfo(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders/240531000000002", r.URL.Path)
		_, _ = w.Write([]byte(`{
		 "status": "success",
		 "data": [
		  {"order_id": "240531000000002", "status": "OPEN", "exchange": "NSE", "tradingsymbol": "RELIANCE",
		   "order_type": "MARKET", "transaction_type": "SELL", "quantity": 5, "pending_quantity": 5},
		  {"order_id": "240531000000002", "status": "COMPLETE", "exchange": "NSE", "tradingsymbol": "RELIANCE",
		   "order_type": "MARKET", "transaction_type": "SELL", "quantity": 5, "filled_quantity": 5, "average_price": 2430.8}
		 ]
		}`))
	}))

	detail, err := z.GetOrderInfo(context.Background(), "240531000000002")
	require.NoError(t, err)
	assert.Equal(t, order.Filled, detail.Status)
	assert.Equal(t, 5*2430.8, detail.Cost)
}

func TestGetOrderInfoNotFound(t *testing.T) {
	t.Parallel()
	z := testInstance(t, authHandler(t, `{"status":"success","data":[]}`))

	_, err := z.GetOrderInfo(context.Background(), "missing")
	assert.ErrorIs(t, err, exchange.ErrInvalidOrder)
}

func TestGetMyTrades(t *testing.T) {
	t.Parallel()
	z := testInstance(t, authHandler(t, tradesJSON))

	trades, err := z.GetMyTrades(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "10000001", trades[0].ID)
	assert.Equal(t, order.Sell, trades[0].Side)
	assert.Equal(t, 5*2430.8, trades[0].Cost)

	filtered, err := z.GetMyTrades(context.Background(), "NSE:INFY/INR")
	require.NoError(t, err)
	assert.Empty(t, filtered)
}

func TestQuoteVariants(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quote/ohlc":
			_, _ = w.Write([]byte(`{"status":"success","data":{"NSE:INFY":{"instrument_token":408065,"last_price":1388.6,"ohlc":{"open":1396,"high":1404.45,"low":1385.1,"close":1399.3}}}}`))
		case "/quote/ltp":
			_, _ = w.Write([]byte(`{"status":"success","data":{"NSE:INFY":{"instrument_token":408065,"last_price":1388.6}}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	ohlc, err := z.GetOHLC(context.Background(), "NSE:INFY")
	require.NoError(t, err)
	assert.Equal(t, 1404.45, ohlc["NSE:INFY"].OHLC.High)

	ltp, err := z.GetLTP(context.Background(), "NSE:INFY")
	require.NoError(t, err)
	assert.Equal(t, 1388.6, ltp["NSE:INFY"].LastPrice)
}

func TestGetProfile(t *testing.T) {
	t.Parallel()
	z := testInstance(t, authHandler(t, `{
	 "status": "success",
	 "data": {
	  "user_id": "AB1234",
	  "user_name": "Test User",
	  "email": "test@example.org",
	  "broker": "ZERODHA",
	  "exchanges": ["NSE", "BSE"],
	  "products": ["CNC", "MIS"]
	 }
	}`))

	profile, err := z.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "AB1234", profile.UserID)
	assert.Contains(t, profile.Exchanges, "BSE")
}

func TestGetSegmentMargins(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/margins/equity", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","data":{"enabled":true,"net":99725.05,"available":{"cash":245431.6}}}`))
	}))

	margins, err := z.GetSegmentMargins(context.Background(), "equity")
	require.NoError(t, err)
	assert.Equal(t, 245431.6, margins.Available.Cash)
}

func TestGetPositions(t *testing.T) {
	t.Parallel()
	z := testInstance(t, authHandler(t, `{
	 "status": "success",
	 "data": {
	  "net": [{"tradingsymbol": "RELIANCE", "exchange": "NSE", "product": "MIS", "quantity": -5, "average_price": 2430.8, "pnl": 120.5}],
	  "day": []
	 }
	}`))

	positions, err := z.GetPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions.Net, 1)
	assert.Equal(t, -5.0, positions.Net[0].Quantity)
	assert.Empty(t, positions.Day)
}

func TestConvertPosition(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/portfolio/positions", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "MIS", r.PostForm.Get("old_product"))
		assert.Equal(t, "CNC", r.PostForm.Get("new_product"))
		assert.Equal(t, "5", r.PostForm.Get("quantity"))
		_, _ = w.Write([]byte(`{"status":"success","data":true}`))
	}))

	ok, err := z.ConvertPosition(context.Background(), "NSE", "RELIANCE", "BUY", "day", "MIS", "CNC", 5)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGetOrderTrades(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trades/240531000000002", r.URL.Path)
		_, _ = w.Write([]byte(tradesJSON))
	}))

	trades, err := z.GetOrderTrades(context.Background(), "240531000000002")
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, "10000001", trades[0].TradeID)
	assert.Equal(t, 2430.8, trades[0].Price)
}

func TestPlaceOrder(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders/regular", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "INFY", r.PostForm.Get("tradingsymbol"))
		assert.Equal(t, "NSE", r.PostForm.Get("exchange"))
		assert.Equal(t, "BUY", r.PostForm.Get("transaction_type"))
		assert.Equal(t, "LIMIT", r.PostForm.Get("order_type"))
		assert.Equal(t, "10", r.PostForm.Get("quantity"))
		assert.Equal(t, "CNC", r.PostForm.Get("product"))
		assert.Equal(t, "DAY", r.PostForm.Get("validity"))
		assert.Equal(t, "1380", r.PostForm.Get("price"))
		assert.NotEmpty(t, r.PostForm.Get("tag"))
		_, _ = w.Write([]byte(`{"status":"success","data":{"order_id":"240531000000009"}}`))
	}))

	resp, err := z.SubmitOrder(context.Background(), &order.Submit{
		Pair:    "NSE:INFY/INR",
		Side:    order.Buy,
		Type:    order.Limit,
		Amount:  10,
		Price:   1380,
		Product: "CNC",
	})
	require.NoError(t, err)
	assert.True(t, resp.IsOrderPlaced)
	assert.Equal(t, "240531000000009", resp.OrderID)
}

func TestSubmitOrderValidation(t *testing.T) {
	t.Parallel()
	z := testInstance(t, authHandler(t, `{}`))

	for _, tc := range []struct {
		name   string
		submit *order.Submit
		err    error
	}{
		{"nil submission", nil, order.ErrSubmissionIsNil},
		{"missing pair", &order.Submit{Side: order.Buy, Type: order.Market, Amount: 1, Product: "CNC"}, order.ErrPairIsEmpty},
		{"bad side", &order.Submit{Pair: "NSE:INFY/INR", Side: "HOLD", Type: order.Market, Amount: 1, Product: "CNC"}, order.ErrSideIsInvalid},
		{"bad type", &order.Submit{Pair: "NSE:INFY/INR", Side: order.Buy, Type: "TWAP", Amount: 1, Product: "CNC"}, order.ErrTypeIsInvalid},
		{"zero amount", &order.Submit{Pair: "NSE:INFY/INR", Side: order.Buy, Type: order.Market, Product: "CNC"}, order.ErrAmountIsInvalid},
		{"limit without price", &order.Submit{Pair: "NSE:INFY/INR", Side: order.Buy, Type: order.Limit, Amount: 1, Product: "CNC"}, order.ErrPriceMustBeSetIfLimitOrder},
		{"missing product", &order.Submit{Pair: "NSE:INFY/INR", Side: order.Buy, Type: order.Market, Amount: 1}, order.ErrProductIsEmpty},
		{"fractional shares", &order.Submit{Pair: "NSE:INFY/INR", Side: order.Buy, Type: order.Market, Amount: 1.5, Product: "CNC"}, order.ErrAmountIsInvalid},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := z.SubmitOrder(context.Background(), tc.submit)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestCancelOrderWrapper(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/orders/regular/240531000000001", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"success","data":{"order_id":"240531000000001"}}`))
	}))

	require.NoError(t, z.CancelOrder(context.Background(), &order.Cancel{ID: "240531000000001"}))

	err := z.CancelOrder(context.Background(), &order.Cancel{})
	assert.ErrorIs(t, err, order.ErrOrderIDIsEmpty)
}

func TestModifyOrderWrapper(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/orders/regular/240531000000001", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1385.5", r.PostForm.Get("price"))
		assert.Empty(t, r.PostForm.Get("tradingsymbol"), "modify should not resend instrument fields")
		_, _ = w.Write([]byte(`{"status":"success","data":{"order_id":"240531000000001"}}`))
	}))

	id, err := z.ModifyOrder(context.Background(), &order.Modify{ID: "240531000000001", Price: 1385.5})
	require.NoError(t, err)
	assert.Equal(t, "240531000000001", id)
}

func TestUpdateTicker(t *testing.T) {
	t.Parallel()
	z := testInstance(t, authHandler(t, quoteJSON))

	p, err := z.UpdateTicker(context.Background(), "NSE:INFY/INR")
	require.NoError(t, err)
	assert.Equal(t, 1388.6, p.Last)
	assert.Equal(t, 1388.6, p.Bid)
	assert.Equal(t, 1388.95, p.Ask)
	assert.Equal(t, 1399.3, p.PreviousClose)
	assert.Equal(t, 7360198.0, p.Volume)

	// the processed ticker should now be served from the cache
	cached, err := z.FetchTicker(context.Background(), "NSE:INFY/INR")
	require.NoError(t, err)
	assert.Equal(t, p.Last, cached.Last)
}

func TestGetHistoricCandles(t *testing.T) {
	t.Parallel()
	z := testInstance(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/instruments":
			_, _ = w.Write([]byte(instrumentsCSV))
		case "/instruments/historical/408065/day":
			assert.NotEmpty(t, r.URL.Query().Get("from"))
			assert.NotEmpty(t, r.URL.Query().Get("to"))
			_, _ = w.Write([]byte(historicalJSON))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	require.NoError(t, z.UpdateInstruments(context.Background()))

	item, err := z.GetHistoricCandles(context.Background(), "NSE:INFY/INR", kline.OneDay, time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, item.Candles, 2)
	assert.Equal(t, 1391.0, item.Candles[0].Open)
	assert.Equal(t, 7360198.0, item.Candles[1].Volume)
	assert.True(t, item.Candles[0].Time.Before(item.Candles[1].Time))

	_, err = z.GetHistoricCandles(context.Background(), "NSE:INFY/INR", kline.Interval(time.Second), time.Time{}, time.Time{})
	assert.ErrorIs(t, err, kline.ErrUnsupportedInterval)
}

func TestCheckResponse(t *testing.T) {
	t.Parallel()
	z := new(Zerodha)
	z.SetDefaults()

	for _, tc := range []struct {
		name       string
		statusCode int
		body       string
		err        error
	}{
		{"token exception", 403, `{"status":"error","message":"Token is invalid or has expired.","error_type":"TokenException"}`, exchange.ErrAuthenticationFailed},
		{"user exception", 403, `{"status":"error","message":"segment not active","error_type":"UserException"}`, exchange.ErrPermissionDenied},
		{"order exception", 400, `{"status":"error","message":"bad order","error_type":"OrderException"}`, exchange.ErrInvalidOrder},
		{"input exception", 400, `{"status":"error","message":"missing field","error_type":"InputException"}`, exchange.ErrBadRequest},
		{"margin exception", 400, `{"status":"error","message":"no margin","error_type":"MarginException"}`, exchange.ErrInsufficientFunds},
		{"holding exception", 400, `{"status":"error","message":"no holdings","error_type":"HoldingException"}`, exchange.ErrInsufficientFunds},
		{"network exception", 502, `{"status":"error","message":"oms timeout","error_type":"NetworkException"}`, exchange.ErrNetwork},
		{"data exception", 500, `{"status":"error","message":"internal","error_type":"DataException"}`, exchange.ErrExchangeError},
		{"general exception", 500, `{"status":"error","message":"internal","error_type":"GeneralException"}`, exchange.ErrExchangeError},
		{"broad credentials", 400, `{"status":"error","message":"Invalid API credentials"}`, exchange.ErrAuthenticationFailed},
		{"broad funds", 400, `{"status":"error","message":"Insufficient funds in account"}`, exchange.ErrInsufficientFunds},
		{"broad order", 400, `{"status":"error","message":"Order not found"}`, exchange.ErrInvalidOrder},
		{"broad rate limit", 400, `{"status":"error","message":"Rate limit exceeded"}`, exchange.ErrRateLimitExceeded},
		{"unknown error type", 400, `{"status":"error","message":"weird","error_type":"FutureException"}`, exchange.ErrExchangeError},
		{"http 429", http.StatusTooManyRequests, `Too many requests`, exchange.ErrRateLimitExceeded},
		{"http 500", http.StatusInternalServerError, `<html>gateway error</html>`, exchange.ErrExchangeNotAvailable},
		{"success", 200, `{"status":"success","data":true}`, nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			err := z.checkResponse(tc.statusCode, []byte(tc.body))
			if tc.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestAuthenticatedRequestRequiresCredentials(t *testing.T) {
	t.Parallel()
	z := new(Zerodha)
	z.SetDefaults()

	_, err := z.GetOrders(context.Background())
	assert.ErrorIs(t, err, exchange.ErrCredentialsAreEmpty)
}

func TestPriceToTickSize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1388.6, PriceToTickSize(1388.61, 0.05))
	assert.Equal(t, 1388.65, PriceToTickSize(1388.63, 0.05))
	assert.Equal(t, 100.0, PriceToTickSize(100.0, 0.05))
	// a zero tick size leaves the price untouched
	assert.Equal(t, 1388.61, PriceToTickSize(1388.61, 0))
}

func TestAmountToLotSize(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 50.0, AmountToLotSize(60, 25))
	assert.Equal(t, 25.0, AmountToLotSize(25, 25))
	assert.Equal(t, 0.0, AmountToLotSize(20, 25))
	assert.Equal(t, 7.0, AmountToLotSize(7, 1))
	assert.Equal(t, 7.3, AmountToLotSize(7.3, 0))
}

func TestGetFee(t *testing.T) {
	t.Parallel()
	z := new(Zerodha)
	z.SetDefaults()

	fee, err := z.GetFeeByType(&exchange.FeeBuilder{
		FeeType:       exchange.EquityTradeFee,
		PurchasePrice: 1000,
		Amount:        10,
	})
	require.NoError(t, err)
	assert.InDelta(t, 3.25, fee, 1e-9)

	fee, err = z.GetFeeByType(&exchange.FeeBuilder{IsMaker: true, PurchasePrice: 1000, Amount: 10})
	require.NoError(t, err)
	assert.Zero(t, fee)

	_, err = z.GetFeeByType(nil)
	assert.ErrorIs(t, err, exchange.ErrBadRequest)
}

func TestSplitPair(t *testing.T) {
	t.Parallel()
	segment, symbol, err := splitPair("NSE:INFY/INR")
	require.NoError(t, err)
	assert.Equal(t, "NSE", segment)
	assert.Equal(t, "INFY", symbol)

	for _, bad := range []string{"", "NSE:INFY", "NSE:INFY/USD", "INFY/INR", ":INFY/INR", "NSE:/INR"} {
		_, _, err := splitPair(bad)
		assert.ErrorIsf(t, err, exchange.ErrBadRequest, "pair %q should not parse", bad)
	}
}
