package zerodha

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/buger/jsonparser"
	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/openkite/goindiatrader/common"
	exchange "github.com/openkite/goindiatrader/exchanges"
)

const (
	kiteAPIURL     = "https://api.kite.trade"
	kiteAPIVersion = "3"

	// Public endpoints
	kiteInstruments         = "/instruments"
	kiteInstrumentsExchange = "/instruments/%s"

	// Authenticated endpoints
	kiteQuote        = "/quote"
	kiteQuoteOHLC    = "/quote/ohlc"
	kiteQuoteLTP     = "/quote/ltp"
	kiteProfile      = "/user/profile"
	kiteMargins      = "/user/margins"
	kiteMarginsSeg   = "/user/margins/%s"
	kiteHoldings     = "/portfolio/holdings"
	kitePositions    = "/portfolio/positions"
	kiteOrders       = "/orders"
	kiteOrderHistory = "/orders/%s"
	kiteOrderPlace   = "/orders/%s"
	kiteOrderModify  = "/orders/%s/%s"
	kiteTrades       = "/trades"
	kiteOrderTrades  = "/trades/%s"
	kiteHistorical   = "/instruments/historical/%d/%s"
	kiteSessionToken = "/session/token"

	// Zerodha charges no brokerage on equity delivery; the regulatory
	// charges cap out at 0.0325% per executed side
	takerFee = 0.000325
	makerFee = 0
)

// Zerodha is the overarching type across the zerodha package
type Zerodha struct {
	exchange.Base

	tokenCachePath string
	loginTime      time.Time

	mtx         sync.RWMutex
	instruments map[string]Instrument
}

// errorTypes maps the error_type field of the Kite error envelope onto the
// unified error classes
var errorTypes = map[string]error{
	"TokenException":   exchange.ErrAuthenticationFailed,
	"UserException":    exchange.ErrPermissionDenied,
	"OrderException":   exchange.ErrInvalidOrder,
	"InputException":   exchange.ErrBadRequest,
	"MarginException":  exchange.ErrInsufficientFunds,
	"HoldingException": exchange.ErrInsufficientFunds,
	"NetworkException": exchange.ErrNetwork,
	"DataException":    exchange.ErrExchangeError,
	"GeneralException": exchange.ErrExchangeError,
}

// broadErrors maps substrings of the error message onto unified error
// classes for responses whose error_type is absent or unspecific
var broadErrors = []struct {
	match string
	err   error
}{
	{"Invalid API credentials", exchange.ErrAuthenticationFailed},
	{"Insufficient funds", exchange.ErrInsufficientFunds},
	{"Order not found", exchange.ErrInvalidOrder},
	{"Rate limit exceeded", exchange.ErrRateLimitExceeded},
}

// GetInstruments returns the full instruments master dump, optionally
// filtered to a single exchange segment e.g. "NSE". The dump is a CSV file
// refreshed by the broker each morning
func (z *Zerodha) GetInstruments(ctx context.Context, exchangeSegment string) ([]Instrument, error) {
	path := kiteInstruments
	if exchangeSegment != "" {
		path = fmt.Sprintf(kiteInstrumentsExchange, exchangeSegment)
	}

	contents, statusCode, err := common.SendHTTPRequest(ctx,
		z.HTTPClient,
		http.MethodGet,
		z.API.Endpoints.URL+path,
		map[string]string{"X-Kite-Version": kiteAPIVersion},
		nil)
	if err != nil {
		return nil, err
	}

	// The dump is occasionally served gzipped regardless of request headers
	if len(contents) > 2 && contents[0] == 0x1f && contents[1] == 0x8b {
		gz, err := gzip.NewReader(bytes.NewReader(contents))
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		if contents, err = io.ReadAll(gz); err != nil {
			return nil, err
		}
	}

	if err := z.checkResponse(statusCode, contents); err != nil {
		return nil, err
	}

	var instruments []Instrument
	if err := gocsv.UnmarshalBytes(contents, &instruments); err != nil {
		return nil, fmt.Errorf("unable to parse instruments dump: %w", err)
	}
	return instruments, nil
}

// GetQuote returns full market quotes for up to 500 instruments supplied in
// "EXCHANGE:TRADINGSYMBOL" form
func (z *Zerodha) GetQuote(ctx context.Context, instruments ...string) (map[string]Quote, error) {
	resp := make(map[string]Quote)
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, kiteQuote, instrumentValues(instruments), &resp)
}

// GetOHLC returns abbreviated OHLC quotes for the requested instruments
func (z *Zerodha) GetOHLC(ctx context.Context, instruments ...string) (map[string]OHLCQuote, error) {
	resp := make(map[string]OHLCQuote)
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, kiteQuoteOHLC, instrumentValues(instruments), &resp)
}

// GetLTP returns last traded prices for the requested instruments
func (z *Zerodha) GetLTP(ctx context.Context, instruments ...string) (map[string]LTPQuote, error) {
	resp := make(map[string]LTPQuote)
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, kiteQuoteLTP, instrumentValues(instruments), &resp)
}

// GetProfile returns the user profile associated with the session
func (z *Zerodha) GetProfile(ctx context.Context) (UserProfile, error) {
	var resp UserProfile
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, kiteProfile, nil, &resp)
}

// GetMargins returns the available cash and margin funds for all segments
func (z *Zerodha) GetMargins(ctx context.Context) (Margins, error) {
	var resp Margins
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, kiteMargins, nil, &resp)
}

// GetSegmentMargins returns the funds for a single segment, "equity" or
// "commodity"
func (z *Zerodha) GetSegmentMargins(ctx context.Context, segment string) (SegmentMargins, error) {
	var resp SegmentMargins
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, fmt.Sprintf(kiteMarginsSeg, segment), nil, &resp)
}

// GetHoldings returns the demat holdings of the account
func (z *Zerodha) GetHoldings(ctx context.Context) ([]Holding, error) {
	var resp []Holding
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, kiteHoldings, nil, &resp)
}

// GetPositions returns the day and net positions of the account
func (z *Zerodha) GetPositions(ctx context.Context) (Positions, error) {
	var resp Positions
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, kitePositions, nil, &resp)
}

// ConvertPosition converts an open position from one product code to
// another, e.g. intraday MIS to delivery CNC
func (z *Zerodha) ConvertPosition(ctx context.Context, exchangeSegment, tradingSymbol, transactionType, positionType, oldProduct, newProduct string, quantity int64) (bool, error) {
	params := url.Values{}
	params.Set("exchange", exchangeSegment)
	params.Set("tradingsymbol", tradingSymbol)
	params.Set("transaction_type", transactionType)
	params.Set("position_type", positionType)
	params.Set("old_product", oldProduct)
	params.Set("new_product", newProduct)
	params.Set("quantity", strconv.FormatInt(quantity, 10))

	var resp bool
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodPut, kitePositions, params, &resp)
}

// GetOrders returns all orders placed during the current trading day
func (z *Zerodha) GetOrders(ctx context.Context) ([]Order, error) {
	var resp []Order
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, kiteOrders, nil, &resp)
}

// GetOrderStates returns the state transition history of a single order
func (z *Zerodha) GetOrderStates(ctx context.Context, orderID string) ([]Order, error) {
	var resp []Order
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, fmt.Sprintf(kiteOrderHistory, orderID), nil, &resp)
}

// GetTrades returns all fills generated during the current trading day
func (z *Zerodha) GetTrades(ctx context.Context) ([]Trade, error) {
	var resp []Trade
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, kiteTrades, nil, &resp)
}

// GetOrderTrades returns the fills generated by a single order
func (z *Zerodha) GetOrderTrades(ctx context.Context, orderID string) ([]Trade, error) {
	var resp []Trade
	return resp, z.SendAuthenticatedHTTPRequest(ctx, http.MethodGet, fmt.Sprintf(kiteOrderTrades, orderID), nil, &resp)
}

// PlaceOrder places an order of the given variety and returns the broker
// assigned order id
func (z *Zerodha) PlaceOrder(ctx context.Context, variety string, p *OrderParams) (string, error) {
	var resp struct {
		OrderID string `json:"order_id"`
	}
	err := z.SendAuthenticatedHTTPRequest(ctx, http.MethodPost, fmt.Sprintf(kiteOrderPlace, variety), p.values(), &resp)
	return resp.OrderID, err
}

// ModifyExistingOrder modifies a pending order and returns its order id
func (z *Zerodha) ModifyExistingOrder(ctx context.Context, variety, orderID string, p *OrderParams) (string, error) {
	var resp struct {
		OrderID string `json:"order_id"`
	}
	err := z.SendAuthenticatedHTTPRequest(ctx, http.MethodPut, fmt.Sprintf(kiteOrderModify, variety, orderID), p.values(), &resp)
	return resp.OrderID, err
}

// CancelExistingOrder cancels a pending order and returns its order id
func (z *Zerodha) CancelExistingOrder(ctx context.Context, variety, orderID string) (string, error) {
	var resp struct {
		OrderID string `json:"order_id"`
	}
	err := z.SendAuthenticatedHTTPRequest(ctx, http.MethodDelete, fmt.Sprintf(kiteOrderModify, variety, orderID), nil, &resp)
	return resp.OrderID, err
}

// GetHistoricalData returns candles for an instrument token between from and
// to. interval is a Kite interval name such as "5minute" or "day"
func (z *Zerodha) GetHistoricalData(ctx context.Context, instrumentToken uint32, interval string, from, to time.Time) ([]HistoricalCandle, error) {
	params := url.Values{}
	params.Set("from", from.In(indiaTime).Format("2006-01-02 15:04:05"))
	params.Set("to", to.In(indiaTime).Format("2006-01-02 15:04:05"))

	var resp historicalData
	err := z.SendAuthenticatedHTTPRequest(ctx,
		http.MethodGet,
		fmt.Sprintf(kiteHistorical, instrumentToken, interval),
		params,
		&resp)
	return resp.Candles, err
}

// SendAuthenticatedHTTPRequest sends an authenticated request to Kite,
// unwraps the response envelope and decodes the data block into result
func (z *Zerodha) SendAuthenticatedHTTPRequest(ctx context.Context, method, path string, params url.Values, result any) error {
	if err := z.ValidateCredentials(); err != nil {
		return err
	}
	if err := z.ensureAccessToken(); err != nil {
		return err
	}

	headers := map[string]string{
		"X-Kite-Version": kiteAPIVersion,
		"Authorization":  "token " + z.API.Credentials.Key + ":" + z.API.Credentials.AccessToken,
	}

	urlPath := z.API.Endpoints.URL + path
	var body io.Reader
	switch method {
	case http.MethodGet, http.MethodDelete:
		urlPath = common.EncodeURLValues(urlPath, params)
	default:
		if len(params) > 0 {
			headers["Content-Type"] = "application/x-www-form-urlencoded"
			body = strings.NewReader(params.Encode())
		}
	}

	contents, statusCode, err := common.SendHTTPRequest(ctx, z.HTTPClient, method, urlPath, headers, body)
	if err != nil {
		return err
	}
	return z.unmarshalResponse(statusCode, contents, result)
}

// SendHTTPRequest sends an unauthenticated request to Kite and decodes the
// enveloped data block into result
func (z *Zerodha) SendHTTPRequest(ctx context.Context, method, path string, params url.Values, result any) error {
	headers := map[string]string{"X-Kite-Version": kiteAPIVersion}

	urlPath := z.API.Endpoints.URL + path
	var body io.Reader
	if method == http.MethodGet || method == http.MethodDelete {
		urlPath = common.EncodeURLValues(urlPath, params)
	} else if len(params) > 0 {
		headers["Content-Type"] = "application/x-www-form-urlencoded"
		body = strings.NewReader(params.Encode())
	}

	contents, statusCode, err := common.SendHTTPRequest(ctx, z.HTTPClient, method, urlPath, headers, body)
	if err != nil {
		return err
	}
	return z.unmarshalResponse(statusCode, contents, result)
}

func (z *Zerodha) unmarshalResponse(statusCode int, contents []byte, result any) error {
	if err := z.checkResponse(statusCode, contents); err != nil {
		return err
	}
	if result == nil {
		return nil
	}

	var envelope kiteEnvelope
	if err := json.Unmarshal(contents, &envelope); err != nil {
		return fmt.Errorf("%w: unable to parse response: %v", exchange.ErrExchangeError, err)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("%w: response data block is empty", exchange.ErrExchangeError)
	}
	return json.Unmarshal(envelope.Data, result)
}

// checkResponse inspects the raw body for the Kite error envelope and the
// status code for transport level failures, mapping both onto the unified
// error classes
func (z *Zerodha) checkResponse(statusCode int, contents []byte) error {
	if status, err := jsonparser.GetString(contents, "status"); err == nil && status == "error" {
		message, _ := jsonparser.GetString(contents, "message")
		errorType, _ := jsonparser.GetString(contents, "error_type")

		if mapped, ok := errorTypes[errorType]; ok {
			return fmt.Errorf("%w: %s %s", mapped, z.Name, message)
		}
		for i := range broadErrors {
			if strings.Contains(message, broadErrors[i].match) {
				return fmt.Errorf("%w: %s %s", broadErrors[i].err, z.Name, message)
			}
		}
		return fmt.Errorf("%w: %s %s", exchange.ErrExchangeError, z.Name, message)
	}

	switch {
	case statusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", exchange.ErrRateLimitExceeded, z.Name)
	case statusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s status %d", exchange.ErrExchangeNotAvailable, z.Name, statusCode)
	}
	return nil
}

// GetFee returns an estimate of fee based on type of transaction
func (z *Zerodha) GetFee(feeBuilder *exchange.FeeBuilder) (float64, error) {
	if feeBuilder == nil {
		return 0, fmt.Errorf("%w: fee builder is nil", exchange.ErrBadRequest)
	}
	if feeBuilder.IsMaker {
		return makerFee, nil
	}
	return calculateTradingFee(feeBuilder.PurchasePrice, feeBuilder.Amount), nil
}

func calculateTradingFee(price, amount float64) float64 {
	return takerFee * price * amount
}

// PriceToTickSize rounds price to the nearest multiple of the instrument
// tick size
func PriceToTickSize(price, tickSize float64) float64 {
	if tickSize <= 0 {
		return price
	}
	p := decimal.NewFromFloat(price)
	t := decimal.NewFromFloat(tickSize)
	rounded, _ := p.Div(t).Round(0).Mul(t).Float64()
	return rounded
}

// AmountToLotSize floors amount to a whole multiple of the instrument lot
// size
func AmountToLotSize(amount float64, lotSize int64) float64 {
	if lotSize <= 0 {
		return amount
	}
	a := decimal.NewFromFloat(amount)
	l := decimal.NewFromInt(lotSize)
	floored, _ := a.Div(l).Floor().Mul(l).Float64()
	return floored
}

func instrumentValues(instruments []string) url.Values {
	params := url.Values{}
	for i := range instruments {
		params.Add("i", instruments[i])
	}
	return params
}

func (p *OrderParams) values() url.Values {
	params := url.Values{}
	if p == nil {
		return params
	}
	// Modify requests carry a subset of fields, skip anything unset
	for k, v := range map[string]string{
		"exchange":         p.Exchange,
		"tradingsymbol":    p.TradingSymbol,
		"transaction_type": p.TransactionType,
		"order_type":       p.OrderType,
		"product":          p.Product,
		"validity":         p.Validity,
	} {
		if v != "" {
			params.Set(k, v)
		}
	}
	if p.Quantity > 0 {
		params.Set("quantity", strconv.FormatInt(p.Quantity, 10))
	}
	if p.Price > 0 {
		params.Set("price", strconv.FormatFloat(p.Price, 'f', -1, 64))
	}
	if p.TriggerPrice > 0 {
		params.Set("trigger_price", strconv.FormatFloat(p.TriggerPrice, 'f', -1, 64))
	}
	if p.DisclosedQuantity > 0 {
		params.Set("disclosed_quantity", strconv.FormatInt(p.DisclosedQuantity, 10))
	}
	if p.Tag != "" {
		params.Set("tag", p.Tag)
	}
	return params
}
