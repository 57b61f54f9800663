package exchange

import (
	"context"
	"time"

	"github.com/openkite/goindiatrader/config"
	"github.com/openkite/goindiatrader/exchanges/account"
	"github.com/openkite/goindiatrader/exchanges/kline"
	"github.com/openkite/goindiatrader/exchanges/order"
	"github.com/openkite/goindiatrader/exchanges/ticker"
	"github.com/openkite/goindiatrader/exchanges/trade"
)

// IBotExchange enforces standard functions for all supported exchanges
type IBotExchange interface {
	SetDefaults()
	Setup(cfg *config.ExchangeConfig) error
	GetName() string
	IsEnabled() bool
	SetEnabled(bool)
	ValidateCredentials() error

	FetchTradablePairs(ctx context.Context) ([]string, error)
	UpdateTicker(ctx context.Context, pair string) (*ticker.Price, error)
	FetchTicker(ctx context.Context, pair string) (*ticker.Price, error)
	GetHistoricCandles(ctx context.Context, pair string, interval kline.Interval, start, end time.Time) (kline.Item, error)
	UpdateAccountInfo(ctx context.Context) (account.Holdings, error)
	FetchAccountInfo(ctx context.Context) (account.Holdings, error)

	SubmitOrder(ctx context.Context, s *order.Submit) (order.SubmitResponse, error)
	ModifyOrder(ctx context.Context, action *order.Modify) (string, error)
	CancelOrder(ctx context.Context, o *order.Cancel) error
	GetOrderInfo(ctx context.Context, orderID string) (order.Detail, error)
	GetActiveOrders(ctx context.Context, req *order.GetOrdersRequest) ([]order.Detail, error)
	GetOrderHistory(ctx context.Context, req *order.GetOrdersRequest) ([]order.Detail, error)
	GetMyTrades(ctx context.Context, pair string) ([]trade.Data, error)

	GetFeeByType(feeBuilder *FeeBuilder) (float64, error)
}
