package trade

import (
	"time"

	"github.com/openkite/goindiatrader/exchanges/order"
)

// Data defines trade data
type Data struct {
	ID        string
	OrderID   string
	Exchange  string
	Pair      string
	Side      order.Side
	Price     float64
	Amount    float64
	Cost      float64
	Timestamp time.Time
}
