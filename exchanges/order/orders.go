package order

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Order submission validation errors
var (
	ErrSubmissionIsNil            = errors.New("order submission is nil")
	ErrPairIsEmpty                = errors.New("order pair is empty")
	ErrSideIsInvalid              = errors.New("order side is invalid")
	ErrTypeIsInvalid              = errors.New("order type is invalid")
	ErrAmountIsInvalid            = errors.New("order amount is invalid")
	ErrPriceMustBeSetIfLimitOrder = errors.New("order price must be set if limit order type is desired")
	ErrProductIsEmpty             = errors.New("order product is required, e.g. CNC or MIS")
	ErrOrderIDIsEmpty             = errors.New("order id is empty")
)

// Side enforces a standard for order sides across the code base
type Side string

// Order side types
const (
	AnySide Side = "ANY"
	Buy     Side = "BUY"
	Sell    Side = "SELL"
)

// Type enforces a standard for order types across the code base
type Type string

// Order types
const (
	AnyType     Type = "ANY"
	Market      Type = "MARKET"
	Limit       Type = "LIMIT"
	StopLimit   Type = "STOP_LIMIT"
	StopMarket  Type = "STOP_MARKET"
	UnknownType Type = "UNKNOWN"
)

// Status defines order status types
type Status string

// Order status types
const (
	AnyStatus      Status = "ANY"
	Open           Status = "OPEN"
	TriggerPending Status = "TRIGGER_PENDING"
	Filled         Status = "FILLED"
	Cancelled      Status = "CANCELLED"
	Rejected       Status = "REJECTED"
	UnknownStatus  Status = "UNKNOWN"
)

// Submit contains all parameters required to submit an order
type Submit struct {
	Pair         string
	Side         Side
	Type         Type
	Amount       float64
	Price        float64
	TriggerPrice float64
	// Product is the broker product code the position is booked under,
	// e.g. CNC for delivery, MIS for intraday
	Product  string
	Variety  string
	Validity string
	Tag      string
}

// Validate checks the supplied data and returns whether or not it's valid
func (s *Submit) Validate() error {
	if s == nil {
		return ErrSubmissionIsNil
	}
	if s.Pair == "" {
		return ErrPairIsEmpty
	}
	if s.Side != Buy && s.Side != Sell {
		return ErrSideIsInvalid
	}
	if s.Type != Market && s.Type != Limit && s.Type != StopLimit && s.Type != StopMarket {
		return ErrTypeIsInvalid
	}
	if s.Amount <= 0 {
		return ErrAmountIsInvalid
	}
	if (s.Type == Limit || s.Type == StopLimit) && s.Price <= 0 {
		return ErrPriceMustBeSetIfLimitOrder
	}
	if s.Product == "" {
		return ErrProductIsEmpty
	}
	return nil
}

// SubmitResponse is what is returned after submitting an order to an
// exchange
type SubmitResponse struct {
	IsOrderPlaced bool
	OrderID       string
}

// Modify contains all parameters needed to amend a working order
type Modify struct {
	ID           string
	Variety      string
	Type         Type
	Price        float64
	Amount       float64
	TriggerPrice float64
	Validity     string
}

// Cancel contains all parameters needed to cancel an order
type Cancel struct {
	ID      string
	Variety string
}

// Detail holds order detail data
type Detail struct {
	Exchange        string
	ID              string
	ClientOrderID   string
	Pair            string
	Side            Side
	Type            Type
	Status          Status
	Price           float64
	AveragePrice    float64
	TriggerPrice    float64
	Amount          float64
	ExecutedAmount  float64
	RemainingAmount float64
	Cost            float64
	Validity        string
	Product         string
	StatusMessage   string
	Date            time.Time
}

// GetOrdersRequest used for GetOrderHistory and GetOpenOrders wrapper
// functions
type GetOrdersRequest struct {
	Pairs     []string
	Side      Side
	Type      Type
	StartTime time.Time
	EndTime   time.Time
}

// String implements the stringer interface for Side
func (s Side) String() string {
	return string(s)
}

// Lower returns the side lower case string
func (s Side) Lower() string {
	return strings.ToLower(string(s))
}

// String implements the stringer interface for Type
func (t Type) String() string {
	return string(t)
}

// String implements the stringer interface for Status
func (s Status) String() string {
	return string(s)
}

// FilterOrdersBySide removes any order details that don't match the order
// side provided
func FilterOrdersBySide(orders *[]Detail, side Side) {
	if side == "" || side == AnySide {
		return
	}
	var filtered []Detail
	for i := range *orders {
		if (*orders)[i].Side == side {
			filtered = append(filtered, (*orders)[i])
		}
	}
	*orders = filtered
}

// FilterOrdersByPairs removes any order details that do not match the
// provided pair list
func FilterOrdersByPairs(orders *[]Detail, pairs []string) {
	if len(pairs) == 0 {
		return
	}
	var filtered []Detail
	for i := range *orders {
		for j := range pairs {
			if strings.EqualFold((*orders)[i].Pair, pairs[j]) {
				filtered = append(filtered, (*orders)[i])
				break
			}
		}
	}
	*orders = filtered
}

// FilterOrdersByTimeRange removes any order details outside of the time
// range requested
func FilterOrdersByTimeRange(orders *[]Detail, startTime, endTime time.Time) {
	if startTime.IsZero() && endTime.IsZero() {
		return
	}
	var filtered []Detail
	for i := range *orders {
		if ((*orders)[i].Date.Equal(startTime) || (*orders)[i].Date.After(startTime)) &&
			(endTime.IsZero() || (*orders)[i].Date.Before(endTime)) {
			filtered = append(filtered, (*orders)[i])
		}
	}
	*orders = filtered
}

// SortOrdersByDate the caller function to sort orders by order date
func SortOrdersByDate(orders *[]Detail, reverse bool) {
	sort.Slice(*orders, func(i, j int) bool {
		if reverse {
			return (*orders)[i].Date.After((*orders)[j].Date)
		}
		return (*orders)[i].Date.Before((*orders)[j].Date)
	})
}
