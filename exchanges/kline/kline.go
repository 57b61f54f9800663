package kline

import (
	"errors"
	"sort"
	"strconv"
	"time"
)

// Consts here define basic time intervals
const (
	OneMin     = Interval(time.Minute)
	ThreeMin   = Interval(3 * time.Minute)
	FiveMin    = Interval(5 * time.Minute)
	TenMin     = Interval(10 * time.Minute)
	FifteenMin = Interval(15 * time.Minute)
	ThirtyMin  = Interval(30 * time.Minute)
	OneHour    = Interval(time.Hour)
	OneDay     = Interval(24 * time.Hour)
)

// ErrUnsupportedInterval returned when the exchange does not offer candles
// for the requested interval
var ErrUnsupportedInterval = errors.New("unsupported candle interval")

// Interval type for kline Interval usage
type Interval time.Duration

// Duration returns an interval's duration
func (i Interval) Duration() time.Duration {
	return time.Duration(i)
}

// String implements the stringer interface
func (i Interval) String() string {
	return i.Duration().String()
}

// Short returns the abbreviated notation of the interval, e.g. 15m, 1h, 1d
func (i Interval) Short() string {
	switch i {
	case OneDay:
		return "1d"
	case OneHour:
		return "1h"
	default:
		d := i.Duration()
		if d >= time.Minute && d < time.Hour {
			return strconv.Itoa(int(d/time.Minute)) + "m"
		}
		return d.String()
	}
}

// Candle holds historic rate information
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Item holds all the relevant information for internal kline elements
type Item struct {
	Exchange string
	Pair     string
	Interval Interval
	Candles  []Candle
}

// SortCandlesByTimestamp sorts candles by timestamp
func (k *Item) SortCandlesByTimestamp(desc bool) {
	sort.Slice(k.Candles, func(i, j int) bool {
		if desc {
			return k.Candles[i].Time.After(k.Candles[j].Time)
		}
		return k.Candles[i].Time.Before(k.Candles[j].Time)
	})
}
