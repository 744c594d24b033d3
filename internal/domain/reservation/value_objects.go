package reservation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

// DateOf drops the time of day and returns the calendar date of t at midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StayPeriod is the half-open range [start, end) of calendar dates.
type StayPeriod struct {
	start time.Time
	end   time.Time
}

func NewStayPeriod(start, end time.Time) (StayPeriod, error) {
	s, e := DateOf(start), DateOf(end)
	if e.Before(s) {
		return StayPeriod{}, ErrInvalidStayPeriod
	}
	return StayPeriod{start: s, end: e}, nil
}

func (p StayPeriod) Start() time.Time { return p.start }
func (p StayPeriod) End() time.Time   { return p.end }

func (p StayPeriod) Nights() int {
	return int(p.end.Sub(p.start).Hours() / 24)
}

func (p StayPeriod) IsEmpty() bool {
	return p.start.Equal(p.end)
}

// Overlaps reports whether [s1,e1) and [s2,e2) intersect: s1 < e2 && s2 < e1.
// An empty period overlaps nothing, as with Postgres' daterange &&.
func (p StayPeriod) Overlaps(other StayPeriod) bool {
	if p.IsEmpty() || other.IsEmpty() {
		return false
	}
	return p.start.Before(other.end) && other.start.Before(p.end)
}

func (p StayPeriod) StartsBefore(day time.Time) bool {
	return p.start.Before(DateOf(day))
}

func (p StayPeriod) String() string {
	return fmt.Sprintf("[%s,%s)", p.start.Format(DateLayout), p.end.Format(DateLayout))
}

// Money is an amount in minor units (cents).
type Money struct {
	cents int64
}

var (
	ErrInvalidMoney = errors.New("invalid money amount")

	moneyPattern = regexp.MustCompile(`^(\d+)\.(\d{2})$`)
)

func NewMoney(cents int64) Money {
	return Money{cents: cents}
}

// NewMoneyFromFloat rounds to the nearest cent.
func NewMoneyFromFloat(amount float64) (Money, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, ErrInvalidMoney
	}
	return Money{cents: int64(math.Round(amount * 100))}, nil
}

// ParseMoney accepts exactly two decimal digits, e.g. "150.00".
func ParseMoney(s string) (Money, error) {
	m := moneyPattern.FindStringSubmatch(s)
	if m == nil {
		return Money{}, ErrInvalidMoney
	}
	units, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Money{}, ErrInvalidMoney
	}
	fraction, _ := strconv.ParseInt(m[2], 10, 64)
	if units > (math.MaxInt64-fraction)/100 {
		return Money{}, ErrInvalidMoney
	}
	return Money{cents: units*100 + fraction}, nil
}

func (m Money) Cents() int64 {
	return m.cents
}

func (m Money) Float64() float64 {
	return float64(m.cents) / 100.0
}

func (m Money) IsPositive() bool {
	return m.cents > 0
}

func (m Money) String() string {
	sign := ""
	c := m.cents
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
