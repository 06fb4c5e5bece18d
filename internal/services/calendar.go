package services

import (
	"math"
	"time"

	"github.com/yungbote/licensing-crm-backend/internal/pkg/clock"
)

// Calendar resolves "today" and "this month" in the school's local time zone.
type Calendar struct {
	clk clock.Clock
	loc *time.Location
}

func NewCalendar(clk clock.Clock, loc *time.Location) Calendar {
	if clk == nil {
		clk = clock.Real{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return Calendar{clk: clk, loc: loc}
}

func (c Calendar) Now() time.Time { return c.clk.Now().In(c.loc) }

// Today is local midnight to the next local midnight.
func (c Calendar) Today() (time.Time, time.Time) {
	now := c.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.loc)
	return start, start.AddDate(0, 0, 1)
}

func (c Calendar) MonthStart() time.Time {
	now := c.Now()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.loc)
}

func round1(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10) / 10
}

func roundCents(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*100) / 100
}

// percent is num/den*100, 0 when den is 0.
func percent(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return round1(num / den * 100)
}

// percentChange is (cur-prev)/prev*100, 0 when prev is 0.
func percentChange(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return round1((cur - prev) / prev * 100)
}
