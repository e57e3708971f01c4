// Package usage aggregates execution activity for the dashboard usage chart.
package usage

import (
	"fmt"
	"time"

	"wzrd/internal/domain"
)

const (
	DefaultDays = 7
	MaxDays     = 90
)

// Window returns the first UTC day of a timeline of the given length ending on now.
func Window(now time.Time, days int) (time.Time, error) {
	if days < 1 || days > MaxDays {
		return time.Time{}, fmt.Errorf("%w: days must be within 1..%d", domain.ErrInvalidInput, MaxDays)
	}
	today := truncateDay(now)
	return today.AddDate(0, 0, -(days - 1)), nil
}

// Timeline returns one point per day from start, filling days absent from
// points with zero counts. Points outside the window are dropped and points
// sharing a day are summed.
func Timeline(points []domain.UsagePoint, start time.Time, days int) []domain.UsagePoint {
	start = truncateDay(start)
	out := make([]domain.UsagePoint, days)
	for i := range out {
		out[i].Day = start.AddDate(0, 0, i)
	}
	for _, p := range points {
		idx := int(truncateDay(p.Day).Sub(start).Hours() / 24)
		if idx < 0 || idx >= days {
			continue
		}
		out[idx].Total += p.Total
		out[idx].Succeeded += p.Succeeded
		out[idx].Failed += p.Failed
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
