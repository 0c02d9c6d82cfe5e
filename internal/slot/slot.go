// Package slot derives bookable time windows from a field's opening
// hours and owns the interval-overlap rule used everywhere in the
// module.  Slots are pure values recomputed on every read; they are
// never persisted.
package slot

import (
	"fmt"
	"time"
)

// Status labels a derived slot for display.  AVAILABLE and PAST are
// assigned by Generate; BOOKED is overlaid afterwards from live
// booking data and is the only authoritative part of the label.
type Status string

// Slot display states.
const (
	StatusAvailable Status = "AVAILABLE"
	StatusBooked    Status = "BOOKED"
	StatusPast      Status = "PAST"
)

// Slot is one derived bookable window.  StartLocal/EndLocal are
// "HH:MM" wall-clock labels; Start/End are the corresponding UTC
// instants used for conflict checks.
type Slot struct {
	StartLocal string    `json:"start"`
	EndLocal   string    `json:"end"`
	Start      time.Time `json:"start_iso"`
	End        time.Time `json:"end_iso"`
	Status     Status    `json:"status"`
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.  A booking ending exactly when another
// starts does not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// ParseHour converts an "HH:MM" time-of-day string into hour and
// minute components.  Values outside the clock range are rejected.
func ParseHour(s string) (hour, min int, err error) {
	if _, err = fmt.Sscanf(s, "%d:%d", &hour, &min); err != nil {
		return 0, 0, fmt.Errorf("invalid hour %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("invalid hour %q: out of range", s)
	}
	return hour, min, nil
}

// Generate produces the ordered sequence of slots for one calendar day.
// The cursor starts at date@openHour and advances by duration minutes;
// a trailing window that would run past date@closeHour is dropped, not
// truncated.  Slots whose end is at or before now are labelled PAST;
// everything else starts as AVAILABLE.  The result is deterministic
// for fixed inputs: only the PAST labelling depends on now.
func Generate(date time.Time, openHour, closeHour string, duration int, now time.Time) ([]Slot, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("invalid slot duration %d", duration)
	}
	oh, om, err := ParseHour(openHour)
	if err != nil {
		return nil, err
	}
	ch, cm, err := ParseHour(closeHour)
	if err != nil {
		return nil, err
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	open := day.Add(time.Duration(oh)*time.Hour + time.Duration(om)*time.Minute)
	close := day.Add(time.Duration(ch)*time.Hour + time.Duration(cm)*time.Minute)
	if !open.Before(close) {
		return nil, fmt.Errorf("open hour %s not before close hour %s", openHour, closeHour)
	}

	step := time.Duration(duration) * time.Minute
	slots := make([]Slot, 0, int(close.Sub(open)/step))
	for cursor := open; !cursor.Add(step).After(close); cursor = cursor.Add(step) {
		end := cursor.Add(step)
		st := StatusAvailable
		if !end.After(now) {
			st = StatusPast
		}
		slots = append(slots, Slot{
			StartLocal: cursor.Format("15:04"),
			EndLocal:   end.Format("15:04"),
			Start:      cursor,
			End:        end,
			Status:     st,
		})
	}
	return slots, nil
}

// Interval is the minimal view of a booking the overlay needs.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Annotate overlays BOOKED onto slots that intersect any of the given
// intervals.  The intervals must already be filtered to non-cancelled
// bookings; cancelled bookings never block a slot.  The labelling is
// advisory display state, not the authoritative availability check.
func Annotate(slots []Slot, booked []Interval) []Slot {
	for i := range slots {
		for _, b := range booked {
			if Overlaps(slots[i].Start, slots[i].End, b.Start, b.End) {
				slots[i].Status = StatusBooked
				break
			}
		}
	}
	return slots
}
