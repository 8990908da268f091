package availability

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// parseTimeOfDay parses "HH:MM" into minutes after midnight.
func parseTimeOfDay(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("availability: invalid time of day %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 24 {
		return 0, fmt.Errorf("availability: invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("availability: invalid minute in %q", s)
	}
	if h == 24 && m != 0 {
		return 0, fmt.Errorf("availability: invalid time of day %q", s)
	}
	return h*60 + m, nil
}

// atMinute resolves a wall-clock time of day on day's date in day's location.
func atMinute(day time.Time, minutes int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, day.Location())
}

// shift is a working interval plus the instant its slot grid is anchored to,
// which stays the unclipped start of the shift (or of the part after a break).
type shift struct {
	Interval
	anchor time.Time
}

// workingIntervals expands weekly hours into absolute intervals inside [from, to),
// evaluated day by day in loc. Breaks are cut out. Malformed rules are skipped.
func workingIntervals(hours []WorkingHours, from, to time.Time, loc *time.Location) []shift {
	if len(hours) == 0 || !to.After(from) {
		return nil
	}
	var out []shift
	localFrom := from.In(loc)
	day := time.Date(localFrom.Year(), localFrom.Month(), localFrom.Day(), 0, 0, 0, 0, loc)
	for ; day.Before(to); day = day.AddDate(0, 0, 1) {
		for _, wh := range hours {
			if wh.Weekday != day.Weekday() {
				continue
			}
			startMin, err := parseTimeOfDay(wh.Start)
			if err != nil {
				continue
			}
			endMin, err := parseTimeOfDay(wh.End)
			if err != nil || endMin <= startMin {
				continue
			}
			pieces := []Interval{{Start: atMinute(day, startMin), End: atMinute(day, endMin)}}
			if wh.BreakStart != "" && wh.BreakEnd != "" {
				bs, errS := parseTimeOfDay(wh.BreakStart)
				be, errE := parseTimeOfDay(wh.BreakEnd)
				if errS == nil && errE == nil && be > bs {
					pieces = subtract(pieces, []Interval{{Start: atMinute(day, bs), End: atMinute(day, be)}})
				}
			}
			for _, p := range pieces {
				if clipped, ok := clip(p, from, to); ok {
					out = append(out, shift{Interval: clipped, anchor: p.Start})
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return mergeShifts(out)
}

// mergeShifts folds overlapping shifts into one so overlapping rules cannot yield
// the same window twice. The merged shift keeps the earliest anchor. Input must be
// sorted by start.
func mergeShifts(sorted []shift) []shift {
	if len(sorted) < 2 {
		return sorted
	}
	out := []shift{sorted[0]}
	for _, s := range sorted[1:] {
		cur := &out[len(out)-1]
		if !s.Start.Before(cur.End) {
			out = append(out, s)
			continue
		}
		if s.End.After(cur.End) {
			cur.End = s.End
		}
		if s.anchor.Before(cur.anchor) {
			cur.anchor = s.anchor
		}
	}
	return out
}

func shiftIntervals(shifts []shift) []Interval {
	out := make([]Interval, len(shifts))
	for i, s := range shifts {
		out[i] = s.Interval
	}
	return out
}

func clip(iv Interval, from, to time.Time) (Interval, bool) {
	if iv.Start.Before(from) {
		iv.Start = from
	}
	if iv.End.After(to) {
		iv.End = to
	}
	return iv, iv.End.After(iv.Start)
}

// overlaps reports whether two half-open intervals intersect. Empty intervals never do.
func overlaps(a, b Interval) bool {
	if !a.End.After(a.Start) || !b.End.After(b.Start) {
		return false
	}
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// subtract removes every busy interval from the free intervals.
func subtract(free, busy []Interval) []Interval {
	out := append([]Interval(nil), free...)
	for _, b := range busy {
		if !b.End.After(b.Start) {
			continue
		}
		next := out[:0:0]
		for _, f := range out {
			if !overlaps(f, b) {
				next = append(next, f)
				continue
			}
			if f.Start.Before(b.Start) {
				next = append(next, Interval{Start: f.Start, End: b.Start})
			}
			if b.End.Before(f.End) {
				next = append(next, Interval{Start: b.End, End: f.End})
			}
		}
		out = next
	}
	sortIntervals(out)
	return out
}

// sliceWindows cuts free time into windows exactly d long. Candidate starts step by
// step from the anchor of the shift the free interval belongs to.
func sliceWindows(free []Interval, shifts []shift, d, step time.Duration) []TimeWindow {
	if d <= 0 {
		return nil
	}
	if step <= 0 {
		step = d
	}
	var out []TimeWindow
	for _, f := range free {
		anchor := f.Start
		for _, s := range shifts {
			if !f.Start.Before(s.Start) && !f.End.After(s.End) {
				anchor = s.anchor
				break
			}
		}
		t := alignUp(f.Start, anchor, step)
		for !t.Add(d).After(f.End) {
			out = append(out, TimeWindow{Start: t, End: t.Add(d)})
			t = t.Add(step)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out
}

// alignUp returns the first anchor + k*step (k >= 0) not before t.
func alignUp(t, anchor time.Time, step time.Duration) time.Time {
	if !t.After(anchor) {
		return anchor
	}
	offset := t.Sub(anchor)
	k := offset / step
	if offset%step != 0 {
		k++
	}
	return anchor.Add(k * step)
}

func sortIntervals(ivs []Interval) {
	sort.Slice(ivs, func(i, j int) bool {
		if ivs[i].Start.Equal(ivs[j].Start) {
			return ivs[i].End.Before(ivs[j].End)
		}
		return ivs[i].Start.Before(ivs[j].Start)
	})
}
