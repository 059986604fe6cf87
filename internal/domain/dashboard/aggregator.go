package dashboard

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hl7dash/hl7dash/internal/platform/upstream"
)

// BuildCharts folds a range of daily counts into one ChartState.
//
// The hour axis is taken from the first day; every other day is aligned to
// it, with missing hour buckets counted as zero and surplus buckets ignored.
// Days whose buckets diverge from the axis are reported through the returned
// error, but the state is still complete and usable. The build is
// deterministic: the same input always yields the same state, with unit
// series in sorted name order.
func BuildCharts(daily []upstream.DailyCount) (*ChartState, error) {
	state := &ChartState{
		Hours:          []string{},
		GlobalSeries:   []Series{},
		UnitCategories: []string{},
		UnitSeries:     []Series{},
	}
	if len(daily) == 0 {
		return state, nil
	}

	hours := make([]string, 0, len(daily[0].HourlyCounts))
	for _, h := range daily[0].HourlyCounts {
		hours = append(hours, string(h.Hour))
	}
	state.Hours = hours
	state.RangeStart = daily[0].Date
	state.RangeEnd = daily[len(daily)-1].Date

	// Index each day's buckets by hour label so alignment is a lookup.
	type dayIndex struct {
		date    string
		buckets map[string]upstream.HourlyCount
	}
	days := make([]dayIndex, 0, len(daily))
	var divergences []error
	for _, d := range daily {
		idx := dayIndex{date: d.Date, buckets: make(map[string]upstream.HourlyCount, len(d.HourlyCounts))}
		for _, h := range d.HourlyCounts {
			idx.buckets[string(h.Hour)] = h
		}
		days = append(days, idx)

		if diff := axisDivergence(hours, d.HourlyCounts); diff != "" {
			divergences = append(divergences, fmt.Errorf("day %s: %s", d.Date, diff))
		}
	}

	units := make(map[string]struct{})
	for _, day := range days {
		state.GlobalSeries = append(state.GlobalSeries, Series{
			Name: day.date,
			Data: totalsFor(day.buckets, hours),
		})
		// Only axis-aligned buckets contribute units; a unit seen solely in
		// a surplus hour would otherwise get an all-zero series.
		for _, hour := range hours {
			for unit := range day.buckets[hour].ByUnit {
				units[unit] = struct{}{}
			}
			state.UnitCategories = append(state.UnitCategories, day.date+" "+hour)
		}
	}

	unitNames := make([]string, 0, len(units))
	for unit := range units {
		unitNames = append(unitNames, unit)
	}
	sort.Strings(unitNames)

	for _, unit := range unitNames {
		data := make([]int, 0, len(days)*len(hours))
		for _, day := range days {
			for _, hour := range hours {
				data = append(data, day.buckets[hour].ByUnit[unit])
			}
		}
		state.UnitSeries = append(state.UnitSeries, Series{Name: unit, Data: data})
	}

	return state, errors.Join(divergences...)
}

func totalsFor(buckets map[string]upstream.HourlyCount, hours []string) []int {
	data := make([]int, 0, len(hours))
	for _, hour := range hours {
		data = append(data, buckets[hour].TotalPatients)
	}
	return data
}

// axisDivergence describes how a day's hour buckets differ from the axis, or
// returns "" when they match it exactly.
func axisDivergence(hours []string, counts []upstream.HourlyCount) string {
	seen := make(map[string]struct{}, len(counts))
	var extra []string
	for _, h := range counts {
		label := string(h.Hour)
		seen[label] = struct{}{}
		if !containsLabel(hours, label) {
			extra = append(extra, label)
		}
	}
	var missing []string
	for _, hour := range hours {
		if _, ok := seen[hour]; !ok {
			missing = append(missing, hour)
		}
	}
	switch {
	case len(missing) > 0 && len(extra) > 0:
		return fmt.Sprintf("missing hours %v, unexpected hours %v", missing, extra)
	case len(missing) > 0:
		return fmt.Sprintf("missing hours %v", missing)
	case len(extra) > 0:
		return fmt.Sprintf("unexpected hours %v", extra)
	}
	return ""
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
