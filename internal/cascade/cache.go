package cascade

import (
	"fmt"
	"hash/fnv"

	"github.com/kinderlystv-png/heys-cascade/internal/domain"
)

// inputSignature fingerprints the structural parts of a day record plus the
// goal parameters and the external update version. Any change in the fields
// that influence scoring changes the signature.
func inputSignature(day *domain.Day, profile domain.Profile, version uint64) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "v%d|", version)
	if day == nil {
		fmt.Fprint(h, "nil")
		return fmt.Sprintf("%016x", h.Sum64())
	}

	fmt.Fprintf(h, "%s|", day.Date)
	for _, m := range day.Meals {
		fmt.Fprintf(h, "m:%s;", m.Time)
		for _, it := range m.Items {
			fmt.Fprintf(h, "%s:%.1f:%.1f;", it.ProductID, it.Grams, it.Kcal100)
		}
	}
	for _, t := range day.Trainings {
		fmt.Fprintf(h, "t:%s:%d:%s:%v;", t.Time, t.Duration, t.Type, t.ZoneMinutes)
	}
	fmt.Fprintf(h, "s:%d|h:%d|w:%.2f|", day.Steps, day.HouseholdMin, day.Water)
	fmt.Fprintf(h, "sl:%s:%s:%.2f|", day.SleepStart, day.SleepEnd, day.SleepHours)
	fmt.Fprintf(h, "wm:%.2f|sup:%d/%d|", day.WeightMorning, len(day.SupplementsTaken), day.SupplementsPlanned)
	fmt.Fprintf(h, "meas:%d|", len(day.Measurements))
	fmt.Fprintf(h, "g:%s:%.0f:%d:%.1f", profile.GoalMode, profile.TargetKcal, profile.StepsGoal, profile.WaterNorm)
	return fmt.Sprintf("%016x", h.Sum64())
}

// resultCache memoizes the last computed result per date keyed by input
// signature. Invalidation either clears the entry or bumps the version so
// the next signature no longer matches.
type resultCache struct {
	signature string
	date      string
	result    *domain.Result
}

func (c *resultCache) get(date, sig string) (*domain.Result, bool) {
	if c.result == nil || c.date != date || c.signature != sig {
		return nil, false
	}
	return c.result, true
}

func (c *resultCache) put(date, sig string, res *domain.Result) {
	c.date = date
	c.signature = sig
	c.result = res
}

func (c *resultCache) clear() {
	c.result = nil
	c.signature = ""
}
