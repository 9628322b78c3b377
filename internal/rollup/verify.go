package rollup

import (
	"fmt"

	"github.com/joseph-data/05-employed-occupation-by-ai/pkg/core"
)

// Verify checks the conservation invariants of a combined table:
//   - employment_total equals the sum of employment over the age rows of its
//     (level, code, year), and is identical on each of those rows
//   - every level-4 row has exactly one child
//
// rows must be sorted by (level, code, year, age), as Assemble returns them.
func Verify(rows []core.Row) error {
	type key struct {
		level core.Level
		code  string
		year  int
	}

	var (
		current key
		sum     float64
		total   float64
		started bool
	)
	check := func() error {
		if started && sum != total {
			return fmt.Errorf("%s code %s year %d: employment_total %v != sum of age rows %v",
				current.level, current.code, current.year, total, sum)
		}
		return nil
	}

	for _, r := range rows {
		if !r.Level.Valid() {
			return fmt.Errorf("row with invalid level %d", r.Level)
		}
		if len(r.Code) != int(r.Level) {
			return fmt.Errorf("%s row has code %q of width %d", r.Level, r.Code, len(r.Code))
		}
		if r.Level == core.Level4 && (r.NChildren == nil || *r.NChildren != 1) {
			return fmt.Errorf("level4 code %s year %d must have exactly one child", r.Code, r.Year)
		}

		k := key{level: r.Level, code: r.Code, year: r.Year}
		if !started || k != current {
			if err := check(); err != nil {
				return err
			}
			current, sum, total, started = k, 0, r.EmploymentTotal, true
		} else if r.EmploymentTotal != total {
			return fmt.Errorf("%s code %s year %d: employment_total differs between age rows",
				r.Level, r.Code, r.Year)
		}
		sum += r.Employment
	}
	return check()
}
