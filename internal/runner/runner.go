// Package runner applies test filters to the targets of a test run.
package runner

import (
	"context"
	"log/slog"
	goruntime "runtime"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/715d/testfilter/pkg/testfilter"
)

// Decision is the outcome of filtering a single target.
type Decision struct {
	// Target is the test binary the decision is for.
	Target string `json:"target"`

	// Skip is set when the target must not run at all.
	Skip bool `json:"skip"`

	// Excluded lists the test cases to leave out, in filter order, without duplicates.
	Excluded []string `json:"excluded,omitempty"`
}

// GTestFilter returns the --gtest_filter value for the decision.
func (d Decision) GTestFilter() string {
	return GTestFilter(d.Excluded)
}

// Plan decides how target runs under config given filters.
func Plan(filters []testfilter.TestFilter, target, config string) Decision {
	d := Decision{Target: target}
	seen := make(map[string]bool)
	for _, f := range filters {
		if !f.AppliesTo(config) {
			continue
		}
		if f.DisablesTesting() {
			return Decision{Target: target, Skip: true}
		}
		if f.Target != target {
			continue
		}
		if f.ExcludesTarget() {
			d.Skip = true
			continue
		}
		if !seen[f.Test] {
			seen[f.Test] = true
			d.Excluded = append(d.Excluded, f.Test)
		}
	}
	if d.Skip {
		d.Excluded = nil
	}
	return d
}

// PlanAll plans every target concurrently. Decisions are returned in the
// order of targets.
func PlanAll(ctx context.Context, filters []testfilter.TestFilter, targets []string, config string) ([]Decision, error) {
	decisions := make([]Decision, len(targets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(goruntime.NumCPU())
	for i, target := range targets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			decisions[i] = Plan(filters, target, config)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	skipped := 0
	for _, d := range decisions {
		if d.Skip {
			skipped++
		}
	}
	slog.Debug("planned targets", "targets", len(targets), "skipped", skipped, "config", config)
	return decisions, nil
}

// GTestFilter builds a negative gtest filter excluding tests. It returns an
// empty string when there is nothing to exclude.
func GTestFilter(tests []string) string {
	if len(tests) == 0 {
		return ""
	}
	return "-" + strings.Join(tests, ":")
}

// Stale returns the filters that match nothing in registered, which maps
// each known target to its test cases. Sentinel filters are never stale.
// Stale filters are harmless no-ops; they are reported so they can be pruned.
func Stale(filters []testfilter.TestFilter, registered map[string][]string) []testfilter.TestFilter {
	var stale []testfilter.TestFilter
	for _, f := range filters {
		if f.DisablesTesting() {
			continue
		}
		tests, ok := registered[f.Target]
		if !ok {
			stale = append(stale, f)
			continue
		}
		if f.ExcludesTarget() {
			continue
		}
		if !slices.Contains(tests, f.Test) {
			stale = append(stale, f)
		}
	}
	return stale
}
