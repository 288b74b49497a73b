package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	"github.com/roach88/vectorcheck/internal/harness"
)

// RunReport is the JSON shape of a run or validation.
type RunReport struct {
	RunID          string          `json:"run_id"`
	Mode           string          `json:"mode"`
	Root           string          `json:"root"`
	Passed         int             `json:"passed"`
	Failed         int             `json:"failed"`
	BrokenFixtures int             `json:"broken_fixtures"`
	Skipped        int             `json:"skipped"`
	Fixtures       []FixtureReport `json:"fixtures"`
}

// FixtureReport describes one fixture.
type FixtureReport struct {
	Path     string         `json:"path"`
	Title    string         `json:"title,omitempty"`
	Pass     bool           `json:"pass"`
	Category string         `json:"category,omitempty"`
	Error    string         `json:"error,omitempty"`
	Hint     string         `json:"hint,omitempty"`
	Skipped  int            `json:"skipped,omitempty"`
	Vectors  []VectorReport `json:"vectors"`
}

// VectorReport describes one vector.
type VectorReport struct {
	Place  string `json:"place"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Log    string `json:"log,omitempty"`
}

func newRunReport(result *harness.RunResult) RunReport {
	passed, failed, broken, skipped := result.Counts()
	report := RunReport{
		RunID:          result.RunID,
		Mode:           string(result.Mode),
		Root:           result.Root,
		Passed:         passed,
		Failed:         failed,
		BrokenFixtures: broken,
		Skipped:        skipped,
	}
	report.Fixtures = lo.Map(result.Fixtures, func(f harness.FixtureResult, _ int) FixtureReport {
		fr := FixtureReport{
			Path:    f.Path,
			Title:   f.Title,
			Pass:    f.Pass(),
			Skipped: f.Skipped,
		}
		if f.Err != nil {
			fr.Category = harness.Category(f.Err)
			fr.Error = f.Err.Error()
			fr.Hint = errors.FlattenHints(f.Err)
		}
		fr.Vectors = lo.Map(f.Vectors, func(v harness.VectorResult, _ int) VectorReport {
			vr := VectorReport{
				Place:  v.Place,
				Kind:   v.Kind.String(),
				Status: "pass",
				Log:    v.Log,
			}
			if v.Err != nil {
				vr.Status = harness.Category(v.Err)
				vr.Error = v.Err.Error()
			}
			return vr
		})
		return fr
	})
	return report
}

// writeRunText prints failures in detail and passing fixtures as one line.
func writeRunText(w io.Writer, report RunReport, verbose bool) {
	for _, f := range report.Fixtures {
		if f.Error != "" {
			fmt.Fprintf(w, "✗ %s\n", f.Path)
			fmt.Fprintln(w, indent(f.Error, "  "))
			if f.Hint != "" {
				fmt.Fprintln(w, indent("hint: "+f.Hint, "  "))
			}
			continue
		}

		failing := lo.Filter(f.Vectors, func(v VectorReport, _ int) bool { return v.Status != "pass" })
		mark := "✓"
		if len(failing) > 0 {
			mark = "✗"
		}
		line := fmt.Sprintf("%s %s (%d vectors", mark, f.Path, len(f.Vectors))
		if f.Skipped > 0 {
			line += fmt.Sprintf(", %d skipped", f.Skipped)
		}
		fmt.Fprintln(w, line+")")

		for _, v := range f.Vectors {
			switch {
			case v.Status != "pass":
				fmt.Fprintf(w, "  ✗ %s [%s]\n", v.Place, v.Status)
				fmt.Fprintln(w, indent(v.Error, "    "))
			case verbose:
				fmt.Fprintf(w, "  ✓ %s\n", v.Place)
			}
			if v.Log != "" {
				fmt.Fprintln(w, indent(v.Log, "    "))
			}
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Summary: %d passed, %d failed, %d broken fixtures, %d skipped\n",
		report.Passed, report.Failed, report.BrokenFixtures, report.Skipped)
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
