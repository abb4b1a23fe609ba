package tester

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	log "github.com/sirupsen/logrus"
	"github.com/webosose/bluetooth-sil-api/api/errorkinds"
	"go.uber.org/atomic"
)

// Result is the outcome of one test.
type Result struct {
	Path     string
	Failed   bool
	Messages []string
	Duration time.Duration
}

// Report holds the results of a run.
type Report struct {
	Results []Result
}

// Failed returns the number of failed tests.
func (r *Report) Failed() int {
	n := 0
	for _, result := range r.Results {
		if result.Failed {
			n++
		}
	}

	return n
}

// Passed returns the number of passed tests.
func (r *Report) Passed() int {
	return len(r.Results) - r.Failed()
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithOutput sets where progress and the report are written.
func WithOutput(w io.Writer) RunnerOption {
	return func(r *Runner) { r.out = w }
}

// WithVerbose prints each test as it runs instead of a progress bar.
func WithVerbose(verbose bool) RunnerOption {
	return func(r *Runner) { r.verbose = verbose }
}

// WithProgress enables the progress bar in non-verbose mode.
func WithProgress(progress bool) RunnerOption {
	return func(r *Runner) { r.progress = progress }
}

// Runner runs tests one after the other on the context's event loop.
type Runner struct {
	ctx *Context
	out io.Writer

	verbose  bool
	progress bool

	passed atomic.Int32
	failed atomic.Int32
}

// NewRunner returns a runner for ctx.
func NewRunner(ctx *Context, opts ...RunnerOption) *Runner {
	r := &Runner{ctx: ctx, out: os.Stdout, progress: true}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Counts returns the number of passed and failed tests so far.
func (r *Runner) Counts() (passed, failed int) {
	return int(r.passed.Load()), int(r.failed.Load())
}

// Run runs the tests and writes the report. It returns an error wrapping
// errorkinds.ErrTestsFailed if any test failed.
func (r *Runner) Run(tests []Test) (*Report, error) {
	report := &Report{Results: make([]Result, 0, len(tests))}

	var bar *progressbar.ProgressBar
	if !r.verbose && r.progress {
		bar = progressbar.NewOptions(len(tests),
			progressbar.OptionSetWriter(r.out),
			progressbar.OptionSetDescription("Running"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionSetRenderBlankState(true),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, test := range tests {
		if bar != nil {
			bar.Describe(test.Path)
		}

		result := r.RunTest(test)
		report.Results = append(report.Results, result)

		if r.verbose {
			r.printResult(result)
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if bar != nil {
		_ = bar.Finish()
	}

	r.PrintReport(report)

	if failed := report.Failed(); failed > 0 {
		return report, errorkinds.GenericError{
			Errors: errors.Wrapf(errorkinds.ErrTestsFailed, "%d of %d", failed, len(report.Results)),
		}
	}

	return report, nil
}

// RunTest runs one test: its setup, its body if setup succeeded, and its
// teardown. The event loop is reset afterwards.
func (r *Runner) RunTest(test Test) Result {
	t := newT(r.ctx, test.Path)
	start := time.Now()

	t.Logf("Starting")

	if r.call(t, test.Fixture.Setup) {
		r.call(t, test.Body)

		if t.Observer != nil {
			for _, violation := range t.Observer.Violations() {
				t.Errorf("overlapping pairing requests: %s", violation)
			}
		}
	}

	r.ctx.Loop.Reset()
	r.call(t, test.Fixture.Teardown)

	t.finish()
	r.ctx.Loop.Reset()

	if t.Failed() {
		r.failed.Inc()
	} else {
		r.passed.Inc()
	}

	return Result{
		Path:     test.Path,
		Failed:   t.Failed(),
		Messages: t.messages,
		Duration: time.Since(start),
	}
}

// call runs fn, turning a failure that stops the test into a false
// return.
func (r *Runner) call(t *T, fn func(*T)) (ok bool) {
	if fn == nil {
		return !t.Failed()
	}

	defer func() {
		rec := recover()
		if rec == nil {
			return
		}

		ok = false

		if _, isFatal := rec.(fatal); isFatal {
			return
		}

		t.Errorf("panic: %v", rec)
		log.Debugf("%s", debug.Stack())
	}()

	fn(t)

	return !t.Failed()
}

func (r *Runner) printResult(result Result) {
	status := color.New(color.FgGreen, color.Bold).Sprint("PASS")
	if result.Failed {
		status = color.New(color.FgRed, color.Bold).Sprint("FAIL")
	}

	fmt.Fprintf(r.out, "%s %s (%s)\n", status, result.Path, result.Duration.Round(time.Millisecond))
}

// PrintReport writes the failures and a summary.
func (r *Runner) PrintReport(report *Report) {
	width := 0
	for _, result := range report.Results {
		width = max(width, runewidth.StringWidth(result.Path))
	}

	for _, result := range report.Results {
		if !result.Failed {
			continue
		}

		fmt.Fprintf(r.out, "%s  %s\n",
			color.New(color.FgRed, color.Bold).Sprint("FAIL"),
			runewidth.FillRight(result.Path, width),
		)

		for _, msg := range result.Messages {
			fmt.Fprintf(r.out, "      %s\n", strings.ReplaceAll(msg, "\n", "\n      "))
		}
	}

	summary := color.New(color.FgGreen, color.Bold)
	if report.Failed() > 0 {
		summary = color.New(color.FgRed, color.Bold)
	}

	summary.Fprintf(r.out, "%d passed, %d failed, %d total\n",
		report.Passed(), report.Failed(), len(report.Results),
	)
}
