package eval

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"retirebot/internal/domain"
	"retirebot/internal/orchestrator"
)

// Assistant is the surface the runner drives. The orchestrator
// satisfies it.
type Assistant interface {
	HandleMessage(ctx context.Context, sessionID, text string) (*orchestrator.Result, error)
}

// CaseResult records the outcome of one case.
type CaseResult struct {
	Case     Case
	Reply    string
	Domain   domain.Domain
	Failures []string // hard check failures
	Warnings []string // soft heuristic findings
}

func (r CaseResult) Passed() bool { return len(r.Failures) == 0 }

// Summary aggregates a full run.
type Summary struct {
	Total       int
	FailedCases []string // IDs with hard failures
	Warnings    int
	Results     []CaseResult
}

func (s *Summary) Passed() bool { return len(s.FailedCases) == 0 }

// Runner executes cases against the assistant, each in its own session
// so cases never leak conversational context into each other.
type Runner struct {
	assistant Assistant
	out       io.Writer
	logger    *slog.Logger
}

type RunnerConfig struct {
	Assistant Assistant
	Out       io.Writer // progress report destination (default os.Stdout)
	Logger    *slog.Logger
}

func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runner{assistant: cfg.Assistant, out: cfg.Out, logger: cfg.Logger}
}

// Run executes every case and prints a compact report.
func (r *Runner) Run(ctx context.Context, cases []Case) (*Summary, error) {
	summary := &Summary{Total: len(cases)}
	fmt.Fprintf(r.out, "Running %d evaluation cases\n", len(cases))

	for _, c := range cases {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, err := r.runCase(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", c.ID, err)
		}

		summary.Results = append(summary.Results, res)
		summary.Warnings += len(res.Warnings)
		if !res.Passed() {
			summary.FailedCases = append(summary.FailedCases, c.ID)
		}

		r.report(res)
	}

	fmt.Fprintf(r.out, "\n=== Summary ===\n")
	fmt.Fprintf(r.out, "Total cases: %d\n", summary.Total)
	fmt.Fprintf(r.out, "Hard failures: %d\n", len(summary.FailedCases))
	if len(summary.FailedCases) > 0 {
		fmt.Fprintf(r.out, "Failed case IDs: %s\n", strings.Join(summary.FailedCases, ", "))
	}
	fmt.Fprintf(r.out, "Warnings: %d\n", summary.Warnings)

	return summary, nil
}

func (r *Runner) runCase(ctx context.Context, c Case) (CaseResult, error) {
	sessionID := "eval_" + c.ID
	res, err := r.assistant.HandleMessage(ctx, sessionID, c.Input)
	if err != nil {
		return CaseResult{}, err
	}

	out := CaseResult{Case: c, Reply: res.Reply, Domain: res.Decision.Domain}

	if res.Failed {
		out.Failures = append(out.Failures, "assistant returned its failure apology")
	}
	if missing := containsAll(res.Reply, c.MustContain); len(missing) > 0 {
		out.Failures = append(out.Failures,
			fmt.Sprintf("missing required phrases: %s", strings.Join(missing, "; ")))
	}
	if banned := containsAny(res.Reply, c.MustNotContain); len(banned) > 0 {
		out.Failures = append(out.Failures,
			fmt.Sprintf("contains banned phrases: %s", strings.Join(banned, "; ")))
	}
	if len(c.ExpectedDomains) > 0 && !domainExpected(res.Decision.Domain, c.ExpectedDomains) {
		out.Failures = append(out.Failures,
			fmt.Sprintf("routed to %s, expected one of %s",
				res.Decision.Domain, strings.Join(c.ExpectedDomains, ", ")))
	}

	// Soft heuristic: a multi-domain ask should touch both programs and
	// the user's city when one was hinted.
	if c.IntentType == "multi_domain" {
		lower := strings.ToLower(res.Reply)
		var gaps []string
		if !strings.Contains(lower, "medicare") {
			gaps = append(gaps, "medicare")
		}
		if !strings.Contains(lower, "medicaid") {
			gaps = append(gaps, "medicaid")
		}
		if city := c.ProfileHints["city"]; city != "" && !strings.Contains(lower, strings.ToLower(city)) {
			gaps = append(gaps, "city "+city)
		}
		if len(gaps) > 0 {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("reply does not mention: %s", strings.Join(gaps, ", ")))
		}
	}

	return out, nil
}

func (r *Runner) report(res CaseResult) {
	fmt.Fprintf(r.out, "\n=== Case %s ===\n", res.Case.ID)
	fmt.Fprintf(r.out, "Input: %s\n", res.Case.Input)
	fmt.Fprintf(r.out, "Domain: %s\n", res.Domain)
	for _, f := range res.Failures {
		fmt.Fprintf(r.out, "[FAIL] %s\n", f)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(r.out, "[WARN] %s\n", w)
	}
	if res.Passed() {
		fmt.Fprintln(r.out, "[OK] all hard checks passed")
	}
}

func domainExpected(d domain.Domain, expected []string) bool {
	for _, e := range expected {
		if string(d) == strings.ToLower(strings.TrimSpace(e)) {
			return true
		}
	}
	return false
}
