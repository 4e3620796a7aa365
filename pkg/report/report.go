// Package report renders probe progress and results as human-readable text.
package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/germanamz/keyprobe/pkg/config"
	"github.com/germanamz/keyprobe/pkg/modeladapter"
	"github.com/germanamz/keyprobe/pkg/probe"
)

// BillingURL is where a quota problem gets fixed.
const BillingURL = "https://platform.openai.com/account/billing"

var _ probe.Observer = (*Reporter)(nil)

// Reporter writes probe output to a writer. It doubles as a probe.Observer
// so step banners appear before each remote call starts.
type Reporter struct {
	w  io.Writer
	st styles

	mdWidth int
	md      *glamour.TermRenderer

	now func() time.Time
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithMarkdown renders the chat reply as markdown wrapped at width columns.
// A non-positive width falls back to 100.
func WithMarkdown(width int) Option {
	return func(r *Reporter) {
		if width <= 0 {
			width = 100
		}
		r.mdWidth = width
	}
}

// WithClock sets the clock used to show when rate limits reset.
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		r.now = now
	}
}

// New creates a Reporter writing to w.
func New(w io.Writer, opts ...Option) *Reporter {
	lr := lipgloss.NewRenderer(w)
	r := &Reporter{w: w, st: newStyles(lr), now: time.Now}

	for _, opt := range opts {
		opt(r)
	}

	if r.mdWidth > 0 {
		r.md = newMarkdownRenderer(lr, r.mdWidth)
	}

	return r
}

func newMarkdownRenderer(lr *lipgloss.Renderer, width int) *glamour.TermRenderer {
	style := glamourstyles.LightStyleConfig
	switch {
	case lr.ColorProfile() == termenv.Ascii:
		style = glamourstyles.ASCIIStyleConfig
	case lr.HasDarkBackground():
		style = glamourstyles.DarkStyleConfig
	}

	md, err := glamour.NewTermRenderer(
		glamour.WithStyles(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil
	}
	return md
}

// Header prints the banner shown before any call is made.
func (r *Reporter) Header() {
	r.println(r.st.title.Render("🔑 Testing OpenAI API key..."))
	r.println(strings.Repeat("-", ruleWidth))
}

// MissingKey prints the message for an absent credential.
func (r *Reporter) MissingKey() {
	r.println(r.st.failure.Render("❌ Error: " + config.ErrMissingAPIKey.Error()))
	r.println("Make sure you have added it to your .env file")
}

// ConfigError prints a configuration problem other than a missing key.
func (r *Reporter) ConfigError(err error) {
	r.println(r.st.failure.Render("❌ Configuration error: ") + err.Error())
}

// StepStarted prints the banner of the step about to run.
func (r *Reporter) StepStarted(step probe.Step) {
	switch step {
	case probe.StepListModels:
		r.println("\n" + r.st.step.Render("📋 Fetching available models..."))
	case probe.StepChat:
		r.println("\n" + r.st.step.Render("💬 Testing a simple chat completion..."))
	}
}

// StepSucceeded prints what a step produced.
func (r *Reporter) StepSucceeded(step probe.Step, out probe.Outcome) {
	switch step {
	case probe.StepListModels:
		r.println(r.st.success.Render("✅ Successfully connected to OpenAI API!"))
		r.printf("📦 Found %d models\n", out.Models.Total)
		r.printf("   Sample models: %s\n", strings.Join(out.Models.Sample, ", "))

	case probe.StepChat:
		r.println(r.st.success.Render("✅ Chat completion successful!"))
		r.println("🤖 Response: " + r.reply(out.Chat.Text))

		if line := servedByLine(out.Chat); line != "" {
			r.println(r.st.dim.Render("   " + line))
		}

		if u := out.Chat.Usage; u.Total() > 0 {
			r.println(r.st.dim.Render(fmt.Sprintf("   Tokens: %s prompt, %s completion, %s total",
				FmtTokens(u.PromptTokens), FmtTokens(u.CompletionTokens), FmtTokens(u.Total()))))
		}

		if line := rateLimitLine(out.RateLimit, r.now()); line != "" {
			r.println(r.st.dim.Render("   " + line))
		}
	}
}

// Outcome prints the final verdict of a run.
func (r *Reporter) Outcome(out probe.Outcome) {
	if out.OK() {
		rule := strings.Repeat("=", ruleWidth)
		r.println("\n" + rule)
		r.println(r.st.success.Render("✅ All tests passed! Your OpenAI API key is working correctly."))
		r.println(rule)
		return
	}

	msg := strings.TrimSpace(out.Err.Error())

	switch out.Kind {
	case probe.KindQuota:
		r.println("\n" + r.st.warning.Render("⚠️  Quota/Billing Issue:"))
		r.println(r.st.errorBlock.Render(msg))
		r.println("\n" + r.st.success.Render("✅ Your API key is VALID and working!"))
		r.println(r.st.failure.Render("❌ But your account has no credits or exceeded quota."))
		if d := retryAfter(out.Err); d > 0 {
			r.printf("   The API asked to retry after %s.\n", FmtDuration(d))
		}
		r.println("\nTo fix this:")
		r.println("  1. Go to " + BillingURL)
		r.println("  2. Add payment method or credits")
		r.println("  3. Check your usage limits")

	case probe.KindInvalidCredential:
		r.println("\n" + r.st.failure.Render("❌ Invalid API Key:"))
		r.println(r.st.errorBlock.Render(msg))
		r.println("  - Check that your API key is correct")
		r.println("  - Make sure it starts with 'sk-'")

	default:
		r.println("\n" + r.st.failure.Render("❌ Error:"))
		r.println(r.st.errorBlock.Render(msg))
		r.println("\nPossible issues:")
		r.println("  - Network connection problem")
		r.println("  - API service temporarily unavailable")
	}
}

func (r *Reporter) reply(text string) string {
	if r.md == nil {
		return r.st.answer.Render(text)
	}
	out, err := r.md.Render(text)
	if err != nil {
		return text
	}
	return "\n" + strings.TrimRight(out, "\n")
}

func (r *Reporter) println(s string) {
	_, _ = fmt.Fprintln(r.w, s)
}

func (r *Reporter) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.w, format, args...)
}

func retryAfter(err error) time.Duration {
	var rle *modeladapter.RateLimitError
	if errors.As(err, &rle) {
		return rle.RetryAfter
	}
	return 0
}

func servedByLine(chat probe.ChatResult) string {
	switch {
	case chat.Model != "" && chat.FinishReason != "":
		return fmt.Sprintf("Model: %s (finish reason: %s)", chat.Model, chat.FinishReason)
	case chat.Model != "":
		return "Model: " + chat.Model
	case chat.FinishReason != "":
		return "Finish reason: " + chat.FinishReason
	default:
		return ""
	}
}

func rateLimitLine(info *modeladapter.RateLimitInfo, now time.Time) string {
	if info == nil {
		return ""
	}

	var parts []string
	if info.RemainingRequests >= 0 {
		parts = append(parts, fmt.Sprintf("%d requests", info.RemainingRequests)+resetSuffix(info.RequestsReset, now))
	}
	if info.RemainingTokens >= 0 {
		parts = append(parts, FmtTokens(info.RemainingTokens)+" tokens"+resetSuffix(info.TokensReset, now))
	}
	if len(parts) == 0 {
		return ""
	}

	return "Rate limit remaining: " + strings.Join(parts, ", ")
}

func resetSuffix(reset, now time.Time) string {
	if reset.IsZero() || !reset.After(now) {
		return ""
	}
	return " (resets in " + FmtDuration(reset.Sub(now)) + ")"
}

// FmtTokens formats a token count for display, using k/M suffixes.
func FmtTokens(n int) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 1_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return fmt.Sprintf("%d", n)
	}
}

// FmtDuration formats a duration for display.
func FmtDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}
