// Package probe runs the credential check: one model listing call followed
// by one minimal chat completion, stopping at the first failure.
package probe

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/germanamz/keyprobe/pkg/chats/message"
	"github.com/germanamz/keyprobe/pkg/config"
	"github.com/germanamz/keyprobe/pkg/modeladapter"
	"github.com/germanamz/keyprobe/pkg/providers/provider"
)

// Step identifies a stage of the probe.
type Step int

const (
	StepNone Step = iota
	StepListModels
	StepChat
)

func (s Step) String() string {
	switch s {
	case StepListModels:
		return "list_models"
	case StepChat:
		return "chat_completion"
	default:
		return "none"
	}
}

// ModelSummary is what the probe keeps from the model listing.
type ModelSummary struct {
	Total  int
	Sample []string // First SampleSize identifiers, in listing order.
}

// ChatResult is what the probe keeps from the chat completion.
type ChatResult struct {
	Text         string
	Model        string
	FinishReason string
	Usage        provider.Usage
}

// Outcome is the result of a probe run. Err is nil on success; otherwise
// FailedStep and Kind describe the failure and later steps were not run.
type Outcome struct {
	Models     ModelSummary
	Chat       ChatResult
	RateLimit  *modeladapter.RateLimitInfo // Last rate limit snapshot, when the client reports one.
	FailedStep Step
	Kind       Kind
	Err        error
}

// OK reports whether every step succeeded.
func (o Outcome) OK() bool { return o.Err == nil }

// ExitCode maps the outcome to a process exit status.
func (o Outcome) ExitCode() int {
	if o.OK() {
		return 0
	}
	return 1
}

// Observer is notified as steps start and succeed, so progress can be shown
// while a slow call is in flight.
type Observer interface {
	StepStarted(step Step)
	StepSucceeded(step Step, out Outcome)
}

// Options parameterize a run.
type Options struct {
	Model      string
	Prompt     string
	MaxTokens  int
	SampleSize int
	Logger     *slog.Logger // Defaults to a discarding logger.
	Observer   Observer     // Optional.
}

// OptionsFrom builds Options from a validated Config.
func OptionsFrom(cfg config.Config) Options {
	return Options{
		Model:      cfg.Model,
		Prompt:     cfg.Prompt,
		MaxTokens:  cfg.MaxTokens,
		SampleSize: cfg.SampleSize,
	}
}

// Run lists models, then sends one chat completion. It never retries.
func Run(ctx context.Context, client provider.Client, opts Options) Outcome {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	var out Outcome

	fail := func(step Step, err error) Outcome {
		out.FailedStep = step
		out.Err = err
		out.Kind = Classify(err)
		out.RateLimit = lastRateLimit(client)
		log.Info("probe step failed", "step", step, "kind", out.Kind, "err", err)
		return out
	}

	notifyStart(opts.Observer, StepListModels)

	start := time.Now()
	ids, err := client.ListModels(ctx)
	log.Debug("list models", "duration", time.Since(start), "ok", err == nil)
	if err != nil {
		return fail(StepListModels, err)
	}

	out.Models = ModelSummary{
		Total:  len(ids),
		Sample: slices.Clone(ids[:min(max(opts.SampleSize, 0), len(ids))]),
	}
	notifySuccess(opts.Observer, StepListModels, out)

	notifyStart(opts.Observer, StepChat)

	start = time.Now()
	msgs := []message.Message{message.User(opts.Prompt)}
	completion, err := client.Complete(ctx, opts.Model, msgs, opts.MaxTokens)
	log.Debug("chat completion", "model", opts.Model, "duration", time.Since(start), "ok", err == nil)
	if err != nil {
		return fail(StepChat, err)
	}

	out.Chat = ChatResult{
		Text:         completion.Text,
		Model:        completion.Model,
		FinishReason: completion.FinishReason,
		Usage:        completion.Usage,
	}
	out.RateLimit = lastRateLimit(client)
	notifySuccess(opts.Observer, StepChat, out)

	log.Info("probe succeeded", "models", out.Models.Total, "tokens", out.Chat.Usage.Total())

	return out
}

func notifyStart(o Observer, step Step) {
	if o != nil {
		o.StepStarted(step)
	}
}

func notifySuccess(o Observer, step Step, out Outcome) {
	if o != nil {
		o.StepSucceeded(step, out)
	}
}

func lastRateLimit(client provider.Client) *modeladapter.RateLimitInfo {
	if r, ok := client.(modeladapter.RateLimitInfoReporter); ok {
		return r.LastRateLimitInfo()
	}
	return nil
}
