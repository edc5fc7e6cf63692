// Package intent routes free-text questions to deterministic answers or the model.
package intent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/smbops/invoice-copilot/internal/ai"
	"github.com/smbops/invoice-copilot/internal/models"
	"github.com/smbops/invoice-copilot/internal/services"
)

// ErrMissingQuestion is returned for a blank question.
var ErrMissingQuestion = errors.New("missing 'question'")

// Fixed replies
const (
	Greeting = "Hi there! I can help you check invoices, show due payments, or summarize invoice info."

	Capabilities = "I can help you:\n" +
		"- Show invoices due this week\n" +
		"- Summarize invoices\n" +
		"- Tell you the top vendor by spend\n" +
		"- Report total spend and how many invoices you have\n" +
		"- Answer simple finance questions"

	NoInvoices = "No invoices uploaded yet."
	NothingDue = "No invoices are due in the next 7 days."
)

// DueWindowDays is the horizon of "due this week"
const DueWindowDays = 7

// Snapshotter supplies the visible records at question time.
type Snapshotter interface {
	Visible() []models.Invoice
}

// Completer is the external model boundary. "" means no answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) string
}

// Query is what a rule sees: the raw question, its normalized form and a snapshot.
type Query struct {
	Raw     string
	Lower   string
	Records []models.Invoice
	Today   time.Time
}

// Rule is one row of the routing table. Rules are tried in order; the first match answers.
type Rule struct {
	Name   string
	Match  func(q *Query) bool
	Handle func(ctx context.Context, q *Query) string
}

// Router answers questions about the invoice store.
type Router struct {
	store  Snapshotter
	model  Completer
	now    func() time.Time
	logger *slog.Logger
	rules  []Rule
}

// NewRouter builds the router. model may be nil, in which case open questions
// always get the local fallback.
func NewRouter(store Snapshotter, model Completer, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{store: store, model: model, now: time.Now, logger: logger}
	r.rules = r.table()
	return r
}

// SetClock replaces the time source used for due-date questions.
func (r *Router) SetClock(now func() time.Time) { r.now = now }

// Rules lists rule names in evaluation order.
func (r *Router) Rules() []string {
	names := make([]string, len(r.rules))
	for i, rule := range r.rules {
		names[i] = rule.Name
	}
	return names
}

// Answer routes question. It fails only with ErrMissingQuestion.
func (r *Router) Answer(ctx context.Context, question string) (string, error) {
	trimmed := strings.TrimSpace(question)
	if trimmed == "" {
		return "", ErrMissingQuestion
	}

	q := &Query{
		Raw:     trimmed,
		Lower:   strings.ToLower(trimmed),
		Records: r.store.Visible(),
		Today:   r.now(),
	}

	start := time.Now()
	for _, rule := range r.rules {
		if !rule.Match(q) {
			continue
		}
		answer := rule.Handle(ctx, q)
		r.logger.Info("intent.route",
			"rule", rule.Name,
			"records", len(q.Records),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return answer, nil
	}
	// the last rule always matches
	return r.fallback(q), nil
}

func (r *Router) table() []Rule {
	return []Rule{
		{Name: "greeting", Match: exact("hi", "hello", "hey"), Handle: constant(Greeting)},
		{Name: "help", Match: containsAny("what else", "what can you do", "help", "capabilities", "features"), Handle: constant(Capabilities)},
		{Name: "total_spend", Match: containsAny("total spend", "total amount"), Handle: answerTotalSpend},
		{Name: "count", Match: containsAny("number of invoices", "how many invoices"), Handle: answerCount},
		{Name: "top_vendor", Match: containsAny("top vendor"), Handle: answerTopVendor},
		{Name: "due_summary", Match: dueSummary, Handle: answerDue},
		{Name: "model", Match: always, Handle: r.answerWithModel},
	}
}

func exact(words ...string) func(*Query) bool {
	return func(q *Query) bool {
		for _, w := range words {
			if q.Lower == w {
				return true
			}
		}
		return false
	}
}

func containsAny(phrases ...string) func(*Query) bool {
	return func(q *Query) bool {
		for _, p := range phrases {
			if strings.Contains(q.Lower, p) {
				return true
			}
		}
		return false
	}
}

func dueSummary(q *Query) bool {
	if strings.Contains(q.Lower, "invoice summary") {
		return true
	}
	return strings.Contains(q.Lower, "due") && strings.Contains(q.Lower, "week")
}

func always(*Query) bool { return true }

func constant(s string) func(context.Context, *Query) string {
	return func(context.Context, *Query) string { return s }
}

func answerTotalSpend(_ context.Context, q *Query) string {
	n := services.Count(q.Records)
	return fmt.Sprintf("Total spend across %d %s is $%s.",
		n, plural(n, "invoice", "invoices"), services.TotalSpend(q.Records).StringFixed(2))
}

func answerCount(_ context.Context, q *Query) string {
	n := services.Count(q.Records)
	return fmt.Sprintf("You have %d %s uploaded.", n, plural(n, "invoice", "invoices"))
}

func answerTopVendor(_ context.Context, q *Query) string {
	vendor, total, ok := services.TopVendor(q.Records)
	if !ok {
		return NoInvoices
	}
	return fmt.Sprintf("Top vendor by spend is %s with a total of $%s.", vendor, total.StringFixed(2))
}

func answerDue(_ context.Context, q *Query) string {
	due := services.DedupeByVendorInvoice(services.DueWithin(q.Records, q.Today, DueWindowDays))
	if len(due) == 0 {
		return NothingDue
	}
	var b strings.Builder
	b.WriteString("Here's a summary of invoices due this week:")
	for _, inv := range due {
		fmt.Fprintf(&b, "\n- %s: %s %s due %s (%s)",
			inv.Vendor, inv.Total.StringFixed(2), inv.Currency, inv.DueDate, inv.InvoiceNo)
	}
	return b.String()
}

func (r *Router) answerWithModel(ctx context.Context, q *Query) string {
	if r.model != nil {
		if text := r.model.Complete(ctx, ai.BuildChatPrompt(q.Raw, q.Records)); text != "" {
			return text
		}
	}
	return r.fallback(q)
}

// fallback is the local answer used when the model is unavailable.
func (r *Router) fallback(q *Query) string {
	n := services.Count(q.Records)
	if n == 0 {
		return "I couldn't reach the assistant right now. " + NoInvoices +
			" Upload one and ask me about due dates, vendors or totals."
	}
	return fmt.Sprintf("I couldn't reach the assistant right now. You have %d %s on file totalling $%s.",
		n, plural(n, "invoice", "invoices"), services.TotalSpend(q.Records).StringFixed(2))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
