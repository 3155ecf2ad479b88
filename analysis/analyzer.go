// Package analysis consumes the transaction stream and evaluates every
// event against a fixed anomaly rule set. It is purely observational: it
// never mutates ledger state.
package analysis

import (
	"context"
	"strings"
	"sync"

	"github.com/quantabank/bankstream"
)

// defaultSeenLimit bounds the re-delivery cache
const defaultSeenLimit = 4096

// Analyzer evaluates transaction events against its rule set. Evaluation is
// a pure function of the event's fields; the analyzer keeps no counters
// across events, so re-delivering an event yields the same flags.
type Analyzer struct {
	rules   []Rule
	logger  bankstream.Logger
	metrics bankstream.Metrics

	mu        sync.Mutex
	seen      map[string]struct{}
	seenOrder []string
	seenLimit int
}

// NewAnalyzer returns an Analyzer. A nil rules slice means DefaultRules.
func NewAnalyzer(rules []Rule, logger bankstream.Logger, metrics bankstream.Metrics) (*Analyzer, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	if logger == nil {
		logger = bankstream.NopLogger
	}
	if metrics == nil {
		metrics = bankstream.NopMetrics
	}

	return &Analyzer{
		rules:     rules,
		logger:    logger,
		metrics:   metrics,
		seen:      map[string]struct{}{},
		seenLimit: defaultSeenLimit,
	}, nil
}

// Analyze evaluates the rule set against a single event and returns the
// raised flags. Deterministic given identical input.
func (a *Analyzer) Analyze(event *bankstream.TransactionEvent) []Flag {
	if event == nil {
		return nil
	}

	var flags []Flag
	for _, rule := range a.rules {
		if msg, fired := rule.Check(event); fired {
			flags = append(flags, Flag{Rule: rule.Name, Severity: rule.Severity, Message: msg})
		}
	}

	return flags
}

// Handle consumes one delivered event: it logs the analysis, flags
// anomalies and records metrics. Re-delivered events are logged as such but
// produce the same flags again. Handle satisfies bankstream.EventHandler
// and never returns an error.
func (a *Analyzer) Handle(ctx context.Context, event *bankstream.TransactionEvent) error {
	if event == nil {
		a.logger.Warn("unable to handle nil event, skipping", nil)
		return nil
	}

	if a.markSeen(eventID(event)) {
		a.logger.Debug("event re-delivered", func(entry bankstream.LoggerEntry) {
			entry.String("transaction_id", event.TransactionID)
			entry.String("event_type", string(event.EventType))
		})
	}

	a.logger.Info("received transaction event", func(entry bankstream.LoggerEntry) {
		entry.String("transaction_id", event.TransactionID)
		entry.String("event_type", string(event.EventType))
		entry.String("amount", event.Amount.String())
		entry.String("currency", string(event.Currency))
		entry.String("from_customer", event.FromAccount.Customer.Name)
		entry.String("to_customer", event.ToAccount.Customer.Name)
	})

	for _, flag := range a.Analyze(event) {
		a.metrics.AnomalyFlagged(flag.Rule)

		log := a.logger.Warn
		if flag.Severity == SeverityCritical {
			log = a.logger.Error
		}
		log("anomaly detected", func(entry bankstream.LoggerEntry) {
			entry.String("rule", flag.Rule)
			entry.String("severity", string(flag.Severity))
			entry.String("message", flag.Message)
			entry.String("transaction_id", event.TransactionID)
		})
	}

	if strings.Contains(event.Metadata.Source, "api") {
		a.logger.Debug("api initiated transaction", func(entry bankstream.LoggerEntry) {
			entry.String("transaction_id", event.TransactionID)
		})
	}

	return nil
}

// markSeen records the event identity and reports whether it was already
// delivered before. The cache is bounded FIFO; eviction only costs us a
// missing "re-delivered" log line, never a wrong analysis.
func (a *Analyzer) markSeen(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, delivered := a.seen[id]; delivered {
		return true
	}

	a.seen[id] = struct{}{}
	a.seenOrder = append(a.seenOrder, id)
	if len(a.seenOrder) > a.seenLimit {
		delete(a.seen, a.seenOrder[0])
		a.seenOrder = a.seenOrder[1:]
	}

	return false
}

// eventID is the event identity used for re-delivery detection. One event
// is built per terminal transition, so the pair is unique.
func eventID(event *bankstream.TransactionEvent) string {
	return event.TransactionID + "/" + string(event.EventType)
}
