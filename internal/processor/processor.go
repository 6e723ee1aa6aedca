// Package processor runs the notification parser over every document a
// source provides.
//
// Documents are independent: each is fetched, parsed and, optionally,
// resolved into payment details on a bounded worker pool. A document that
// fails is recorded with its error and the batch moves on.
//
// Example usage:
//
//	proc, err := processor.New(parser, registry, processor.DefaultConfig())
//	batch, err := proc.Run(ctx, provider)
//	fmt.Printf("%d parsed, %d failed\n", batch.Summary.Parsed, batch.Summary.Failed)
package processor

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"bulbank-notification-parser/internal/details"
	"bulbank-notification-parser/internal/parsers"
	"bulbank-notification-parser/internal/source"
	"bulbank-notification-parser/pkg/errors"
	"bulbank-notification-parser/pkg/logger"
)

// Processor coordinates fetching, parsing and detail resolution
type Processor struct {
	parser   *parsers.NotificationParser
	registry *details.Registry
	config   *Config
	logger   logger.Logger
}

// New creates a processor. The registry may be nil when details are not
// resolved.
func New(parser *parsers.NotificationParser, registry *details.Registry, config *Config) (*Processor, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "processor", config.Concurrency, err)
	}
	if parser == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "parser", nil, nil)
	}
	if config.ResolveDetails && registry == nil {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "details_registry", nil, nil).
			WithSuggestion("provide a registry or disable detail resolution")
	}

	return &Processor{
		parser:   parser,
		registry: registry,
		config:   config,
		logger:   logger.GetGlobalLogger().WithComponent("processor"),
	}, nil
}

// Config returns the processor configuration
func (p *Processor) Config() *Config {
	return p.config
}

// Parser returns the notification parser in use
func (p *Processor) Parser() *parsers.NotificationParser {
	return p.parser
}

// Run processes every document listed by the provider. It fails only when
// the listing itself fails; per-document failures are part of the result.
func (p *Processor) Run(ctx context.Context, provider source.Provider) (*BatchResult, error) {
	batch := &BatchResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := p.logger.WithField("run_id", batch.RunID)

	ids, err := source.Collect(ctx, provider)
	if err != nil {
		log.WithError(err).Error("Failed to list source documents")
		return nil, err
	}

	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation:   "process_documents",
		Total:       int64(len(ids)),
		LogInterval: p.config.ProgressInterval,
		Logger:      log,
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collector := errors.NewCollector(p.config.MaxErrors)
	var aborted atomic.Bool

	workers := pool.NewWithResults[*DocumentResult]().WithMaxGoroutines(p.config.Concurrency)
	for _, id := range ids {
		workers.Go(func() *DocumentResult {
			if aborted.Load() {
				return &DocumentResult{DocumentID: id, Status: StatusSkipped}
			}

			result := p.fetchAndProcess(ctx, provider, id)
			if result.Error == nil {
				tracker.Succeeded()
				return result
			}

			tracker.Failed()
			if !collector.Add(result.Error) && !aborted.Swap(true) {
				log.WithField("max_errors", p.config.MaxErrors).Warn("Error limit reached, stopping batch")
				cancel()
			}
			return result
		})
	}
	batch.Results = workers.Wait()

	sort.Slice(batch.Results, func(i, j int) bool {
		return batch.Results[i].DocumentID < batch.Results[j].DocumentID
	})
	batch.FinishedAt = time.Now()
	batch.Aborted = aborted.Load()
	batch.Summary = summarize(batch.Results)
	if collector.HasErrors() {
		batch.Errors = collector.GetSummary()
	}
	tracker.Complete()

	log.WithFields(logger.Fields{
		"documents": batch.Summary.Total,
		"parsed":    batch.Summary.Parsed,
		"partial":   batch.Summary.Partial,
		"failed":    batch.Summary.Failed,
		"skipped":   batch.Summary.Skipped,
		"duration":  batch.Duration(),
	}).Info("Batch completed")

	return batch, nil
}

func (p *Processor) fetchAndProcess(ctx context.Context, provider source.Provider, id string) *DocumentResult {
	start := time.Now()

	raw, err := provider.Document(ctx, id)
	if err != nil {
		return &DocumentResult{
			DocumentID: id,
			Status:     StatusFailed,
			Error:      errors.ForDocument(id, err),
			Duration:   time.Since(start),
		}
	}

	result := p.ProcessDocument(id, raw)
	result.Duration = time.Since(start)
	return result
}

// ProcessDocument parses one raw document already in memory
func (p *Processor) ProcessDocument(id string, raw []byte) *DocumentResult {
	start := time.Now()
	result := &DocumentResult{DocumentID: id}
	log := p.logger.WithField("document_id", id)

	record, err := p.parser.ParseBytes(raw)
	if err != nil {
		log.WithError(err).Warn("Document skipped")
		result.Status = StatusFailed
		result.Error = errors.ForDocument(id, err)
		result.Duration = time.Since(start)
		return result
	}
	result.Record = record
	result.Status = StatusParsed

	if p.config.ResolveDetails {
		d, err := p.registry.ResolveRecord(record)
		if err != nil {
			log.WithError(err).WithField("transaction_type", record.TransactionType).Warn("Payment details not resolved")
			result.Status = StatusPartial
			result.DetailsError = errors.ForDocument(id, err)
		} else {
			result.Details = d
		}
	}

	result.Duration = time.Since(start)
	return result
}
