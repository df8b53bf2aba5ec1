package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nexconsult/cnpj-enricher/internal/models"
	"github.com/nexconsult/cnpj-enricher/internal/utils"
	"github.com/sirupsen/logrus"
)

// State is the pipeline lifecycle state
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCancelled
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCancelled:
		return "cancelled"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// CancelFlag is the cooperative cancellation signal of one run. The host sets
// it from any goroutine; the pipeline polls it between rows.
type CancelFlag struct {
	flag atomic.Bool
}

// Cancel requests cancellation
func (c *CancelFlag) Cancel() { c.flag.Store(true) }

// Cancelled reports whether cancellation was requested
func (c *CancelFlag) Cancelled() bool { return c != nil && c.flag.Load() }

// Pipeline validates and enriches the rows of an input table one at a time
type Pipeline struct {
	lookup LookupClient
	pacing time.Duration
	logger *logrus.Logger
	state  atomic.Int32
	now    func() time.Time
}

// NewPipeline creates a pipeline that waits pacing after every row
func NewPipeline(lookup LookupClient, pacing time.Duration, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		lookup: lookup,
		pacing: pacing,
		logger: logger,
		now:    time.Now,
	}
}

// State returns the current lifecycle state
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Run processes table in order until it is exhausted, cancel is set, or ctx
// ends. Partial results are kept on cancellation and handed to persister (if
// any) before the pipeline returns to idle. A nil table is an InputError and a
// concurrent call gets ErrPipelineBusy; neither changes the state.
func (p *Pipeline) Run(ctx context.Context, table *models.InputTable, cancel *CancelFlag, reporter Reporter, persister Persister) (*models.RunResult, error) {
	if table == nil {
		return nil, &InputError{Err: fmt.Errorf("nenhum arquivo de entrada carregado")}
	}
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, ErrPipelineBusy
	}
	defer p.state.Store(int32(StateIdle))

	if reporter == nil {
		reporter = nopReporter{}
	}

	total := table.Len()
	result := &models.RunResult{
		Successes: []models.CompanyRecord{},
		Failures:  []models.Failure{},
		Total:     total,
		StartedAt: p.now(),
	}

	log := p.logger.WithFields(logrus.Fields{
		"source": table.Source,
		"total":  total,
	})
	log.Info("Enrichment run started")

	reporter.Progress(0, total)
	reporter.Log(fmt.Sprintf("--- Início: %s ---", result.StartedAt.Format("15:04:05")), LogStyleInfo)

	final := StateCompleted
	for i, raw := range table.Identifiers {
		if cancel.Cancelled() || ctx.Err() != nil {
			final = StateCancelled
			break
		}

		p.processRow(ctx, raw, result, reporter)
		result.Processed = i + 1
		reporter.Progress(i+1, total)

		// an interrupted pause is picked up by the ctx check at the next row
		_ = sleepContext(ctx, p.pacing)
	}

	if final == StateCompleted && cancel.Cancelled() {
		final = StateCancelled
	}

	p.state.Store(int32(final))
	result.Cancelled = final == StateCancelled
	result.FinishedAt = p.now()

	if result.Cancelled {
		reporter.Log("Processamento cancelado pelo usuário", LogStyleError)
	}
	reporter.Log("--- Concluído! ---", LogStyleInfo)

	log.WithFields(logrus.Fields{
		"state":     final.String(),
		"processed": result.Processed,
		"successes": len(result.Successes),
		"failures":  len(result.Failures),
		"duration":  result.FinishedAt.Sub(result.StartedAt),
	}).Info("Enrichment run finished")

	if persister != nil {
		if err := persister.Persist(context.WithoutCancel(ctx), result); err != nil {
			log.WithError(err).Error("Failed to persist run results")
			return result, fmt.Errorf("persist results: %w", err)
		}
	}

	return result, nil
}

// processRow runs normalize, validate, lookup and map for one identifier
func (p *Pipeline) processRow(ctx context.Context, raw string, result *models.RunResult, reporter Reporter) {
	cnpj := utils.NormalizeCNPJ(raw)

	validation := utils.ValidateCNPJ(cnpj)
	if !validation.Valid {
		result.Failures = append(result.Failures, models.Failure{CNPJ: raw, Erro: validation.Reason})
		reporter.Log(fmt.Sprintf("%s inválido: %s", cnpj, validation.Reason), LogStyleError)
		p.logger.WithFields(logrus.Fields{
			"cnpj":   cnpj,
			"reason": validation.Reason,
		}).Debug("CNPJ rejected by validation")
		return
	}

	outcome := p.lookup.Lookup(ctx, cnpj)
	record, err := MapRecord(cnpj, outcome)
	if err != nil {
		if IsLookupKind(err, LookupRateLimited) {
			p.logger.WithField("cnpj", cnpj).Warn("BrasilAPI rate limit persisted through all retries")
		}
		result.Failures = append(result.Failures, models.Failure{CNPJ: cnpj, Erro: err.Error()})
		reporter.Log(fmt.Sprintf("Erro: %s", err.Error()), LogStyleError)
		return
	}

	result.Successes = append(result.Successes, *record)
	reporter.Log(fmt.Sprintf("%s OK", cnpj), LogStyleInfo)
}

type nopReporter struct{}

func (nopReporter) Progress(int, int) {}

func (nopReporter) Log(string, LogStyle) {}
