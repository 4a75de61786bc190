package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kong-F/backtest/internal/core"
	"github.com/Kong-F/backtest/internal/storage/archive"
	"github.com/Kong-F/backtest/internal/sweep"
)

// Document is the persisted record of one backtest invocation, single
// period or sweep.
type Document struct {
	ID             string            `json:"id"`
	GeneratedAt    time.Time         `json:"generated_at"`
	Symbol         string            `json:"symbol"`
	Interval       string            `json:"interval"`
	InitialCapital float64           `json:"initial_capital"`
	CommissionRate float64           `json:"commission_rate"`
	Runs           []sweep.RunResult `json:"runs"`
	BestPeriod     int               `json:"best_period,omitempty"`
}

// New assembles a report document from finished runs. The best period
// is chosen by total return.
func New(symbol, interval string, initialCapital, commissionRate float64, runs []sweep.RunResult) *Document {
	doc := &Document{
		ID:             uuid.New().String(),
		GeneratedAt:    time.Now().UTC(),
		Symbol:         symbol,
		Interval:       interval,
		InitialCapital: initialCapital,
		CommissionRate: commissionRate,
		Runs:           runs,
	}
	if best, ok := sweep.Best(runs); ok {
		doc.BestPeriod = best.Period
	}
	return doc
}

// Path returns the archive key for the document, partitioned by
// generation month.
func (d *Document) Path() string {
	return fmt.Sprintf("reports/%s/%s_%s.json",
		d.GeneratedAt.Format("2006/01"), d.Symbol, d.ID)
}

// Writer persists report documents to an archive backend.
type Writer struct {
	store archive.Storage
	log   *zap.Logger
}

func NewWriter(store archive.Storage, log *zap.Logger) *Writer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Writer{store: store, log: log}
}

// Save marshals and stores the document, returning its archive path.
func (w *Writer) Save(ctx context.Context, doc *Document) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", core.WrapError(core.ErrStorageFailed,
			fmt.Errorf("marshaling report: %w", err))
	}

	path := doc.Path()
	if err := w.store.Write(ctx, path, data); err != nil {
		return "", err
	}

	w.log.Info("report saved",
		zap.String("report_id", doc.ID),
		zap.String("path", path),
		zap.Int("runs", len(doc.Runs)))
	return path, nil
}

// Load reads a previously saved document back from the archive.
func Load(ctx context.Context, store archive.Storage, path string) (*Document, error) {
	data, err := store.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, core.WrapError(core.ErrStorageFailed,
			fmt.Errorf("unmarshaling report: %w", err))
	}
	return &doc, nil
}
