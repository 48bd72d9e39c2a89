package export

import (
	"bytes"
	"context"
	"time"

	"annies-bakery/internal/repository"

	"github.com/rs/zerolog"
)

// Exporter snapshots both order collections as CSV.
type Exporter struct {
	orders repository.OrderRepository
	custom repository.CustomOrderRepository
	sink   Sink
	now    func() time.Time
	logger zerolog.Logger
}

// NewExporter creates an exporter. sink may be nil when only Render is used.
func NewExporter(orders repository.OrderRepository, custom repository.CustomOrderRepository, sink Sink, logger zerolog.Logger) *Exporter {
	return &Exporter{
		orders: orders,
		custom: custom,
		sink:   sink,
		now:    time.Now,
		logger: logger.With().Str("component", "exporter").Logger(),
	}
}

// Render reads both collections and returns the CSV document.
func (e *Exporter) Render(ctx context.Context) ([]byte, error) {
	orders, err := e.orders.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	custom, err := e.custom.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, orders, custom); err != nil {
		return nil, err
	}

	e.logger.Debug().Int("orders", len(orders)).Int("custom_orders", len(custom)).Msg("export rendered")
	return buf.Bytes(), nil
}

// Export renders the CSV and hands it to the sink, returning its location.
func (e *Exporter) Export(ctx context.Context) (string, error) {
	data, err := e.Render(ctx)
	if err != nil {
		return "", err
	}
	return e.sink.Store(ctx, FileName(e.now()), data)
}
