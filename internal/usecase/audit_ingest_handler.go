package usecase

import (
	"context"
	"encoding/json"
	"time"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
)

// AuditIngestHandler consumes audit records from Kafka and writes them
// to storage. Runs in the same process or a dedicated ingest worker.
type AuditIngestHandler struct {
	topic   string
	store   drepo.AuditStore
	metrics drepo.Metrics
}

func NewAuditIngestHandler(topic string, store drepo.AuditStore, metrics drepo.Metrics) *AuditIngestHandler {
	return &AuditIngestHandler{topic: topic, store: store, metrics: metrics}
}

func (h *AuditIngestHandler) Topic() string { return h.topic }

func (h *AuditIngestHandler) Handle(ctx context.Context, b []byte) error {
	var rec models.AuditRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		h.metrics.RecordError("audit_unmarshal")
		return err
	}
	start := time.Now()
	if err := h.store.Append(ctx, &rec); err != nil {
		h.metrics.RecordError("audit_store")
		return err
	}
	h.metrics.RecordStageLatency("audit_ingest", time.Since(start).Seconds())
	return nil
}
