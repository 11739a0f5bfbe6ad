package usecase

import (
	"context"

	"StockGate/internal/domain/models"
	drepo "StockGate/internal/domain/repository"
	"StockGate/pkg/logger"
	"StockGate/pkg/queue"
)

// StoreSink writes audit records straight to the store.
type StoreSink struct {
	store drepo.AuditStore
}

func NewStoreSink(store drepo.AuditStore) *StoreSink {
	return &StoreSink{store: store}
}

func (s *StoreSink) Append(ctx context.Context, rec *models.AuditRecord) error {
	return s.store.Append(ctx, rec)
}

// PublisherSink ships audit records to a broker; a separate consumer
// ingests them into the store.
type PublisherSink struct {
	pub drepo.AuditPublisher
}

func NewPublisherSink(pub drepo.AuditPublisher) *PublisherSink {
	return &PublisherSink{pub: pub}
}

func (s *PublisherSink) Append(ctx context.Context, rec *models.AuditRecord) error {
	return s.pub.Publish(ctx, rec)
}

const auditMsgType = "audit.append"

// QueuedSink defers audit writes to a redis-backed worker queue so slow
// storage never sits on the request path.
type QueuedSink struct {
	q *queue.RedisQueue
}

func NewQueuedSink(q *queue.RedisQueue) *QueuedSink {
	return &QueuedSink{q: q}
}

func (s *QueuedSink) Append(ctx context.Context, rec *models.AuditRecord) error {
	return s.q.Enqueue(ctx, auditMsgType, rec)
}

// AuditWriteJob drains queued audit records into the store.
type AuditWriteJob struct {
	store drepo.AuditStore
	log   *logger.Logger
}

func NewAuditWriteJob(store drepo.AuditStore, log *logger.Logger) *AuditWriteJob {
	return &AuditWriteJob{store: store, log: log}
}

func (j *AuditWriteJob) Name() string { return "audit-write" }

func (j *AuditWriteJob) Type() string { return auditMsgType }

func (j *AuditWriteJob) Handle(ctx context.Context, payload interface{}) error {
	rec, err := queue.ParsePayload[models.AuditRecord](payload)
	if err != nil {
		j.log.Error("bad audit payload", logger.Error(err))
		return err
	}
	return j.store.Append(ctx, rec)
}
