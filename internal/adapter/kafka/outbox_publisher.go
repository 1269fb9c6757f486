package kafka

import (
	"context"
	"database/sql"
	"time"

	"github.com/IBM/sarama"
	"github.com/artbay/artbay-api/internal/adapter/repo"
	"github.com/artbay/artbay-api/internal/logging"
)

// OutboxPublisher drains the transactional outbox into Kafka. Fetch, publish
// and mark-sent happen inside one database transaction per batch; a crash
// between publish and commit means redelivery, so consumers must tolerate
// at-least-once.
type OutboxPublisher struct {
	db       *sql.DB
	producer sarama.SyncProducer
	topic    string
	interval time.Duration
	batch    int
}

func NewOutboxPublisher(db *sql.DB, producer sarama.SyncProducer, topic string, interval time.Duration, batch int) *OutboxPublisher {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 50
	}
	return &OutboxPublisher{db: db, producer: producer, topic: topic, interval: interval, batch: batch}
}

func (p *OutboxPublisher) Run(ctx context.Context) error {
	log := logging.New("outbox-publisher")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.drainOnce(ctx); err != nil {
				log.Error("outbox drain failed", "error", err)
			}
		}
	}
}

func (p *OutboxPublisher) drainOnce(ctx context.Context) (err error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	outbox := repo.NewMySQLOutboxRepo(tx)
	rows, err := outbox.FetchPending(ctx, p.batch)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return tx.Commit()
	}

	for _, row := range rows {
		msg := &sarama.ProducerMessage{
			Topic: p.topic,
			Key:   sarama.StringEncoder(row.EventType),
			Value: sarama.ByteEncoder(row.Payload),
		}
		if _, _, err = p.producer.SendMessage(msg); err != nil {
			return err
		}
		if err = outbox.MarkSent(ctx, row.ID); err != nil {
			return err
		}
	}

	return tx.Commit()
}
