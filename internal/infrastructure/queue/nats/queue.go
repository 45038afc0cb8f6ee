// Package nats implements the durable ingestion task queue on NATS
// JetStream: at-least-once delivery, explicit acks, redelivery after a
// configurable retry delay.
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/paperbox-app/paperbox/internal/core/domain"
	"github.com/paperbox-app/paperbox/internal/core/ports"
	"github.com/paperbox-app/paperbox/internal/infrastructure/resilience"
)

type Options struct {
	Stream  string
	Subject string
	Durable string

	// TaskTimeout bounds one execution attempt; an unacknowledged task is
	// presumed dead once it elapses.
	TaskTimeout time.Duration
	// RetryDelay is how long a failed or timed-out task waits before
	// redelivery.
	RetryDelay time.Duration
	// CatchUp controls whether deliveries missed while no consumer was
	// running are replayed on restart or dropped.
	CatchUp bool

	ConnectTimeout     time.Duration
	ReconnectWait      time.Duration
	MaxReconnects      int
	ResilienceExecutor *resilience.Executor
}

func (o Options) withDefaults() Options {
	if o.Stream == "" {
		o.Stream = "PAPERBOX_INGEST"
	}
	if o.Subject == "" {
		o.Subject = "documents.ingest"
	}
	if o.Durable == "" {
		o.Durable = "ingest-workers"
	}
	if o.TaskTimeout <= 0 {
		o.TaskTimeout = 300 * time.Second
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 900 * time.Second
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 2 * time.Second
	}
	if o.ReconnectWait <= 0 {
		o.ReconnectWait = 2 * time.Second
	}
	if o.MaxReconnects <= 0 {
		o.MaxReconnects = 60
	}
	return o
}

type Queue struct {
	conn     *nats.Conn
	js       nats.JetStreamContext
	opts     Options
	executor *resilience.Executor
}

func New(url string, opts Options) (*Queue, error) {
	opts = opts.withDefaults()

	conn, err := nats.Connect(
		url,
		nats.Name("paperbox"),
		nats.Timeout(opts.ConnectTimeout),
		nats.ReconnectWait(opts.ReconnectWait),
		nats.MaxReconnects(opts.MaxReconnects),
		nats.RetryOnFailedConnect(true),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	q := &Queue{
		conn:     conn,
		js:       js,
		opts:     opts,
		executor: opts.ResilienceExecutor,
	}
	if err := q.ensureStream(); err != nil {
		conn.Close()
		return nil, err
	}
	return q, nil
}

func (q *Queue) ensureStream() error {
	_, err := q.js.StreamInfo(q.opts.Stream)
	if err == nil {
		return nil
	}
	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info: %w", err)
	}

	_, err = q.js.AddStream(&nats.StreamConfig{
		Name:      q.opts.Stream,
		Subjects:  []string{q.opts.Subject},
		Retention: nats.WorkQueuePolicy,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", q.opts.Stream, err)
	}
	return nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishIngestTask(ctx context.Context, task domain.IngestTask) error {
	data, err := encodeTask(task)
	if err != nil {
		return fmt.Errorf("encode ingest task: %w", err)
	}

	call := func(_ context.Context) error {
		if _, err := q.js.Publish(q.opts.Subject, data, nats.Context(ctx)); err != nil {
			return fmt.Errorf("jetstream publish: %w", err)
		}
		return nil
	}

	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(err)
}

// ConsumeIngestTasks runs a fixed-size pool of workers over a durable pull
// consumer. Each delivered task gets one handler invocation bounded by the
// task timeout; a handler error naks the message so the queue redelivers it
// after the retry delay.
func (q *Queue) ConsumeIngestTasks(ctx context.Context, workers int, handler ports.IngestHandler) error {
	if workers <= 0 {
		workers = 1
	}

	deliverPolicy := nats.DeliverNew()
	if q.opts.CatchUp {
		deliverPolicy = nats.DeliverAll()
	}

	sub, err := q.js.PullSubscribe(
		q.opts.Subject,
		q.opts.Durable,
		nats.AckExplicit(),
		nats.AckWait(q.opts.TaskTimeout),
		deliverPolicy,
	)
	if err != nil {
		return fmt.Errorf("jetstream pull subscribe: %w", err)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		group.Go(func() error {
			q.workerLoop(groupCtx, sub, handler)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	if err := sub.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		return fmt.Errorf("drain subscription: %w", err)
	}
	return nil
}

func (q *Queue) workerLoop(ctx context.Context, sub *nats.Subscription, handler ports.IngestHandler) {
	for {
		if ctx.Err() != nil {
			return
		}

		msgs, err := sub.Fetch(1, nats.MaxWait(5*time.Second))
		if err != nil {
			if errors.Is(err, nats.ErrTimeout) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			slog.Error("fetch ingest task", "error", err)
			continue
		}

		for _, msg := range msgs {
			q.handleMessage(ctx, msg, handler)
		}
	}
}

func (q *Queue) handleMessage(ctx context.Context, msg *nats.Msg, handler ports.IngestHandler) {
	task, err := decodeTask(msg.Data)
	if err != nil {
		// A malformed payload can never succeed; retrying it would loop
		// forever.
		slog.Error("drop malformed ingest task", "error", err)
		_ = msg.Term()
		return
	}
	if meta, err := msg.Metadata(); err == nil {
		task.Attempt = int(meta.NumDelivered)
	}

	handlerCtx, cancel := context.WithTimeout(ctx, q.opts.TaskTimeout)
	defer cancel()

	if err := handler(handlerCtx, task); err != nil {
		slog.Error("ingest task failed, scheduling redelivery",
			"document_id", task.DocumentID, "attempt", task.Attempt, "error", err)
		if nakErr := msg.NakWithDelay(q.opts.RetryDelay); nakErr != nil {
			slog.Error("nak ingest task", "document_id", task.DocumentID, "error", nakErr)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		slog.Error("ack ingest task", "document_id", task.DocumentID, "error", err)
	}
}

func encodeTask(task domain.IngestTask) ([]byte, error) {
	return json.Marshal(task)
}

func decodeTask(data []byte) (domain.IngestTask, error) {
	var task domain.IngestTask
	if err := json.Unmarshal(data, &task); err != nil {
		return domain.IngestTask{}, err
	}
	if task.DocumentID == "" {
		return domain.IngestTask{}, fmt.Errorf("task missing document_id")
	}
	return task, nil
}
