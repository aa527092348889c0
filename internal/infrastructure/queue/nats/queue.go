package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/claims-triage/internal/infrastructure/resilience"
)

const (
	DefaultSubject    = "claims.submissions"
	DefaultQueueGroup = "triage-workers"
)

// Queue carries submission ids between the API and the workers. Delivery is
// at-most-once; a submission that never gets picked up stays "uploaded".
type Queue struct {
	conn           *nats.Conn
	subject        string
	queueGroup     string
	handlerTimeout time.Duration
	executor       *resilience.Executor
	logger         *slog.Logger
}

type Options struct {
	QueueGroup           string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	// HandlerTimeout bounds one submission run inside the worker.
	HandlerTimeout       time.Duration
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subject string) (*Queue, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*Queue, error) {
	if subject == "" {
		subject = DefaultSubject
	}
	queueGroup := options.QueueGroup
	if queueGroup == "" {
		queueGroup = DefaultQueueGroup
	}
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	handlerTimeout := options.HandlerTimeout
	if handlerTimeout <= 0 {
		handlerTimeout = 5 * time.Minute
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name("claims-triage"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:           conn,
		subject:        subject,
		queueGroup:     queueGroup,
		handlerTimeout: handlerTimeout,
		executor:       options.ResilienceExecutor,
		logger:         logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// Healthy reports whether the connection is usable right now.
func (q *Queue) Healthy() bool {
	return q.conn != nil && q.conn.IsConnected()
}

func (q *Queue) PublishSubmission(ctx context.Context, submissionID string) error {
	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, []byte(submissionID)); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	var err error
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return wrapTemporaryIfNeeded(err)
	}
	return nil
}

// SubscribeSubmissions blocks until ctx is done, then drains the subscription
// so in-flight submissions finish.
func (q *Queue) SubscribeSubmissions(ctx context.Context, handler func(context.Context, string) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, q.queueGroup, func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		submissionID := string(msg.Data)
		handlerCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.handlerTimeout)
		defer cancel()
		if err := handler(handlerCtx, submissionID); err != nil {
			q.logger.Error("submission_handler_failed", "submission_id", submissionID, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	q.logger.Info("nats_subscribed", "subject", q.subject, "queue_group", q.queueGroup)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}
