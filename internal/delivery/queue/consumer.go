package queue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"nextgen-hr-worker/internal/domain"
	"nextgen-hr-worker/pkg/apperror"
	"nextgen-hr-worker/pkg/logger"

	"github.com/go-playground/validator/v10"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

const (
	attemptsHeader  = "x-attempts"
	lastErrorHeader = "x-last-error"
	errorKindHeader = "x-error-kind"
	dedupeKeyPrefix = "nextgen-hr:processed:"
	dedupeKeyTTL    = 24 * time.Hour
)

// Config controls broker connectivity and redelivery behavior.
type Config struct {
	URL               string
	MaxAttempts       int
	RetryDelay        time.Duration
	ReconnectMinDelay time.Duration
	ReconnectMaxDelay time.Duration
}

// publisher is the slice of the AMQP channel the message handlers need.
// *amqp.Channel satisfies it.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Consumer subscribes to the application and interview queues and dispatches
// each delivery to the matching processor. Failed deliveries are requeued a
// bounded number of times and then parked on a dead-letter queue.
type Consumer struct {
	cfg        Config
	intake     domain.IntakeProcessor
	evaluation domain.EvaluationProcessor
	validate   *validator.Validate
	dedupe     *redis.Client

	locksMu sync.Mutex
	locks   map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewConsumer creates a queue consumer. dedupe may be nil, in which case
// duplicate deliveries are not filtered.
func NewConsumer(cfg Config, intake domain.IntakeProcessor, evaluation domain.EvaluationProcessor, dedupe *redis.Client) *Consumer {
	return &Consumer{
		cfg:        cfg,
		intake:     intake,
		evaluation: evaluation,
		validate:   validator.New(),
		dedupe:     dedupe,
		locks:      make(map[string]*lockEntry),
	}
}

// Run connects to the broker and consumes until ctx is cancelled. Lost
// connections are re-established with exponential backoff; the backoff resets
// after every successful session.
func (c *Consumer) Run(ctx context.Context) error {
	delay := c.cfg.ReconnectMinDelay
	for {
		err := c.runSession(ctx)
		if ctx.Err() != nil {
			return nil
		}
		logger.Log.Error("broker session ended, reconnecting", "error", err, "delay", delay.String())

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(delay):
		}
		delay = nextDelay(delay, c.cfg.ReconnectMaxDelay)
	}
}

func (c *Consumer) runSession(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return apperror.Transport("dial broker", err)
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return apperror.Transport("open channel", err)
	}
	defer ch.Close()

	// Match the producer's declaration exactly; a durability mismatch on an
	// existing queue fails the declare.
	for _, name := range []string{domain.QueueApplicationSubmitted, domain.QueueInterviewCompleted} {
		if _, err := ch.QueueDeclare(name, false, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", name, err)
		}
		if _, err := ch.QueueDeclare(name+".dead", true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s.dead: %w", name, err)
		}
	}

	applications, err := ch.Consume(domain.QueueApplicationSubmitted, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", domain.QueueApplicationSubmitted, err)
	}
	interviews, err := ch.Consume(domain.QueueInterviewCompleted, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", domain.QueueInterviewCompleted, err)
	}

	logger.Log.Info("consuming",
		"queues", []string{domain.QueueApplicationSubmitted, domain.QueueInterviewCompleted})

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for d := range applications {
			c.handleApplication(ctx, ch, d)
		}
	}()
	go func() {
		defer wg.Done()
		for d := range interviews {
			c.handleInterview(ctx, ch, d)
		}
	}()

	var sessionErr error
	select {
	case <-ctx.Done():
	case amqpErr := <-closed:
		if amqpErr != nil {
			sessionErr = amqpErr
		}
	}
	ch.Close()
	conn.Close()
	wg.Wait()
	return sessionErr
}

func (c *Consumer) handleApplication(ctx context.Context, pub publisher, d amqp.Delivery) {
	var event domain.ApplicationSubmittedEvent
	if err := json.Unmarshal(d.Body, &event); err != nil {
		logger.Log.Error("discarding application message",
			"error", apperror.BadMessage("not a JSON application event"), "cause", err)
		d.Ack(false)
		return
	}
	if err := c.validate.Struct(&event); err != nil {
		logger.Log.Error("discarding application message",
			"error", apperror.BadMessage("missing applicationId"), "cause", err)
		d.Ack(false)
		return
	}

	if c.alreadyProcessed(ctx, d.Body) {
		logger.Log.Info("skipping duplicate application message", "application_id", event.ApplicationID)
		d.Ack(false)
		return
	}

	c.withLock(event.ApplicationID, func() {
		err := c.intake.ProcessApplication(ctx, event.ApplicationID)
		if err != nil {
			logger.Log.Error("application processing failed",
				"application_id", event.ApplicationID, "error", err)
			c.retryOrDeadLetter(ctx, pub, domain.QueueApplicationSubmitted, d, err)
			return
		}
		c.markProcessed(ctx, d.Body)
		d.Ack(false)
		logger.Log.Info("application processed", "application_id", event.ApplicationID)
	})
}

func (c *Consumer) handleInterview(ctx context.Context, pub publisher, d amqp.Delivery) {
	interviewID := normalizeID(d.Body)
	if interviewID == "" {
		logger.Log.Error("discarding interview message",
			"error", apperror.BadMessage("empty interview id"))
		d.Ack(false)
		return
	}

	if c.alreadyProcessed(ctx, d.Body) {
		logger.Log.Info("skipping duplicate interview message", "interview_id", interviewID)
		d.Ack(false)
		return
	}

	c.withLock(interviewID, func() {
		err := c.evaluation.ProcessInterview(ctx, interviewID)
		if err != nil {
			logger.Log.Error("interview evaluation failed",
				"interview_id", interviewID, "error", err)
			c.retryOrDeadLetter(ctx, pub, domain.QueueInterviewCompleted, d, err)
			return
		}
		c.markProcessed(ctx, d.Body)
		d.Ack(false)
		logger.Log.Info("interview evaluated", "interview_id", interviewID)
	})
}

// retryOrDeadLetter republishes the delivery with an incremented attempt
// counter, or parks it on the queue's dead-letter sibling once the attempt
// budget is spent. The delivery is acked once the republish lands; when the
// republish cannot happen (shutdown mid-delay, publish failure) it is nacked
// back to the broker instead so the message is never silently dropped.
func (c *Consumer) retryOrDeadLetter(ctx context.Context, pub publisher, queueName string, d amqp.Delivery, cause error) {
	attempts := deliveryAttempts(d.Headers)
	if attempts+1 < c.cfg.MaxAttempts {
		// The delay runs on the queue's consumer goroutine, so a failing
		// message also delays its successors on the same queue. Acceptable
		// at this worker's throughput; the delay stays small.
		select {
		case <-ctx.Done():
			d.Nack(false, true)
			return
		case <-time.After(c.cfg.RetryDelay):
		}
		err := pub.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
			ContentType: d.ContentType,
			Body:        d.Body,
			Headers:     amqp.Table{attemptsHeader: int32(attempts + 1)},
		})
		if err != nil {
			logger.Log.Error("requeue failed, returning delivery to the broker", "queue", queueName, "error", err)
			d.Nack(false, true)
			return
		}
		d.Ack(false)
		return
	}

	err := pub.PublishWithContext(ctx, "", queueName+".dead", false, false, amqp.Publishing{
		ContentType: d.ContentType,
		Body:        d.Body,
		Headers: amqp.Table{
			attemptsHeader:  int32(attempts + 1),
			lastErrorHeader: cause.Error(),
			errorKindHeader: string(apperror.KindOf(cause)),
		},
	})
	if err != nil {
		logger.Log.Error("dead-letter publish failed, returning delivery to the broker", "queue", queueName, "error", err)
		d.Nack(false, true)
		return
	}
	logger.Log.Warn("message dead-lettered", "queue", queueName, "attempts", attempts+1)
	d.Ack(false)
}

// withLock serializes processing per identity while leaving different
// identities free to run in parallel. Entries are refcounted and removed
// once the last holder leaves, so the map stays bounded by in-flight work.
func (c *Consumer) withLock(id string, fn func()) {
	c.locksMu.Lock()
	entry, ok := c.locks[id]
	if !ok {
		entry = &lockEntry{}
		c.locks[id] = entry
	}
	entry.refs++
	c.locksMu.Unlock()

	entry.mu.Lock()
	fn()
	entry.mu.Unlock()

	c.locksMu.Lock()
	entry.refs--
	if entry.refs == 0 {
		delete(c.locks, id)
	}
	c.locksMu.Unlock()
}

func (c *Consumer) alreadyProcessed(ctx context.Context, body []byte) bool {
	if c.dedupe == nil {
		return false
	}
	n, err := c.dedupe.Exists(ctx, dedupeKey(body)).Result()
	if err != nil {
		logger.Log.Warn("dedupe lookup failed, processing anyway", "error", err)
		return false
	}
	return n > 0
}

// markProcessed records a successful delivery. It runs only after processing
// succeeds so a requeued retry of a failed message is never filtered out.
func (c *Consumer) markProcessed(ctx context.Context, body []byte) {
	if c.dedupe == nil {
		return
	}
	if err := c.dedupe.Set(ctx, dedupeKey(body), 1, dedupeKeyTTL).Err(); err != nil {
		logger.Log.Warn("dedupe mark failed", "error", err)
	}
}

func dedupeKey(body []byte) string {
	sum := sha256.Sum256(body)
	return dedupeKeyPrefix + hex.EncodeToString(sum[:])
}

// deliveryAttempts reads the redelivery counter, tolerating the integer
// widths different AMQP clients use for header values.
func deliveryAttempts(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers[attemptsHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// normalizeID extracts an identifier from a bare-string message body,
// tolerating a JSON-quoted string.
func normalizeID(body []byte) string {
	return strings.Trim(strings.TrimSpace(string(body)), `"`)
}

func nextDelay(current, max time.Duration) time.Duration {
	next := current * 2
	if next > max {
		return max
	}
	return next
}
