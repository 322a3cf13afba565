package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"nextgen-hr-worker/internal/domain"
	"nextgen-hr-worker/pkg/logger"
)

func init() {
	logger.Init(false)
}

// Mock processors and broker pieces

type MockIntake struct {
	mock.Mock
}

func (m *MockIntake) ProcessApplication(ctx context.Context, applicationID string) error {
	return m.Called(ctx, applicationID).Error(0)
}

type MockEvaluation struct {
	mock.Mock
}

func (m *MockEvaluation) ProcessInterview(ctx context.Context, interviewID string) error {
	return m.Called(ctx, interviewID).Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

// fakeAcknowledger records ack/nack outcomes for a delivery.
type fakeAcknowledger struct {
	acks     int
	nacks    int
	requeued bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acks++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks++
	f.requeued = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	return nil
}

func newTestConsumer(intake domain.IntakeProcessor, evaluation domain.EvaluationProcessor) *Consumer {
	return NewConsumer(Config{
		MaxAttempts: 3,
		RetryDelay:  time.Millisecond,
	}, intake, evaluation, nil)
}

func delivery(body string, headers amqp.Table) (amqp.Delivery, *fakeAcknowledger) {
	ack := &fakeAcknowledger{}
	return amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte(body),
		Headers:      headers,
		ContentType:  "application/json",
	}, ack
}

func TestHandleApplication(t *testing.T) {
	ctx := context.Background()

	t.Run("Should ack and skip malformed JSON without processing", func(t *testing.T) {
		intake := new(MockIntake)
		pub := new(MockPublisher)
		c := newTestConsumer(intake, new(MockEvaluation))

		d, ack := delivery(`{not json`, nil)
		c.handleApplication(ctx, pub, d)

		assert.Equal(t, 1, ack.acks)
		intake.AssertNotCalled(t, "ProcessApplication", mock.Anything, mock.Anything)
		pub.AssertNotCalled(t, "PublishWithContext",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should ack and skip a message without applicationId", func(t *testing.T) {
		intake := new(MockIntake)
		pub := new(MockPublisher)
		c := newTestConsumer(intake, new(MockEvaluation))

		d, ack := delivery(`{"applicationId": ""}`, nil)
		c.handleApplication(ctx, pub, d)

		assert.Equal(t, 1, ack.acks)
		intake.AssertNotCalled(t, "ProcessApplication", mock.Anything, mock.Anything)
	})

	t.Run("Should ack after successful processing without republishing", func(t *testing.T) {
		intake := new(MockIntake)
		pub := new(MockPublisher)
		c := newTestConsumer(intake, new(MockEvaluation))

		intake.On("ProcessApplication", ctx, "A1").Return(nil)

		d, ack := delivery(`{"applicationId": "A1"}`, nil)
		c.handleApplication(ctx, pub, d)

		assert.Equal(t, 1, ack.acks)
		assert.Equal(t, 0, ack.nacks)
		intake.AssertExpectations(t)
		pub.AssertNotCalled(t, "PublishWithContext",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should republish a failed message with an incremented attempt counter", func(t *testing.T) {
		intake := new(MockIntake)
		pub := new(MockPublisher)
		c := newTestConsumer(intake, new(MockEvaluation))

		intake.On("ProcessApplication", ctx, "A1").Return(errors.New("OCR timeout"))
		pub.On("PublishWithContext", ctx, "", domain.QueueApplicationSubmitted, false, false,
			mock.MatchedBy(func(msg amqp.Publishing) bool {
				return deliveryAttempts(msg.Headers) == 1 && string(msg.Body) == `{"applicationId": "A1"}`
			})).Return(nil)

		d, ack := delivery(`{"applicationId": "A1"}`, nil)
		c.handleApplication(ctx, pub, d)

		assert.Equal(t, 1, ack.acks)
		pub.AssertExpectations(t)
	})
}

func TestHandleInterview(t *testing.T) {
	ctx := context.Background()

	t.Run("Should ack and skip a blank body", func(t *testing.T) {
		evaluation := new(MockEvaluation)
		c := newTestConsumer(new(MockIntake), evaluation)

		d, ack := delivery(`  ""  `, nil)
		c.handleInterview(ctx, new(MockPublisher), d)

		assert.Equal(t, 1, ack.acks)
		evaluation.AssertNotCalled(t, "ProcessInterview", mock.Anything, mock.Anything)
	})

	t.Run("Should strip JSON quoting from the id before processing", func(t *testing.T) {
		evaluation := new(MockEvaluation)
		c := newTestConsumer(new(MockIntake), evaluation)

		evaluation.On("ProcessInterview", ctx, "I1").Return(nil)

		d, ack := delivery(`"I1"`, nil)
		c.handleInterview(ctx, new(MockPublisher), d)

		assert.Equal(t, 1, ack.acks)
		evaluation.AssertExpectations(t)
	})

	t.Run("Should route an exhausted message to the dead-letter queue", func(t *testing.T) {
		evaluation := new(MockEvaluation)
		pub := new(MockPublisher)
		c := newTestConsumer(new(MockIntake), evaluation)

		evaluation.On("ProcessInterview", ctx, "I1").Return(errors.New("speech API error"))
		pub.On("PublishWithContext", ctx, "", domain.QueueInterviewCompleted+".dead", false, false,
			mock.MatchedBy(func(msg amqp.Publishing) bool {
				return deliveryAttempts(msg.Headers) == 3 &&
					msg.Headers[lastErrorHeader] == "speech API error"
			})).Return(nil)

		d, ack := delivery(`I1`, amqp.Table{attemptsHeader: int32(2)})
		c.handleInterview(ctx, pub, d)

		assert.Equal(t, 1, ack.acks)
		assert.Equal(t, 0, ack.nacks)
		pub.AssertExpectations(t)
	})
}

func TestRetryOrDeadLetter(t *testing.T) {
	cause := errors.New("stage failed")

	t.Run("Should republish below the attempt limit and ack the original", func(t *testing.T) {
		pub := new(MockPublisher)
		c := newTestConsumer(new(MockIntake), new(MockEvaluation))

		pub.On("PublishWithContext", mock.Anything, "", "q", false, false,
			mock.MatchedBy(func(msg amqp.Publishing) bool {
				return deliveryAttempts(msg.Headers) == 2
			})).Return(nil)

		d, ack := delivery(`body`, amqp.Table{attemptsHeader: int32(1)})
		c.retryOrDeadLetter(context.Background(), pub, "q", d, cause)

		assert.Equal(t, 1, ack.acks)
		pub.AssertExpectations(t)
	})

	t.Run("Should dead-letter at the attempt limit with the failure recorded", func(t *testing.T) {
		pub := new(MockPublisher)
		c := newTestConsumer(new(MockIntake), new(MockEvaluation))

		pub.On("PublishWithContext", mock.Anything, "", "q.dead", false, false,
			mock.MatchedBy(func(msg amqp.Publishing) bool {
				return deliveryAttempts(msg.Headers) == 3 &&
					msg.Headers[lastErrorHeader] == "stage failed" &&
					msg.Headers[errorKindHeader] == "internal"
			})).Return(nil)

		d, ack := delivery(`body`, amqp.Table{attemptsHeader: int32(2)})
		c.retryOrDeadLetter(context.Background(), pub, "q", d, cause)

		assert.Equal(t, 1, ack.acks)
		pub.AssertExpectations(t)
	})

	t.Run("Should nack back to the broker when shut down during the retry delay", func(t *testing.T) {
		pub := new(MockPublisher)
		c := newTestConsumer(new(MockIntake), new(MockEvaluation))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		d, ack := delivery(`body`, nil)
		c.retryOrDeadLetter(ctx, pub, "q", d, cause)

		assert.Equal(t, 0, ack.acks)
		assert.Equal(t, 1, ack.nacks)
		assert.True(t, ack.requeued)
		pub.AssertNotCalled(t, "PublishWithContext",
			mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should nack back to the broker when the republish fails", func(t *testing.T) {
		pub := new(MockPublisher)
		c := newTestConsumer(new(MockIntake), new(MockEvaluation))

		pub.On("PublishWithContext", mock.Anything, "", "q", false, false, mock.Anything).
			Return(errors.New("channel closed"))

		d, ack := delivery(`body`, nil)
		c.retryOrDeadLetter(context.Background(), pub, "q", d, cause)

		assert.Equal(t, 0, ack.acks)
		assert.Equal(t, 1, ack.nacks)
		assert.True(t, ack.requeued)
	})
}

func TestWithLock(t *testing.T) {
	t.Run("Should remove the identity entry once released", func(t *testing.T) {
		c := newTestConsumer(new(MockIntake), new(MockEvaluation))

		ran := false
		c.withLock("A1", func() { ran = true })

		assert.True(t, ran)
		c.locksMu.Lock()
		assert.Empty(t, c.locks)
		c.locksMu.Unlock()
	})

	t.Run("Should serialize work on the same identity", func(t *testing.T) {
		c := newTestConsumer(new(MockIntake), new(MockEvaluation))

		var order []string
		started := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.withLock("A1", func() {
				close(started)
				order = append(order, "first-enter")
				time.Sleep(20 * time.Millisecond)
				order = append(order, "first-leave")
			})
		}()
		go func() {
			defer wg.Done()
			<-started
			c.withLock("A1", func() {
				order = append(order, "second")
			})
		}()
		wg.Wait()

		assert.Equal(t, []string{"first-enter", "first-leave", "second"}, order)
		c.locksMu.Lock()
		assert.Empty(t, c.locks)
		c.locksMu.Unlock()
	})
}

func TestDeliveryAttempts(t *testing.T) {
	t.Run("Should default to zero without headers", func(t *testing.T) {
		assert.Equal(t, 0, deliveryAttempts(nil))
		assert.Equal(t, 0, deliveryAttempts(amqp.Table{}))
	})

	t.Run("Should read the counter across integer widths", func(t *testing.T) {
		assert.Equal(t, 2, deliveryAttempts(amqp.Table{attemptsHeader: int32(2)}))
		assert.Equal(t, 3, deliveryAttempts(amqp.Table{attemptsHeader: int64(3)}))
		assert.Equal(t, 4, deliveryAttempts(amqp.Table{attemptsHeader: int(4)}))
	})

	t.Run("Should ignore non-integer values", func(t *testing.T) {
		assert.Equal(t, 0, deliveryAttempts(amqp.Table{attemptsHeader: "2"}))
	})
}

func TestNormalizeID(t *testing.T) {
	t.Run("Should pass a bare id through", func(t *testing.T) {
		assert.Equal(t, "abc-123", normalizeID([]byte("abc-123")))
	})

	t.Run("Should strip JSON quoting and whitespace", func(t *testing.T) {
		assert.Equal(t, "abc-123", normalizeID([]byte(`"abc-123"`)))
		assert.Equal(t, "abc-123", normalizeID([]byte("  abc-123\n")))
		assert.Equal(t, "abc-123", normalizeID([]byte("\t\"abc-123\"\n")))
	})

	t.Run("Should normalize a blank body to empty", func(t *testing.T) {
		assert.Equal(t, "", normalizeID([]byte("   ")))
		assert.Equal(t, "", normalizeID([]byte(`""`)))
	})
}

func TestNextDelay(t *testing.T) {
	t.Run("Should double up to the cap", func(t *testing.T) {
		assert.Equal(t, 2*time.Second, nextDelay(time.Second, 30*time.Second))
		assert.Equal(t, 16*time.Second, nextDelay(8*time.Second, 30*time.Second))
	})

	t.Run("Should clamp at the cap", func(t *testing.T) {
		assert.Equal(t, 30*time.Second, nextDelay(16*time.Second, 30*time.Second))
		assert.Equal(t, 30*time.Second, nextDelay(30*time.Second, 30*time.Second))
	})
}
