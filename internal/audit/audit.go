package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/wearhouse/storefront/internal/models"
	"github.com/wearhouse/storefront/internal/repository"
)

// Topic carries administrative actions from the services layer to the
// persistent admin log.
const Topic = "admin.actions"

// Event is a single administrative action.
type Event struct {
	UserID int64     `json:"user_id"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// Publisher emits admin action events.
type Publisher struct {
	pub message.Publisher
}

// NewPublisher creates a new audit publisher
func NewPublisher(pub message.Publisher) *Publisher {
	return &Publisher{pub: pub}
}

// Record publishes an admin action. Failures are logged, not returned:
// the action itself already succeeded and must not be rolled back over
// a logging problem.
func (p *Publisher) Record(userID int64, action string) {
	payload, err := json.Marshal(Event{
		UserID: userID,
		Action: action,
		At:     time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[AUDIT] Failed to encode event: %v", err)
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := p.pub.Publish(Topic, msg); err != nil {
		log.Printf("[AUDIT] Failed to publish event: %v", err)
	}
}

// Recorder consumes admin action events and appends them to the store.
type Recorder struct {
	store repository.Store
}

// NewRecorder creates a new audit recorder
func NewRecorder(store repository.Store) *Recorder {
	return &Recorder{store: store}
}

// Start subscribes to the audit topic and spawns the consume loop. The
// subscription is established before Start returns, so an event published
// any time after a successful Start cannot be dropped for lack of a
// subscriber.
func (r *Recorder) Start(ctx context.Context, sub message.Subscriber) error {
	messages, err := sub.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}
	go r.consume(ctx, messages)
	return nil
}

// consume persists events until the context is cancelled or the
// subscriber channel closes.
func (r *Recorder) consume(ctx context.Context, messages <-chan *message.Message) {
	for msg := range messages {
		var ev Event
		if err := json.Unmarshal(msg.Payload, &ev); err != nil {
			log.Printf("[AUDIT] Dropping malformed event %s: %v", msg.UUID, err)
			msg.Ack()
			continue
		}
		entry := &models.AdminLogEntry{
			UserID:    ev.UserID,
			Action:    ev.Action,
			Timestamp: ev.At,
		}
		if err := r.store.AppendAdminLog(ctx, entry); err != nil {
			log.Printf("[AUDIT] Failed to persist event %s: %v", msg.UUID, err)
			msg.Nack()
			continue
		}
		msg.Ack()
	}
}
