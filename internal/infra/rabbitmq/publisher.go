package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"mindcoach-service/internal/domain"
	"mindcoach-service/internal/scoring"
)

// EvaluatedRoutingKey is used for every saved evaluation.
const EvaluatedRoutingKey = "assessment.evaluated"

// EvaluationEvent is the message body published after an evaluation is saved.
type EvaluationEvent struct {
	EventType  string    `json:"eventType"`
	RecordID   string    `json:"recordId"`
	PlayerID   string    `json:"playerId"`
	RawScore   int       `json:"rawScore"`
	MaxScore   int       `json:"maxScore"`
	Percent    int       `json:"percent"`
	Strengths  []string  `json:"strengths"`
	Blockers   []string  `json:"blockers"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher sends evaluation events to a topic exchange. With an empty URI it
// is disabled and every publish is a no-op.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	enabled  bool
}

func NewPublisher(uri, exchange string) (*Publisher, error) {
	if exchange == "" {
		exchange = "mindcoach.events"
	}
	if uri == "" {
		log.Println("rabbitmq url is empty, event publishing is disabled")
		return &Publisher{exchange: exchange}, nil
	}

	conn, err := amqp091.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	log.Printf("event publisher ready on exchange %s", exchange)
	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		enabled:  true,
	}, nil
}

// Enabled reports whether events reach a broker.
func (p *Publisher) Enabled() bool {
	return p.enabled
}

// NewEvaluationEvent builds the message for rec.
func NewEvaluationEvent(rec domain.EvaluationRecord) EvaluationEvent {
	summary := scoring.DeriveStrengthsAndBlockers(rec.AssessmentEvaluation)
	return EvaluationEvent{
		EventType:  EvaluatedRoutingKey,
		RecordID:   rec.ID,
		PlayerID:   rec.PlayerID,
		RawScore:   rec.RawScore,
		MaxScore:   rec.MaxScore,
		Percent:    rec.Percent,
		Strengths:  summary.Strengths,
		Blockers:   summary.Blockers,
		OccurredAt: rec.CreatedAt,
	}
}

func (p *Publisher) PublishEvaluation(ctx context.Context, rec domain.EvaluationRecord) error {
	if !p.enabled {
		return nil
	}

	body, err := json.Marshal(NewEvaluationEvent(rec))
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.channel.PublishWithContext(ctx,
		p.exchange,          // exchange
		EvaluatedRoutingKey, // routing key
		false,               // mandatory
		false,               // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
			Headers: amqp091.Table{
				"event_type": EvaluatedRoutingKey,
				"player_id":  rec.PlayerID,
			},
		},
	)
	if err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if !p.enabled {
		return nil
	}
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			log.Printf("close rabbitmq channel: %v", err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}
