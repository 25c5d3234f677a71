package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Insanely-69/CelestialSword2/internal/app/dto"
	"github.com/Insanely-69/CelestialSword2/internal/domain/model"
)

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers       []string
	Topic         string
	ConsumerGroup string
	BatchSize     int
	BatchTimeout  int
}

// MessageProducer defines interface for producing chat message events
type MessageProducer interface {
	PublishMessage(ctx context.Context, msg *model.ChatMessage) error
	Close() error
}

// MessageConsumer defines interface for consuming chat message events
type MessageConsumer interface {
	Subscribe(ctx context.Context) (<-chan *model.ChatMessage, error)
	Commit(ctx context.Context, msg *model.ChatMessage) error
	Close() error
}

// KafkaProducer implements MessageProducer using Kafka
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates a new Kafka producer.
// Returns nil when no brokers are configured.
func NewKafkaProducer(config KafkaConfig) *KafkaProducer {
	if len(config.Brokers) == 0 {
		return nil
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.Hash{}, // Hash-based partitioning keeps per-guild ordering
		RequiredAcks: kafka.RequireAll,
	}

	return &KafkaProducer{writer: writer}
}

// PublishMessage sends a chat message event to Kafka.
// Messages are keyed by guild so events of one guild stay ordered.
func (p *KafkaProducer) PublishMessage(ctx context.Context, msg *model.ChatMessage) error {
	data, err := json.Marshal(dto.FromModel(msg))
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(msg.Guild),
		Value: data,
		Time:  time.Now(),
	})
}

// PublishMessageBatch sends a batch of chat message events to Kafka
func (p *KafkaProducer) PublishMessageBatch(ctx context.Context, msgs []*dto.ChatMessageDTO) error {
	msgSlice := make([]kafka.Message, len(msgs))
	for i, msg := range msgs {
		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		msgSlice[i] = kafka.Message{
			Key:   []byte(msg.Guild),
			Value: data,
			Time:  time.Now(),
		}
	}
	return p.writer.WriteMessages(ctx, msgSlice...)
}

// Close closes the producer
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaConsumer implements MessageConsumer using Kafka
type KafkaConsumer struct {
	reader        *kafka.Reader
	topic         string
	pendingMsgs   map[string]kafka.Message // Map of message ID to Kafka message
	pendingMsgsMu sync.RWMutex             // Mutex to protect the pendingMsgs map
	batchSize     int                      // Number of messages to accumulate before batch commit
	batchTimeout  time.Duration            // Max time to wait before committing a batch
}

// NewKafkaConsumer creates a new Kafka consumer.
// Returns nil when no brokers are configured, which makes the app fall back
// to its in-process channel.
func NewKafkaConsumer(config KafkaConfig) *KafkaConsumer {
	if len(config.Brokers) == 0 {
		return nil
	}

	// Disable auto-commit to allow explicit commits
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        config.Brokers,
		Topic:          config.Topic,
		GroupID:        config.ConsumerGroup,
		MinBytes:       10e3,              // 10KB
		MaxBytes:       10e6,              // 10MB
		CommitInterval: 0,                 // Disable auto commit - we'll handle this manually
		StartOffset:    kafka.FirstOffset, // Start from oldest message if no offset is stored
	})

	return &KafkaConsumer{
		reader:       reader,
		topic:        config.Topic,
		pendingMsgs:  make(map[string]kafka.Message),
		batchSize:    config.BatchSize,
		batchTimeout: time.Duration(config.BatchTimeout) * time.Millisecond,
	}
}

// Subscribe returns a channel of chat message events from Kafka
func (c *KafkaConsumer) Subscribe(ctx context.Context) (<-chan *model.ChatMessage, error) {
	msgCh := make(chan *model.ChatMessage, 1000) // Buffer to handle bursts

	// Start a background goroutine for batch commits
	go c.startBatchCommitter(ctx)

	// Start the main consumer goroutine
	go func() {
		defer close(msgCh)

		for {
			select {
			case <-ctx.Done():
				return
			default:
				kmsg, err := c.reader.FetchMessage(ctx)
				if err != nil {
					if ctx.Err() == nil { // Only log if not due to context cancellation
						log.Printf("Error fetching message: %v", err)
					}
					return
				}

				var msgDTO dto.ChatMessageDTO
				if err := json.Unmarshal(kmsg.Value, &msgDTO); err != nil {
					log.Printf("Error unmarshalling chat message: %v", err)
					// Commit bad messages to avoid getting stuck
					_ = c.reader.CommitMessages(ctx, kmsg)
					continue
				}

				msg := msgDTO.ToModel()

				// Make sure we have an ID for tracking
				if msg.ID == "" {
					msg.ID = fmt.Sprintf("%s-%d-%d", msg.Guild, kmsg.Partition, kmsg.Offset)
				}

				// Store message for later commit (before sending to channel to ensure we don't miss commits)
				c.pendingMsgsMu.Lock()
				c.pendingMsgs[msg.ID] = kmsg
				pendingCount := len(c.pendingMsgs)
				c.pendingMsgsMu.Unlock()

				if pendingCount > c.batchSize*10 {
					log.Printf("Warning: Large number of uncommitted messages: %d, batchSize is %d", pendingCount, c.batchSize)
				}

				// Send to channel (blocking if buffer is full)
				select {
				case <-ctx.Done():
					return
				case msgCh <- msg:
					// Message is now in the channel to be processed
					// Actual commit will happen in Commit() or batch committer
				}
			}
		}
	}()

	return msgCh, nil
}

// startBatchCommitter runs a background process that periodically commits messages in batches
func (c *KafkaConsumer) startBatchCommitter(ctx context.Context) {
	ticker := time.NewTicker(c.batchTimeout)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final commit before shutting down
			c.commitAllPending(context.Background()) // Use a new context since the original is canceled
			return
		case <-ticker.C:
			c.commitAllPending(ctx)
		}
	}
}

// commitAllPending commits all pending messages
func (c *KafkaConsumer) commitAllPending(ctx context.Context) {
	c.pendingMsgsMu.Lock()
	defer c.pendingMsgsMu.Unlock()

	if len(c.pendingMsgs) == 0 {
		return
	}

	msgs := make([]kafka.Message, 0, len(c.pendingMsgs))
	for _, msg := range c.pendingMsgs {
		msgs = append(msgs, msg)
	}

	if err := c.reader.CommitMessages(ctx, msgs...); err != nil {
		log.Printf("Error committing batch of %d messages: %v", len(msgs), err)
		return
	}

	c.pendingMsgs = make(map[string]kafka.Message)
}

// Commit acknowledges that a chat message has been processed
func (c *KafkaConsumer) Commit(ctx context.Context, msg *model.ChatMessage) error {
	if msg == nil || msg.ID == "" {
		return fmt.Errorf("cannot commit nil message or message with empty ID")
	}

	c.pendingMsgsMu.Lock()
	kmsg, exists := c.pendingMsgs[msg.ID]
	if !exists {
		c.pendingMsgsMu.Unlock()
		return fmt.Errorf("message %s not found in pending messages", msg.ID)
	}

	// If we have enough messages, commit them all as a batch
	pendingCount := len(c.pendingMsgs)
	shouldBatchCommit := pendingCount >= c.batchSize

	// If not batch committing, just commit this one message
	if !shouldBatchCommit {
		delete(c.pendingMsgs, msg.ID) // Remove from pending before unlocking
		c.pendingMsgsMu.Unlock()

		if err := c.reader.CommitMessages(ctx, kmsg); err != nil {
			return fmt.Errorf("failed to commit message %s: %w", msg.ID, err)
		}
		return nil
	}

	// For batch commit, unlock and call the batch commit function
	c.pendingMsgsMu.Unlock()
	c.commitAllPending(ctx)
	return nil
}

// Close closes the consumer
func (c *KafkaConsumer) Close() error {
	// Final commit of any pending messages
	c.commitAllPending(context.Background())
	return c.reader.Close()
}
