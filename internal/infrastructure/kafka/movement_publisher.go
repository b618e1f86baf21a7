package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/jhoicas/Inventario-rooftop/internal/domain/entity"
)

const writeTimeout = 5 * time.Second

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MovementEvent cuerpo JSON publicado por cada movimiento aceptado.
type MovementEvent struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id"`
	ProductName   string    `json:"product_name"`
	Type          string    `json:"type"`
	Quantity      int64     `json:"quantity"`
	BeforeBodega  int64     `json:"before_bodega"`
	BeforeCocina  int64     `json:"before_cocina"`
	AfterBodega   int64     `json:"after_bodega"`
	AfterCocina   int64     `json:"after_cocina"`
	Responsible   string    `json:"responsible"`
	ResponsibleID string    `json:"responsible_id,omitempty"`
	Observations  *string   `json:"observations,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// MovementPublisher publica los movimientos del ledger en un tópico de Kafka, con el id del
// producto como clave para conservar el orden por producto.
type MovementPublisher struct {
	writer messageWriter
}

// NewMovementPublisher crea el productor hacia brokers/topic.
func NewMovementPublisher(brokers []string, topic string) *MovementPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Compression:  kafka.Snappy,
	}
	return &MovementPublisher{writer: writer}
}

// PublishMovement serializa y escribe el movimiento.
func (p *MovementPublisher) PublishMovement(ctx context.Context, mov *entity.Movement) error {
	message, err := buildMessage(mov)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("escribir movimiento %s en kafka: %w", mov.ID, err)
	}
	return nil
}

// Close vacía el buffer pendiente y cierra el productor.
func (p *MovementPublisher) Close() error {
	return p.writer.Close()
}

func buildMessage(mov *entity.Movement) (kafka.Message, error) {
	event := MovementEvent{
		ID:            mov.ID,
		ProductID:     mov.ProductID,
		ProductName:   mov.ProductName,
		Type:          string(mov.Type),
		Quantity:      mov.Quantity,
		BeforeBodega:  mov.BeforeBodega,
		BeforeCocina:  mov.BeforeCocina,
		AfterBodega:   mov.AfterBodega,
		AfterCocina:   mov.AfterCocina,
		Responsible:   mov.Responsible,
		ResponsibleID: mov.ResponsibleID,
		Observations:  mov.Observations,
		Timestamp:     mov.Timestamp,
	}
	body, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("serializar movimiento: %w", err)
	}
	return kafka.Message{
		Key:   []byte(mov.ProductID),
		Value: body,
		Time:  mov.Timestamp,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(mov.Type)},
		},
	}, nil
}
