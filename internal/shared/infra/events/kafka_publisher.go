package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/viajelab/internal/shared/events"
	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
)

// KafkaPublisher publica envolturas de integración en un topic de Kafka.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(writer *kafka.Writer, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, log: log}
}

// Publish serializa la envoltura completa y la entrega al broker. Devuelve
// cuando el broker la acepta; un fallo de transporte sube al llamante.
func (p *KafkaPublisher) Publish(ctx context.Context, event sharedEvents.IntegrationEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal integration event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.PartitionKey()),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Error publishing to Kafka",
			zap.String("type", event.Type),
			zap.Error(err),
		)
		return err
	}

	p.log.Debug("Event published successfully",
		zap.String("type", event.Type),
		zap.String("event_id", event.ID.String()),
	)
	return nil
}

// Send es hoy idéntico a Publish; ver el contrato en el port.
func (p *KafkaPublisher) Send(ctx context.Context, event sharedEvents.IntegrationEvent) error {
	return p.Publish(ctx, event)
}

// Verificación estática
var _ sharedBus.EventPublisher = (*KafkaPublisher)(nil)
