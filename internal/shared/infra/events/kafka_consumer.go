package events

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageHandler define la interfaz que debe cumplir quien procese mensajes
// entrantes (el dispatcher). Un error indica que el efecto NO quedó aplicado
// y el mensaje debe reentregarse.
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte) error
}

// ConsumerAdapter es el "oído" que escucha en Kafka. Usa fetch + commit
// explícito: el offset solo se confirma cuando el handler aplicó su unidad
// atómica de trabajo, así la entrega es al-menos-una-vez.
type ConsumerAdapter struct {
	reader  *kafka.Reader
	handler MessageHandler
	log     *zap.Logger
}

func NewConsumerAdapter(reader *kafka.Reader, handler MessageHandler, log *zap.Logger) *ConsumerAdapter {
	return &ConsumerAdapter{
		reader:  reader,
		handler: handler,
		log:     log,
	}
}

// Start inicia el bucle de consumo de mensajes en una goroutine.
func (c *ConsumerAdapter) Start(ctx context.Context) {
	c.log.Info("🎧 Iniciando consumidor de Kafka...",
		zap.String("topic", c.reader.Config().Topic),
		zap.Strings("brokers", c.reader.Config().Brokers),
	)

	go func() {
		for {
			// FetchMessage es una llamada bloqueante.
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				// Si el contexto se cancela, el error es normal y salimos limpiamente.
				if ctx.Err() != nil {
					c.log.Info("Consumidor de Kafka detenido.", zap.String("topic", c.reader.Config().Topic))
					return
				}
				c.log.Error("Error al leer mensaje de Kafka", zap.Error(err))
				continue
			}

			if err := c.handler.HandleMessage(ctx, string(msg.Key), msg.Value); err != nil {
				// Sin commit: el broker reentregará con backoff.
				c.log.Warn("Mensaje no procesado, se reentregará",
					zap.String("topic", msg.Topic),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
				continue
			}

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				c.log.Error("Error al confirmar offset", zap.Error(err))
			}
		}
	}()
}
