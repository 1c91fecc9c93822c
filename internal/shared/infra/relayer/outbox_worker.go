package relayer

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedBus "github.com/davicafu/viajelab/internal/shared/infra/platform/bus"
)

// Worker publica los eventos pendientes de la tabla outbox.
// La fila guarda la envoltura ya sellada, así que publicar es reenviar los
// mismos bytes con la misma identidad hasta que el broker acepte: el contrato
// de reintento del publicador.
type Worker struct {
	repo        sharedDomain.OutboxRepository
	publisher   sharedBus.EventPublisher
	interval    time.Duration
	batchSize   int
	maxAttempts int
	log         *zap.Logger
}

func NewOutboxWorker(
	repo sharedDomain.OutboxRepository,
	publisher sharedBus.EventPublisher,
	interval time.Duration,
	batchSize int,
	maxAttempts int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:        repo,
		publisher:   publisher,
		interval:    interval,
		batchSize:   batchSize,
		maxAttempts: maxAttempts,
		log:         log,
	}
}

// Start inicia el bucle de polling del worker.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox worker iniciado", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox worker detenido.")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publica un lote de eventos pendientes. Un fallo en un evento
// no detiene el lote: se anota el intento y el siguiente tick lo reintenta.
func (w *Worker) ProcessBatch(ctx context.Context) {
	events, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener eventos pendientes", zap.Error(err))
		return
	}
	if len(events) > 0 {
		w.log.Info(fmt.Sprintf("📬 %d eventos encontrados para procesar", len(events)))
	}

	for _, evt := range events {
		w.publishAndMark(ctx, evt)
	}
}

func (w *Worker) publishAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) {
	if err := w.publisher.Publish(ctx, evt.Envelope); err != nil {
		w.log.Warn("⚠️ No se pudo publicar evento",
			zap.String("event_id", evt.ID.String()),
			zap.String("event_type", evt.EventType),
			zap.Int("attempts", evt.Attempts+1),
			zap.Error(err),
		)
		// Tras maxAttempts el evento queda aparcado para inspección manual
		// en vez de reintentarse para siempre.
		if err := w.repo.RecordOutboxFailure(ctx, evt.ID, w.maxAttempts); err != nil {
			w.log.Warn("⚠️ No se pudo anotar el intento fallido",
				zap.String("event_id", evt.ID.String()),
				zap.Error(err),
			)
		}
		return
	}

	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		// El evento se publicó pero no quedó marcado: se reenviará con la
		// misma identidad y los handlers idempotentes lo absorberán.
		w.log.Warn("⚠️ No se pudo marcar evento como procesado",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
	} else {
		w.log.Info("✅ Evento publicado y marcado", zap.String("event_id", evt.ID.String()))
	}
}
