package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultVersion es la versión de esquema usada si no se indica otra.
const DefaultVersion = "1.0"

// IntegrationEvent es la envoltura de todos los eventos de integración.
// ID y OccurredOn los estampa siempre la factoría: nunca vienen de fuera,
// así un mensaje reproducido no puede falsificar su identidad.
type IntegrationEvent struct {
	ID            uuid.UUID       `json:"id"`
	OccurredOn    time.Time       `json:"occurred_on"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Version       string          `json:"version"`
	Data          json.RawMessage `json:"data"` // contenido específico del evento
}

// Option ajusta campos opcionales de la envoltura en construcción.
type Option func(*IntegrationEvent)

// WithCorrelationID propaga el identificador de la cadena causal.
func WithCorrelationID(id string) Option {
	return func(e *IntegrationEvent) { e.CorrelationID = id }
}

// WithVersion fija una versión de esquema distinta de la por defecto.
func WithVersion(v string) Option {
	return func(e *IntegrationEvent) { e.Version = v }
}

// NewIntegrationEvent construye la envoltura inmutable de un evento.
// Serializa el payload y estampa id + timestamp UTC en el momento de creación.
func NewIntegrationEvent(eventType, source string, payload interface{}, opts ...Option) (IntegrationEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return IntegrationEvent{}, fmt.Errorf("failed to marshal event payload: %w", err)
	}

	evt := IntegrationEvent{
		ID:         uuid.New(),
		OccurredOn: time.Now().UTC(),
		Type:       eventType,
		Source:     source,
		Version:    DefaultVersion,
		Data:       data,
	}
	for _, opt := range opts {
		opt(&evt)
	}
	return evt, nil
}

// PartitionKey agrupa por cadena causal si existe; si no, por id del evento.
func (e IntegrationEvent) PartitionKey() string {
	if e.CorrelationID != "" {
		return e.CorrelationID
	}
	return e.ID.String()
}
