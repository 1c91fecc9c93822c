package mongodb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
)

// OutboxRepoMongoDB implementa la interfaz sharedDomain.OutboxRepository
// sobre la colección outbox. La usa el relayer cuando algún contexto
// persiste sus agregados en MongoDB: sus filas de outbox viven aquí, no en
// la tabla SQL.
type OutboxRepoMongoDB struct {
	outboxColl *mongo.Collection
}

func NewOutboxRepoMongoDB(client *mongo.Client, dbName string) *OutboxRepoMongoDB {
	return &OutboxRepoMongoDB{outboxColl: client.Database(dbName).Collection("outbox")}
}

// mongoOutboxEvent mapea los documentos de la colección. La envoltura se
// guarda como JSON sellado, igual que en las tablas SQL: publicar es
// reenviar los mismos bytes.
type mongoOutboxEvent struct {
	ID            string    `bson:"_id"`
	AggregateType string    `bson:"aggregateType"`
	AggregateID   string    `bson:"aggregateId"`
	EventType     string    `bson:"eventType"`
	Envelope      string    `bson:"envelope"`
	CreatedAt     time.Time `bson:"createdAt"`
	Attempts      int       `bson:"attempts"`
	Processed     bool      `bson:"processed"`
	Parked        bool      `bson:"parked"`
}

// NewOutboxDoc construye el documento a insertar en la transacción del
// agregado. Es el equivalente Mongo de InsertOutboxTx.
func NewOutboxDoc(evt sharedDomain.OutboxEvent) (bson.M, error) {
	envelopeBytes, err := json.Marshal(evt.Envelope)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal outbox envelope: %w", err)
	}

	return bson.M{
		"_id":           evt.ID.String(),
		"aggregateType": evt.AggregateType,
		"aggregateId":   evt.AggregateID,
		"eventType":     evt.EventType,
		"envelope":      string(envelopeBytes),
		"createdAt":     evt.CreatedAt,
		"attempts":      0,
		"processed":     false,
		"parked":        false,
	}, nil
}

// FetchPendingOutbox obtiene los eventos no procesados ni aparcados.
func (r *OutboxRepoMongoDB) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	filter := bson.M{"processed": false, "parked": false}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(int64(limit))

	cursor, err := r.outboxColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []sharedDomain.OutboxEvent
	for cursor.Next(ctx) {
		var mo mongoOutboxEvent
		if err := cursor.Decode(&mo); err != nil {
			return nil, err
		}
		evt, err := fromMongoOutboxEvent(mo)
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}
	return events, cursor.Err()
}

// MarkOutboxProcessed marca un evento como publicado.
func (r *OutboxRepoMongoDB) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.outboxColl.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"processed": true}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

// RecordOutboxFailure incrementa intentos y aparca al alcanzar maxAttempts.
func (r *OutboxRepoMongoDB) RecordOutboxFailure(ctx context.Context, id uuid.UUID, maxAttempts int) error {
	var updated mongoOutboxEvent
	err := r.outboxColl.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		return err
	}

	if updated.Attempts >= maxAttempts && !updated.Parked {
		_, err = r.outboxColl.UpdateOne(ctx,
			bson.M{"_id": id.String()},
			bson.M{"$set": bson.M{"parked": true}},
		)
	}
	return err
}

func fromMongoOutboxEvent(mo mongoOutboxEvent) (sharedDomain.OutboxEvent, error) {
	evt := sharedDomain.OutboxEvent{
		AggregateType: mo.AggregateType,
		AggregateID:   mo.AggregateID,
		EventType:     mo.EventType,
		CreatedAt:     mo.CreatedAt,
		Attempts:      mo.Attempts,
		Processed:     mo.Processed,
		Parked:        mo.Parked,
	}

	id, err := uuid.Parse(mo.ID)
	if err != nil {
		return evt, fmt.Errorf("invalid UUID in outbox document: %w", err)
	}
	evt.ID = id

	if err := json.Unmarshal([]byte(mo.Envelope), &evt.Envelope); err != nil {
		return evt, fmt.Errorf("invalid JSON envelope in outbox document %s: %w", mo.ID, err)
	}
	return evt, nil
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxRepository = (*OutboxRepoMongoDB)(nil)
