package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	orderDomain "github.com/davicafu/viajelab/internal/order/domain"
	sharedDomain "github.com/davicafu/viajelab/internal/shared/domain"
	sharedMongo "github.com/davicafu/viajelab/internal/shared/infra/db/mongodb"
)

// OrderRepoMongoDB implementa la interfaz OrderRepository para MongoDB.
// El agregado se guarda como documento con el historial embebido: el
// documento entero es la unidad de consistencia.
type OrderRepoMongoDB struct {
	client     *mongo.Client
	ordersColl *mongo.Collection
	outboxColl *mongo.Collection
}

// NewOrderRepoMongoDB es el constructor del repositorio.
func NewOrderRepoMongoDB(ctx context.Context, client *mongo.Client, dbName string) (*OrderRepoMongoDB, error) {
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("could not ping mongoDB: %w", err)
	}

	db := client.Database(dbName)
	return &OrderRepoMongoDB{
		client:     client,
		ordersColl: db.Collection("orders"),
		outboxColl: db.Collection("outbox"),
	}, nil
}

// --- Structs de BSON para el mapeo ---
// Se definen localmente para no "contaminar" el dominio con tags de BSON.

type mongoStatusChange struct {
	Status    string    `bson:"status"`
	Reason    string    `bson:"reason"`
	ChangedAt time.Time `bson:"changedAt"`
}

type mongoOrder struct {
	ID          uuid.UUID           `bson:"_id"`
	UserID      uuid.UUID           `bson:"userId"`
	TotalAmount string              `bson:"totalAmount"`
	Currency    string              `bson:"currency"`
	LastStatus  string              `bson:"lastStatus"`
	CreatedAt   time.Time           `bson:"createdAt"`
	History     []mongoStatusChange `bson:"history"`
}

func toMongoOrder(o *orderDomain.Order) mongoOrder {
	history := make([]mongoStatusChange, 0, len(o.History))
	for _, h := range o.History {
		history = append(history, mongoStatusChange{
			Status:    string(h.Status),
			Reason:    h.Reason,
			ChangedAt: h.ChangedAt,
		})
	}
	return mongoOrder{
		ID:          o.ID,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount.String(),
		Currency:    o.Currency,
		LastStatus:  string(o.LastStatus),
		CreatedAt:   o.CreatedAt,
		History:     history,
	}
}

func fromMongoOrder(m mongoOrder) (*orderDomain.Order, error) {
	amount, err := decimal.NewFromString(m.TotalAmount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount in document: %w", err)
	}

	history := make([]orderDomain.StatusChange, 0, len(m.History))
	for _, h := range m.History {
		history = append(history, orderDomain.StatusChange{
			Status:    orderDomain.Status(h.Status),
			Reason:    h.Reason,
			ChangedAt: h.ChangedAt,
		})
	}

	return &orderDomain.Order{
		ID:          m.ID,
		UserID:      m.UserID,
		TotalAmount: amount,
		Currency:    m.Currency,
		LastStatus:  orderDomain.Status(m.LastStatus),
		CreatedAt:   m.CreatedAt,
		History:     history,
	}, nil
}

// --- CRUD Transaccional ---

func (r *OrderRepoMongoDB) Create(ctx context.Context, o *orderDomain.Order, evts ...sharedDomain.OutboxEvent) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	// La transacción asegura que pedido y eventos se inserten atómicamente.
	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if _, err := r.ordersColl.InsertOne(sessCtx, toMongoOrder(o)); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, orderDomain.ErrOrderAlreadyExists
			}
			return nil, err
		}
		if err := r.insertOutbox(sessCtx, evts); err != nil {
			return nil, err
		}
		return nil, nil
	})

	return err
}

func (r *OrderRepoMongoDB) Save(ctx context.Context, o *orderDomain.Order, evts ...sharedDomain.OutboxEvent) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, r.saveOne(sessCtx, o, evts)
	})
	return err
}

func (r *OrderRepoMongoDB) SaveBatch(ctx context.Context, orders []*orderDomain.Order, evts ...sharedDomain.OutboxEvent) error {
	session, err := r.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		for _, o := range orders {
			if err := r.saveOne(sessCtx, o, nil); err != nil {
				return nil, err
			}
		}
		if err := r.insertOutbox(sessCtx, evts); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

func (r *OrderRepoMongoDB) saveOne(sessCtx mongo.SessionContext, o *orderDomain.Order, evts []sharedDomain.OutboxEvent) error {
	m := toMongoOrder(o)
	res, err := r.ordersColl.ReplaceOne(sessCtx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return orderDomain.ErrOrderNotFound
	}

	return r.insertOutbox(sessCtx, evts)
}

// insertOutbox escribe las filas de outbox en la misma transacción que el
// agregado. El formato del documento es el que lee OutboxRepoMongoDB.
func (r *OrderRepoMongoDB) insertOutbox(sessCtx mongo.SessionContext, evts []sharedDomain.OutboxEvent) error {
	for _, evt := range evts {
		doc, err := sharedMongo.NewOutboxDoc(evt)
		if err != nil {
			return err
		}
		if _, err := r.outboxColl.InsertOne(sessCtx, doc); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepoMongoDB) GetByID(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	var m mongoOrder
	err := r.ordersColl.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, orderDomain.ErrOrderNotFound
		}
		return nil, err
	}
	return fromMongoOrder(m)
}

func (r *OrderRepoMongoDB) ListPendingBefore(ctx context.Context, cutoff time.Time) ([]*orderDomain.Order, error) {
	filter := bson.M{
		"lastStatus": string(orderDomain.StatusPending),
		"createdAt":  bson.M{"$lt": cutoff},
	}

	cursor, err := r.ordersColl.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []*orderDomain.Order
	for cursor.Next(ctx) {
		var m mongoOrder
		if err := cursor.Decode(&m); err != nil {
			return nil, err
		}
		o, err := fromMongoOrder(m)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, cursor.Err()
}

// Verificación en tiempo de compilación.
var _ orderDomain.OrderRepository = (*OrderRepoMongoDB)(nil)
