package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ellcworth/shipment-service/internal/domain"
	"github.com/ellcworth/shipment-service/pkg/kafka"
	"github.com/ellcworth/shipment-service/pkg/outbox"
	outboxMongo "github.com/ellcworth/shipment-service/pkg/outbox/mongodb"
)

type ShipmentRepository struct {
	collection *mongo.Collection
	db         *mongo.Database
	outboxRepo *outboxMongo.OutboxRepository
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	collection := db.Collection("shipments")
	outboxRepo := outboxMongo.NewOutboxRepository(db)

	repo := &ShipmentRepository{
		collection: collection,
		db:         db,
		outboxRepo: outboxRepo,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *ShipmentRepository) ensureIndexes(ctx context.Context) {
	sparse := options.Index().SetSparse(true)
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "reference", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "customerId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "cargo.type", Value: 1}}},
		{Keys: bson.D{{Key: "cargo.vehicle.vin", Value: 1}}, Options: sparse},
		{Keys: bson.D{{Key: "cargo.container.containerNo", Value: 1}}, Options: sparse},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "notifications.pendingSent", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "notifications.deliveredSent", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)

	_ = r.outboxRepo.EnsureIndexes(ctx)
}

// Save persists the aggregate and its pending domain events in a single
// transaction. Updates carry an optimistic version check.
func (r *ShipmentRepository) Save(ctx context.Context, shipment *domain.Shipment) error {
	shipment.UpdatedAt = time.Now().UTC()

	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		if shipment.ID.IsZero() {
			shipment.ID = primitive.NewObjectID()
			shipment.Version = 1

			if _, err := r.collection.InsertOne(sessCtx, shipment); err != nil {
				return nil, fmt.Errorf("failed to insert shipment: %w", err)
			}
		} else {
			expected := shipment.Version
			shipment.Version = expected + 1

			filter := bson.M{"_id": shipment.ID, "version": expected}
			result, err := r.collection.ReplaceOne(sessCtx, filter, shipment)
			if err != nil {
				shipment.Version = expected
				return nil, fmt.Errorf("failed to update shipment: %w", err)
			}
			if result.MatchedCount == 0 {
				shipment.Version = expected
				return nil, domain.ErrConcurrencyConflict
			}
		}

		domainEvents := shipment.GetDomainEvents()
		if len(domainEvents) > 0 {
			outboxEvents := make([]*outbox.OutboxEvent, 0, len(domainEvents))
			for _, event := range domainEvents {
				outboxEvent, err := outbox.NewOutboxEvent(
					shipment.Reference,
					"Shipment",
					kafka.Topics.ShipmentEvents,
					event,
				)
				if err != nil {
					return nil, fmt.Errorf("failed to create outbox event: %w", err)
				}
				outboxEvents = append(outboxEvents, outboxEvent)
			}

			if err := r.outboxRepo.SaveAll(sessCtx, outboxEvents); err != nil {
				return nil, fmt.Errorf("failed to save outbox events: %w", err)
			}
		}

		shipment.ClearDomainEvents()

		return nil, nil
	})

	if err != nil {
		if err == domain.ErrConcurrencyConflict {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}

	return nil
}

func (r *ShipmentRepository) FindByID(ctx context.Context, id string) (*domain.Shipment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var s domain.Shipment
	err = r.collection.FindOne(ctx, bson.M{"_id": oid, "isDeleted": false}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &s, err
}

func (r *ShipmentRepository) FindByReference(ctx context.Context, reference string) (*domain.Shipment, error) {
	var s domain.Shipment
	err := r.collection.FindOne(ctx, bson.M{"reference": reference, "isDeleted": false}).Decode(&s)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	return &s, err
}

func (r *ShipmentRepository) Find(ctx context.Context, filter domain.ShipmentFilter) ([]*domain.Shipment, error) {
	query := bson.M{}
	if !filter.IncludeDeleted {
		query["isDeleted"] = false
	}
	if filter.CustomerID != "" {
		query["customerId"] = filter.CustomerID
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.CargoType != nil {
		query["cargo.type"] = *filter.CargoType
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	if filter.Offset > 0 {
		opts.SetSkip(filter.Offset)
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var shipments []*domain.Shipment
	err = cursor.All(ctx, &shipments)
	return shipments, err
}

func (r *ShipmentRepository) ExistsReference(ctx context.Context, reference string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"reference": reference})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindForNotification returns live shipments in the kind's trigger status
// whose notification flag is still unset
func (r *ShipmentRepository) FindForNotification(ctx context.Context, kind domain.NotificationKind) ([]*domain.Shipment, error) {
	filter := bson.M{
		"status":                kind.TriggerStatus(),
		"isDeleted":             false,
		notificationField(kind): false,
	}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var shipments []*domain.Shipment
	err = cursor.All(ctx, &shipments)
	return shipments, err
}

// MarkNotified flips the notification flag for the kind. The update matches
// only when the flag is still unset, so a concurrent scanner marking the
// same record is a no-op. The version bump makes a concurrent Save holding
// the pre-flag copy miss its version filter instead of erasing the flag.
func (r *ShipmentRepository) MarkNotified(ctx context.Context, id string, kind domain.NotificationKind) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	field := notificationField(kind)
	filter := bson.M{"_id": oid, field: false}
	update := bson.M{
		"$set": bson.M{
			field:       true,
			"updatedAt": time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	_, err = r.collection.UpdateOne(ctx, filter, update)
	return err
}

func (r *ShipmentRepository) SoftDelete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	filter := bson.M{"_id": oid, "isDeleted": false}
	update := bson.M{
		"$set": bson.M{
			"isDeleted": true,
			"updatedAt": time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ShipmentRepository) HardDelete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetOutboxRepository returns the outbox repository for this service
func (r *ShipmentRepository) GetOutboxRepository() outbox.Repository {
	return r.outboxRepo
}

func notificationField(kind domain.NotificationKind) string {
	if kind == domain.NotificationDelivered {
		return "notifications.deliveredSent"
	}
	return "notifications.pendingSent"
}
