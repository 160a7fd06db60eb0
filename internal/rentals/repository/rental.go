package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	rentalerrors "carrental/internal/rentals/errors"
	"carrental/pkg/config"
	"carrental/pkg/model"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Rentals"
)

type RentalRepository interface {
	Insert(ctx context.Context, rental *model.Rental) error
	FindByBookingNumber(ctx context.Context, bookingNumber string) (*model.Rental, error)
	FindAll(ctx context.Context, limit int, offset int64) ([]*model.Rental, error)
	FindByStatus(ctx context.Context, status model.RentalStatus) ([]*model.Rental, error)
	Count(ctx context.Context) (int64, error)
	CompleteReturn(ctx context.Context, rental *model.Rental) error
	EnsureIndexes(ctx context.Context) error
}

type mongoRentalRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRentalRepository(cfg *config.Config) RentalRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRentalRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
	}
}

// rentalDocument is the storage shape. Conversion to and from model.Rental
// is explicit and field-by-field; the price is persisted as a decimal
// string to avoid any float representation in the database.
type rentalDocument struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	BookingNumber      string             `bson:"booking_number"`
	RegistrationNumber string             `bson:"registration_number"`
	CustomerID         string             `bson:"customer_id"`
	Category           string             `bson:"category"`
	PickupTime         time.Time          `bson:"pickup_time"`
	PickupMeter        int64              `bson:"pickup_meter"`
	ReturnTime         *time.Time         `bson:"return_time,omitempty"`
	ReturnMeter        *int64             `bson:"return_meter,omitempty"`
	Price              *string            `bson:"price,omitempty"`
	Status             string             `bson:"status"`
	Email              string             `bson:"email"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          *time.Time         `bson:"updated_at,omitempty"`
}

func toDocument(r *model.Rental) (*rentalDocument, error) {
	doc := &rentalDocument{
		BookingNumber:      r.BookingNumber,
		RegistrationNumber: r.RegistrationNumber,
		CustomerID:         r.CustomerID,
		Category:           string(r.Category),
		PickupTime:         r.PickupTime,
		PickupMeter:        r.PickupMeter,
		ReturnTime:         r.ReturnTime,
		ReturnMeter:        r.ReturnMeter,
		Status:             string(r.Status),
		Email:              r.Email,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}

	if r.ID != "" {
		oid, err := primitive.ObjectIDFromHex(r.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid rental ID %q: %w", r.ID, err)
		}
		doc.ID = oid
	}

	if r.Price != nil {
		price := r.Price.String()
		doc.Price = &price
	}

	return doc, nil
}

func fromDocument(doc *rentalDocument) (*model.Rental, error) {
	rental := &model.Rental{
		ID:                 doc.ID.Hex(),
		BookingNumber:      doc.BookingNumber,
		RegistrationNumber: doc.RegistrationNumber,
		CustomerID:         doc.CustomerID,
		Category:           model.CarCategory(doc.Category),
		PickupTime:         doc.PickupTime,
		PickupMeter:        doc.PickupMeter,
		ReturnTime:         doc.ReturnTime,
		ReturnMeter:        doc.ReturnMeter,
		Status:             model.RentalStatus(doc.Status),
		Email:              doc.Email,
		CreatedAt:          doc.CreatedAt,
		UpdatedAt:          doc.UpdatedAt,
	}

	if doc.Price != nil {
		price, err := decimal.NewFromString(*doc.Price)
		if err != nil {
			return nil, fmt.Errorf("corrupt price %q on rental %s: %w", *doc.Price, doc.BookingNumber, err)
		}
		rental.Price = &price
	}

	return rental, nil
}

// withTimeout caps the per-call storage deadline without extending a
// stricter deadline already present on the request context.
func (r *mongoRentalRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithTimeout(ctx, time.Until(deadline))
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoRentalRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "booking_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create rental indexes: %w", err)
	}
	return nil
}

func (r *mongoRentalRepository) Insert(ctx context.Context, rental *model.Rental) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	rental.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)

	doc, err := toDocument(rental)
	if err != nil {
		return err
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return rentalerrors.ErrDuplicateBookingNumber
		}
		return fmt.Errorf("failed to insert rental: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		rental.ID = oid.Hex()
	}
	return nil
}

func (r *mongoRentalRepository) FindByBookingNumber(ctx context.Context, bookingNumber string) (*model.Rental, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var doc rentalDocument
	err := r.collection.FindOne(ctx, bson.M{"booking_number": bookingNumber}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, rentalerrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find rental: %w", err)
	}

	return fromDocument(&doc)
}

func (r *mongoRentalRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Rental, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rentals: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeRentals(ctx, cursor)
}

func (r *mongoRentalRepository) FindByStatus(ctx context.Context, status model.RentalStatus) ([]*model.Rental, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})

	cursor, err := r.collection.Find(ctx, bson.M{"status": string(status)}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rentals by status: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeRentals(ctx, cursor)
}

func (r *mongoRentalRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	count, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count rentals: %w", err)
	}
	return count, nil
}

// CompleteReturn commits the Active→Completed transition. The filter pins
// status to active, so of two concurrent returns exactly one matches; the
// loser gets ErrAlreadyCompleted.
func (r *mongoRentalRepository) CompleteReturn(ctx context.Context, rental *model.Rental) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if rental.ReturnTime == nil || rental.ReturnMeter == nil || rental.Price == nil {
		return fmt.Errorf("incomplete return data for rental %s", rental.BookingNumber)
	}

	filter := bson.M{
		"booking_number": rental.BookingNumber,
		"status":         string(model.StatusActive),
	}
	update := bson.M{
		"$set": bson.M{
			"return_time":  *rental.ReturnTime,
			"return_meter": *rental.ReturnMeter,
			"price":        rental.Price.String(),
			"status":       string(model.StatusCompleted),
			"updated_at":   rental.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to complete rental return: %w", err)
	}

	if result.MatchedCount == 0 {
		return rentalerrors.ErrAlreadyCompleted
	}

	return nil
}

func decodeRentals(ctx context.Context, cursor *mongo.Cursor) ([]*model.Rental, error) {
	var docs []*rentalDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode rentals: %w", err)
	}

	rentals := make([]*model.Rental, 0, len(docs))
	for _, doc := range docs {
		rental, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, rental)
	}
	return rentals, nil
}
