package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"taskora/database"
	"taskora/models"
)

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	bookingColl *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo() BookingRepository {
	repo := &MongoBookingRepo{
		bookingColl: database.DB().Collection("bookings"),
	}
	if err := repo.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("booking repo: failed to ensure indexes: %v", err))
	}
	return repo
}

// GetByID retrieves a booking document by ID.
func (repo *MongoBookingRepo) GetByID(id string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var b models.Booking
	if err := repo.bookingColl.FindOne(ctx, bson.M{"id": id}).Decode(&b); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking with id %s: %w", id, err)
	}
	return &b, nil
}

// ActiveByProviderDate returns the provider's schedule-occupying bookings for
// one calendar date.
func (repo *MongoBookingRepo) ActiveByProviderDate(providerID, date string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"providerId": providerID,
		"date":       date,
		"status":     bson.M{"$in": models.BlockingStatuses()},
	}
	cursor, err := repo.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching active bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding active bookings: %w", err)
	}
	return bookings, nil
}

// CompareAndSwapStatus performs a guarded status write: the filter pins the
// expected prior status so a racing transition loses cleanly instead of
// overwriting.
func (repo *MongoBookingRepo) CompareAndSwapStatus(ctx context.Context, id string, from, to models.BookingStatus, fields StatusFields) error {
	set := bson.M{
		"status":    to,
		"updatedAt": time.Now(),
	}
	if fields.PaymentStatus != nil {
		set["paymentStatus"] = *fields.PaymentStatus
	}
	if fields.RefundDue != nil {
		set["refundDue"] = *fields.RefundDue
	}
	if fields.Reviewed != nil {
		set["reviewed"] = *fields.Reviewed
	}

	res, err := repo.bookingColl.UpdateOne(ctx,
		bson.M{"id": id, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing booking from a lost race.
		n, err := repo.bookingColl.CountDocuments(ctx, bson.M{"id": id})
		if err != nil {
			return fmt.Errorf("failed to verify booking existence: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrStatusChanged
	}
	return nil
}

// FindStale returns bookings in the given statuses dated strictly before the
// cutoff. Date strings are "2006-01-02", so lexicographic comparison is
// chronological.
func (repo *MongoBookingRepo) FindStale(statuses []models.BookingStatus, beforeDate string) ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	filter := bson.M{
		"status": bson.M{"$in": statuses},
		"date":   bson.M{"$lt": beforeDate},
	}
	cursor, err := repo.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching stale bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding stale bookings: %w", err)
	}
	return bookings, nil
}

// FindUnrefunded returns cancelled and expired bookings still marked Paid
// with a recorded refund owed.
func (repo *MongoBookingRepo) FindUnrefunded() ([]models.Booking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	filter := bson.M{
		"status":        bson.M{"$in": []models.BookingStatus{models.BookingCancelled, models.BookingExpired}},
		"paymentStatus": models.PaymentPaid,
		"refundDue":     bson.M{"$gt": 0},
	}
	cursor, err := repo.bookingColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("error fetching unrefunded bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []models.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding unrefunded bookings: %w", err)
	}
	return bookings, nil
}

// SetSettlement stores the commission split computed when payment was
// confirmed.
func (repo *MongoBookingRepo) SetSettlement(ctx context.Context, id string, commission, providerAmount float64) error {
	res, err := repo.bookingColl.UpdateOne(ctx,
		bson.M{"id": id},
		bson.M{"$set": bson.M{
			"commission":     commission,
			"providerAmount": providerAmount,
			"updatedAt":      time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to store settlement: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkRefunded flips paymentStatus to Refunded after the wallet credit has
// committed. The filter on Paid keeps a replay from matching twice.
func (repo *MongoBookingRepo) MarkRefunded(ctx context.Context, id string) error {
	res, err := repo.bookingColl.UpdateOne(ctx,
		bson.M{"id": id, "paymentStatus": models.PaymentPaid},
		bson.M{"$set": bson.M{"paymentStatus": models.PaymentRefunded, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark booking refunded: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := repo.bookingColl.CountDocuments(ctx, bson.M{"id": id})
		if err != nil {
			return fmt.Errorf("failed to verify booking existence: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrStatusChanged
	}
	return nil
}

// MarkReviewed flips the reviewed flag; the filter on reviewed=false makes a
// second submission lose.
func (repo *MongoBookingRepo) MarkReviewed(ctx context.Context, id string) error {
	res, err := repo.bookingColl.UpdateOne(ctx,
		bson.M{"id": id, "reviewed": false},
		bson.M{"$set": bson.M{"reviewed": true, "updatedAt": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark booking reviewed: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := repo.bookingColl.CountDocuments(ctx, bson.M{"id": id})
		if err != nil {
			return fmt.Errorf("failed to verify booking existence: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrStatusChanged
	}
	return nil
}
