package bookingRepo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"taskora/models"
)

// InsertIfFree creates a booking inside one Mongo transaction: the provider's
// active bookings for the date are re-scanned under the session, the insert
// happens only when the interval is clear, and a duplicate-key error from the
// provider+date+start unique index (two writers racing for the same instant)
// collapses into the same ErrIntervalTaken outcome.
func (repo *MongoBookingRepo) InsertIfFree(ctx context.Context, b *models.Booking) error {
	client := repo.bookingColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	txnFn := func(sc mongo.SessionContext) error {
		filter := bson.M{
			"providerId": b.ProviderID,
			"date":       b.Date,
			"status":     bson.M{"$in": models.BlockingStatuses()},
		}
		cursor, err := repo.bookingColl.Find(sc, filter)
		if err != nil {
			return fmt.Errorf("conflict scan failed: %w", err)
		}
		var existing []models.Booking
		if err := cursor.All(sc, &existing); err != nil {
			return fmt.Errorf("conflict scan decode failed: %w", err)
		}
		for _, other := range existing {
			if other.Overlaps(b.Start, b.End) {
				return ErrIntervalTaken
			}
		}

		if _, err := repo.bookingColl.InsertOne(sc, b); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrIntervalTaken
			}
			return fmt.Errorf("insert booking failed: %w", err)
		}
		return nil
	}

	if err := mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		if err := sc.StartTransaction(); err != nil {
			return err
		}
		if err := txnFn(sc); err != nil {
			_ = sc.AbortTransaction(sc)
			return err
		}
		if err := sc.CommitTransaction(sc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrIntervalTaken
			}
			return err
		}
		return nil
	}); err != nil {
		if err == ErrIntervalTaken {
			return err
		}
		return fmt.Errorf("booking transaction failed: %w", err)
	}

	return nil
}
