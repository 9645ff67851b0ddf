package providerRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"taskora/models"
)

// UpdateAvailability replaces the provider's published calendar. Validation
// (no overlapping weekly windows, no past dates) happens in the service layer
// before this is called.
func (repo *MongoProviderRepo) UpdateAvailability(ctx context.Context, providerID string, av models.Availability) error {
	av.UpdatedAt = time.Now()
	res, err := repo.providerColl.UpdateOne(ctx,
		bson.M{"id": providerID},
		bson.M{"$set": bson.M{"availability": av, "updatedAt": av.UpdatedAt}},
	)
	if err != nil {
		return fmt.Errorf("failed to update availability: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PruneExpiredAvailability drops overrides and leave periods that ended before
// the cutoff date. Date strings are "2006-01-02", so string comparison is
// chronological.
func (repo *MongoProviderRepo) PruneExpiredAvailability(ctx context.Context, beforeDate string) (int64, error) {
	res, err := repo.providerColl.UpdateMany(ctx,
		bson.M{},
		bson.M{"$pull": bson.M{
			"availability.dateOverrides": bson.M{"date": bson.M{"$lt": beforeDate}},
			"availability.leavePeriods":  bson.M{"to": bson.M{"$lt": beforeDate}},
		}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune expired availability: %w", err)
	}
	return res.ModifiedCount, nil
}
