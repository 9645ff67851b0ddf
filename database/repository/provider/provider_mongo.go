package providerRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"taskora/database"
	"taskora/models"
)

// earthRadiusKm is the sphere radius used to convert km to radians for
// $centerSphere queries.
const earthRadiusKm = 6371.0

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	providerColl *mongo.Collection
}

// NewMongoProviderRepo constructs a new instance of MongoProviderRepo.
func NewMongoProviderRepo() ProviderRepository {
	repo := &MongoProviderRepo{
		providerColl: database.DB().Collection("providers"),
	}
	if err := repo.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("provider repo: failed to ensure indexes: %v", err))
	}
	return repo
}

// GetByID retrieves a provider document by ID.
func (repo *MongoProviderRepo) GetByID(id string) (*models.Provider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var provider models.Provider
	if err := repo.providerColl.FindOne(ctx, bson.M{"id": id}).Decode(&provider); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching provider with id %s: %w", id, err)
	}
	return &provider, nil
}

// SearchNearby runs a $geoWithin/$centerSphere query against the provider
// location index.
func (repo *MongoProviderRepo) SearchNearby(lng, lat, radiusKm float64) ([]models.Provider, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	filter := bson.M{
		"profile.locationGeo": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{
					bson.A{lng, lat},
					radiusKm / earthRadiusKm,
				},
			},
		},
	}
	cursor, err := repo.providerColl.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("geo search failed: %w", err)
	}
	defer cursor.Close(ctx)

	var providers []models.Provider
	if err := cursor.All(ctx, &providers); err != nil {
		return nil, fmt.Errorf("error decoding geo search results: %w", err)
	}
	return providers, nil
}

// AdjustRating shifts the provider's rating by delta, clamped to [floor, ceil].
func (repo *MongoProviderRepo) AdjustRating(ctx context.Context, providerID string, delta, floor, ceil float64) error {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "profile.rating", Value: bson.D{
				{Key: "$max", Value: bson.A{
					floor,
					bson.D{{Key: "$min", Value: bson.A{
						ceil,
						bson.D{{Key: "$add", Value: bson.A{"$profile.rating", delta}}},
					}}},
				}},
			}},
			{Key: "updatedAt", Value: time.Now()},
		}}},
	}
	res, err := repo.providerColl.UpdateOne(ctx, bson.M{"id": providerID}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to adjust provider rating: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// CreditEarnings increments the provider's earnings and completed-bookings
// aggregates.
func (repo *MongoProviderRepo) CreditEarnings(ctx context.Context, providerID string, amount float64) error {
	res, err := repo.providerColl.UpdateOne(ctx,
		bson.M{"id": providerID},
		bson.M{
			"$inc": bson.M{"totalEarnings": amount, "completedBookings": 1},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to credit provider earnings: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyReview folds one rating into the provider aggregate as a running mean.
func (repo *MongoProviderRepo) ApplyReview(ctx context.Context, providerID string, rating float64) error {
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "profile.rating", Value: bson.D{
				{Key: "$cond", Value: bson.A{
					bson.D{{Key: "$lte", Value: bson.A{"$reviewCount", 0}}},
					rating,
					bson.D{{Key: "$divide", Value: bson.A{
						bson.D{{Key: "$add", Value: bson.A{
							bson.D{{Key: "$multiply", Value: bson.A{"$profile.rating", "$reviewCount"}}},
							rating,
						}}},
						bson.D{{Key: "$add", Value: bson.A{"$reviewCount", 1}}},
					}}},
				}},
			}},
			{Key: "reviewCount", Value: bson.D{{Key: "$add", Value: bson.A{"$reviewCount", 1}}}},
			{Key: "updatedAt", Value: time.Now()},
		}}},
	}
	res, err := repo.providerColl.UpdateOne(ctx, bson.M{"id": providerID}, pipeline)
	if err != nil {
		return fmt.Errorf("failed to apply review: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
