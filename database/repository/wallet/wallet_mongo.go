package walletRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskora/database"
	"taskora/models"
)

// MongoWalletRepo implements WalletRepository using MongoDB.
type MongoWalletRepo struct {
	walletColl *mongo.Collection
	txnColl    *mongo.Collection
}

// NewMongoWalletRepo constructs a new instance of MongoWalletRepo.
func NewMongoWalletRepo() WalletRepository {
	db := database.DB()
	repo := &MongoWalletRepo{
		walletColl: db.Collection("wallets"),
		txnColl:    db.Collection("wallet_transactions"),
	}
	if err := repo.ensureIndexes(); err != nil {
		panic(fmt.Sprintf("wallet repo: failed to ensure indexes: %v", err))
	}
	return repo
}

func (repo *MongoWalletRepo) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ownerIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "ownerId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	txnIdx := mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
	}
	// Ledger entry ids are unique so a replayed mutation aborts instead of
	// applying twice.
	txnIDIdx := mongo.IndexModel{
		Keys:    bson.D{{Key: "id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := repo.walletColl.Indexes().CreateOne(ctx, ownerIdx); err != nil {
		return fmt.Errorf("failed to create wallet index: %w", err)
	}
	if _, err := repo.txnColl.Indexes().CreateOne(ctx, txnIdx); err != nil {
		return fmt.Errorf("failed to create wallet transaction index: %w", err)
	}
	if _, err := repo.txnColl.Indexes().CreateOne(ctx, txnIDIdx); err != nil {
		return fmt.Errorf("failed to create wallet transaction id index: %w", err)
	}
	return nil
}

// Get retrieves the wallet for an owner, returning a zero-balance wallet when
// none exists yet.
func (repo *MongoWalletRepo) Get(ownerID string) (*models.Wallet, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var w models.Wallet
	err := repo.walletColl.FindOne(ctx, bson.M{"ownerId": ownerID}).Decode(&w)
	if err == mongo.ErrNoDocuments {
		return &models.Wallet{OwnerID: ownerID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching wallet for %s: %w", ownerID, err)
	}
	return &w, nil
}

// ApplyTransaction runs the balance mutation and the ledger append inside one
// Mongo transaction. The balance guard for debits lives in the update filter,
// so a concurrent debit cannot slip below zero.
func (repo *MongoWalletRepo) ApplyTransaction(ctx context.Context, txn models.WalletTransaction) error {
	client := repo.walletColl.Database().Client()
	sess, err := client.StartSession()
	if err != nil {
		return fmt.Errorf("could not start mongo session: %w", err)
	}
	defer sess.EndSession(ctx)

	delta := txn.Amount
	if txn.Kind == models.TxnDebit {
		delta = -txn.Amount
	}

	txnFn := func(sc mongo.SessionContext) error {
		filter := bson.M{"ownerId": txn.OwnerID}
		opts := options.Update()
		if txn.Kind == models.TxnDebit {
			filter["balance"] = bson.M{"$gte": txn.Amount}
		} else {
			opts.SetUpsert(true)
		}

		res, err := repo.walletColl.UpdateOne(sc, filter, bson.M{
			"$inc": bson.M{"balance": delta},
			"$set": bson.M{"updatedAt": time.Now()},
		}, opts)
		if err != nil {
			return fmt.Errorf("wallet balance update failed: %w", err)
		}
		if txn.Kind == models.TxnDebit && res.MatchedCount == 0 {
			return ErrInsufficientFunds
		}

		if _, err := repo.txnColl.InsertOne(sc, txn); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return ErrDuplicateTransaction
			}
			return fmt.Errorf("wallet transaction insert failed: %w", err)
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
		return sc.CommitTransaction(sc)
	}); err != nil {
		if err == ErrInsufficientFunds || err == ErrDuplicateTransaction {
			return err
		}
		return fmt.Errorf("wallet transaction failed: %w", err)
	}
	return nil
}

// History returns the owner's ledger entries, newest first.
func (repo *MongoWalletRepo) History(ownerID string, limit int64) ([]models.WalletTransaction, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := repo.txnColl.Find(ctx, bson.M{"ownerId": ownerID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error fetching wallet history: %w", err)
	}
	defer cursor.Close(ctx)

	var txns []models.WalletTransaction
	if err := cursor.All(ctx, &txns); err != nil {
		return nil, fmt.Errorf("error decoding wallet history: %w", err)
	}
	return txns, nil
}
