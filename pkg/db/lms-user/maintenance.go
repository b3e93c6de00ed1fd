package lmsuser

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/learnhub-io/lms-backend/pkg/db"
)

// DeleteUnverifiedUsers removes accounts that never confirmed their email
// address and were created before the given timestamp.
func (dbService *UserDBService) DeleteUnverifiedUsers(createdBefore int64) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"account.accountConfirmedAt": 0,
		"timestamps.createdAt":       bson.M{"$lt": createdBefore},
	}
	res, err := dbService.collectionUsers().DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// RemoveExpiredRefreshSessions pulls session entries that expired before the
// given timestamp from all users. Returns the number of users affected.
func (dbService *UserDBService) RemoveExpiredRefreshSessions(before int64) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	update := bson.M{
		"$pull": bson.M{
			"refreshSessions": bson.M{"expiresAt": bson.M{"$lt": before}},
		},
	}
	res, err := dbService.collectionUsers().UpdateMany(ctx, bson.M{}, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (dbService *UserDBService) DropIndexForUsers() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionUsers().Indexes().DropAll(ctx)
	return err
}

func (dbService *UserDBService) ListIndexesForUsers() ([]bson.M, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	return db.ListCollectionIndexes(ctx, dbService.collectionUsers())
}
