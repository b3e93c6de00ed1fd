package lmsuser

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	userTypes "github.com/learnhub-io/lms-backend/pkg/user-management/types"
)

func (dbService *UserDBService) CreateIndexForUsers() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionUsers().Indexes().CreateMany(
		ctx, []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "account.username", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "account.email", Value: 1},
				},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys: bson.D{
					{Key: "refreshSessions.tokenHash", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "timestamps.createdAt", Value: 1},
				},
			},
		},
	)
	return err
}

func (dbService *UserDBService) CreateDefaultIndexes() error {
	return dbService.CreateIndexForUsers()
}

func (dbService *UserDBService) CreateUser(user userTypes.User) (string, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	res, err := dbService.collectionUsers().InsertOne(ctx, user)
	if err != nil {
		return "", err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("unexpected inserted id type")
	}
	return id.Hex(), nil
}

func (dbService *UserDBService) GetUserByID(id string) (userTypes.User, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return userTypes.User{}, err
	}

	var user userTypes.User
	err = dbService.collectionUsers().FindOne(ctx, bson.M{"_id": _id}).Decode(&user)
	return user, err
}

func (dbService *UserDBService) GetUserByEmail(email string) (userTypes.User, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	var user userTypes.User
	err := dbService.collectionUsers().FindOne(ctx, bson.M{"account.email": email}).Decode(&user)
	return user, err
}

func (dbService *UserDBService) GetUserByUsernameOrEmail(identifier string) (userTypes.User, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"account.username": identifier},
		bson.M{"account.email": identifier},
	}}
	var user userTypes.User
	err := dbService.collectionUsers().FindOne(ctx, filter).Decode(&user)
	return user, err
}

func (dbService *UserDBService) GetUsersByEmailOrUsername(email string, username string) ([]userTypes.User, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"$or": bson.A{
		bson.M{"account.email": email},
		bson.M{"account.username": username},
	}}
	cursor, err := dbService.collectionUsers().Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []userTypes.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (dbService *UserDBService) DeleteUser(id string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	res, err := dbService.collectionUsers().DeleteOne(ctx, bson.M{"_id": _id})
	if err != nil {
		return err
	}
	if res.DeletedCount < 1 {
		return errors.New("no user found with the given id")
	}
	return nil
}

func (dbService *UserDBService) SetVerificationCode(userID string, code userTypes.VerificationCode) error {
	return dbService.updateUserByID(userID, bson.M{
		"$set": bson.M{
			"account.verificationCode": code,
		},
	})
}

func (dbService *UserDBService) ConfirmAccount(userID string, confirmedAt int64) error {
	return dbService.updateUserByID(userID, bson.M{
		"$set": bson.M{
			"account.accountConfirmedAt": confirmedAt,
			"account.verificationCode":   userTypes.VerificationCode{},
			"timestamps.updatedAt":       confirmedAt,
		},
	})
}

func (dbService *UserDBService) AddRefreshSession(userID string, session userTypes.RefreshSession) error {
	// bounded push: only the most recent entries are kept, oldest evicted
	return dbService.updateUserByID(userID, bson.M{
		"$push": bson.M{
			"refreshSessions": bson.M{
				"$each":  bson.A{session},
				"$slice": -userTypes.MAX_REFRESH_SESSIONS,
			},
		},
		"$set": bson.M{
			"timestamps.lastLogin": session.CreatedAt,
		},
	})
}

// RotateRefreshSession swaps tokenHash and expiresAt of the matched session
// entry in place. The filter conditions on the old hash still being present,
// so a lost race against a concurrent rotation reports matched=false instead
// of silently overwriting.
func (dbService *UserDBService) RotateRefreshSession(userID string, oldTokenHash string, newTokenHash string, newExpiresAt int64, refreshedAt int64) (bool, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, err
	}

	filter := bson.M{
		"_id":                       _id,
		"refreshSessions.tokenHash": oldTokenHash,
	}
	update := bson.M{
		"$set": bson.M{
			"refreshSessions.$.tokenHash": newTokenHash,
			"refreshSessions.$.expiresAt": newExpiresAt,
			"timestamps.lastTokenRefresh": refreshedAt,
		},
	}
	res, err := dbService.collectionUsers().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (dbService *UserDBService) RemoveRefreshSession(userID string, tokenHash string) error {
	return dbService.updateUserByID(userID, bson.M{
		"$pull": bson.M{
			"refreshSessions": bson.M{"tokenHash": tokenHash},
		},
	})
}

func (dbService *UserDBService) ClearRefreshSessions(userID string) error {
	return dbService.updateUserByID(userID, bson.M{
		"$set": bson.M{
			"refreshSessions": bson.A{},
		},
	})
}

func (dbService *UserDBService) SetPasswordResetToken(userID string, tokenHash string, expiresAt int64) error {
	return dbService.updateUserByID(userID, bson.M{
		"$set": bson.M{
			"account.passwordReset.tokenHash": tokenHash,
			"account.passwordReset.expiresAt": expiresAt,
		},
	})
}

func (dbService *UserDBService) ClearPasswordResetToken(userID string) error {
	return dbService.updateUserByID(userID, bson.M{
		"$set": bson.M{
			"account.passwordReset.tokenHash": "",
			"account.passwordReset.expiresAt": 0,
		},
	})
}

func (dbService *UserDBService) GetUserByEmailWithActiveReset(email string, now int64) (userTypes.User, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"account.email":                   email,
		"account.passwordReset.tokenHash": bson.M{"$ne": ""},
		"account.passwordReset.expiresAt": bson.M{"$gt": now},
	}
	var user userTypes.User
	err := dbService.collectionUsers().FindOne(ctx, filter).Decode(&user)
	return user, err
}

// IncrementResetAttempts bumps the failed attempt counter only while no lock
// is active. ErrNoDocuments from the guarded update means the account is
// currently locked, reported as matched=false.
func (dbService *UserDBService) IncrementResetAttempts(userID string, now int64) (userTypes.User, bool, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return userTypes.User{}, false, err
	}

	filter := bson.M{
		"_id": _id,
		"$or": bson.A{
			bson.M{"account.passwordReset.lockedUntil": bson.M{"$exists": false}},
			bson.M{"account.passwordReset.lockedUntil": bson.M{"$lte": now}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"account.passwordReset.attempts": 1},
	}

	var user userTypes.User
	err = dbService.collectionUsers().FindOneAndUpdate(
		ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return userTypes.User{}, false, nil
		}
		return userTypes.User{}, false, err
	}
	return user, true, nil
}

func (dbService *UserDBService) LockAccount(userID string, until int64) error {
	return dbService.updateUserByID(userID, bson.M{
		"$set": bson.M{
			"account.passwordReset.lockedUntil": until,
			"account.passwordReset.attempts":    0,
		},
	})
}

// CompletePasswordReset performs the entire success path of a reset in one
// conditional update: new password hash, all sessions wiped, reset state and
// lock cleared. The precondition on tokenHash and expiry guards against a
// concurrent reset having consumed the same token.
func (dbService *UserDBService) CompletePasswordReset(userID string, expectedTokenHash string, newPasswordHash string, now int64) (bool, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return false, err
	}

	filter := bson.M{
		"_id":                             _id,
		"account.passwordReset.tokenHash": expectedTokenHash,
		"account.passwordReset.expiresAt": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"account.password":              newPasswordHash,
			"account.passwordReset":         userTypes.PasswordReset{},
			"refreshSessions":               bson.A{},
			"timestamps.lastPasswordChange": now,
			"timestamps.updatedAt":          now,
		},
	}
	res, err := dbService.collectionUsers().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

func (dbService *UserDBService) updateUserByID(userID string, update bson.M) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return err
	}
	res, err := dbService.collectionUsers().UpdateOne(ctx, bson.M{"_id": _id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return errors.New("no user found with the given id")
	}
	return nil
}
