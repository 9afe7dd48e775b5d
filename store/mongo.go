package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoCollection implements Collection on a MongoDB collection.
type MongoCollection struct {
	coll *mongo.Collection
}

func NewMongoCollection(coll *mongo.Collection) *MongoCollection {
	return &MongoCollection{coll: coll}
}

func (m *MongoCollection) Name() string {
	return m.coll.Name()
}

func (m *MongoCollection) Insert(ctx context.Context, doc any) (primitive.ObjectID, error) {
	res, err := m.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, ErrDuplicateKey
		}
		return primitive.NilObjectID, err
	}

	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("%s: inserted id has type %T", m.Name(), res.InsertedID)
	}
	return id, nil
}

func (m *MongoCollection) FindByID(ctx context.Context, id primitive.ObjectID, out any) error {
	return m.FindOne(ctx, Filter{"_id": id}, out)
}

func (m *MongoCollection) FindOne(ctx context.Context, filter Filter, out any) error {
	err := m.coll.FindOne(ctx, bson.M(filter)).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (m *MongoCollection) FindMany(ctx context.Context, filter Filter, opts FindOptions, out any) error {
	findOptions := options.Find()
	if len(opts.Sort) > 0 {
		sort := bson.D{}
		for _, s := range opts.Sort {
			dir := 1
			if s.Descending {
				dir = -1
			}
			sort = append(sort, bson.E{Key: s.Field, Value: dir})
		}
		findOptions.SetSort(sort)
	}
	if opts.Skip > 0 {
		findOptions.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOptions.SetLimit(opts.Limit)
	}

	cursor, err := m.coll.Find(ctx, bson.M(filter), findOptions)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	return cursor.All(ctx, out)
}

func (m *MongoCollection) UpdateByID(ctx context.Context, id primitive.ObjectID, fields any, opts UpdateOptions, out any) error {
	var res *mongo.SingleResult
	if opts.Override {
		replaceOptions := options.FindOneAndReplace().
			SetReturnDocument(options.After).
			SetUpsert(opts.Upsert)
		res = m.coll.FindOneAndReplace(ctx, bson.M{"_id": id}, fields, replaceOptions)
	} else {
		updateOptions := options.FindOneAndUpdate().
			SetReturnDocument(options.After).
			SetUpsert(opts.Upsert)
		res = m.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, updateOptions)
	}

	var err error
	if out != nil {
		err = res.Decode(out)
	} else {
		err = res.Err()
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}

func (m *MongoCollection) DeleteByID(ctx context.Context, id primitive.ObjectID) error {
	res, err := m.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoCollection) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	res, err := m.coll.DeleteMany(ctx, bson.M(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (m *MongoCollection) Count(ctx context.Context, filter Filter) (int64, error) {
	return m.coll.CountDocuments(ctx, bson.M(filter))
}
