package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	countersCollection = "counters"
	patientCodeCounter = "patient_code_seq"
)

// CodeSequence hands out patient code numbers from a counter document. The
// $inc is atomic, so concurrent callers never see the same value.
type CodeSequence struct {
	col *mongo.Collection
	key string
}

func NewCodeSequence(db *mongo.Database) *CodeSequence {
	return &CodeSequence{col: db.Collection(countersCollection), key: patientCodeCounter}
}

type counterDocument struct {
	ID  string `bson:"_id"`
	Seq int64  `bson:"seq"`
}

func (s *CodeSequence) Next(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var doc counterDocument
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": s.key},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next patient code: %w", err)
	}
	return doc.Seq, nil
}
