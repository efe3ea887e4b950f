package mongo

import (
	"context"
	"time"

	"github.com/shortloop-dev/shortloop/internal/infrastructure/db"
	"github.com/shortloop-dev/shortloop/internal/shortlink"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClickStatsRepository keeps per-day click aggregates in clicks_daily,
// written by the click consumer.
type ClickStatsRepository struct {
	coll *mongo.Collection
}

type clickDailyDoc struct {
	Code  string `bson:"code"`
	Date  string `bson:"date"` // YYYY-MM-DD (UTC)
	Count int64  `bson:"count"`
}

func NewClickStatsRepository(m *db.Mongo) (*ClickStatsRepository, error) {
	repo := &ClickStatsRepository{coll: m.Collection("clicks_daily")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_code_date"),
		},
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *ClickStatsRepository) IncDaily(ctx context.Context, code string, at time.Time) error {
	date := at.UTC().Format(time.DateOnly)

	_, err := r.coll.UpdateOne(
		ctx,
		bson.M{"code": code, "date": date},
		bson.M{
			"$inc": bson.M{"count": 1},
			"$setOnInsert": bson.M{
				"code": code,
				"date": date,
			},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *ClickStatsRepository) GetDaily(ctx context.Context, code string, from, to time.Time) ([]shortlink.DailyCount, error) {
	cur, err := r.coll.Find(
		ctx,
		bson.M{
			"code": code,
			"date": bson.M{
				"$gte": from.UTC().Format(time.DateOnly),
				"$lte": to.UTC().Format(time.DateOnly),
			},
		},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []shortlink.DailyCount
	for cur.Next(ctx) {
		var doc clickDailyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, shortlink.DailyCount{Date: doc.Date, Count: doc.Count})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
