package mongo

import (
	"context"
	"errors"
	"time"

	"github.com/shortloop-dev/shortloop/internal/infrastructure/db"
	"github.com/shortloop-dev/shortloop/internal/shortlink"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LinksRepository is the MongoDB shortlink.LinkStore. The unique index on
// code makes Insert a conditional write; clicks use $inc so concurrent
// resolves never lose updates.
type LinksRepository struct {
	coll *mongo.Collection
}

type linkDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Code         string             `bson:"code"`
	OriginalURL  string             `bson:"originalUrl"`
	CreatedAt    time.Time          `bson:"createdAt"`
	ExpiresAt    time.Time          `bson:"expiresAt"`
	Clicks       int64              `bson:"clicks,omitempty"`
	PasswordHash string             `bson:"passwordHash,omitempty"`
	UserID       string             `bson:"userId,omitempty"`
}

func NewLinksRepository(m *db.Mongo) (*LinksRepository, error) {
	repo := &LinksRepository{coll: m.Collection("links")}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := repo.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_code"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("createdAt_desc"),
		},
	})
	if err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *LinksRepository) Insert(ctx context.Context, link *shortlink.Link) error {
	doc := linkDoc{
		Code:         link.Code,
		OriginalURL:  link.OriginalURL,
		CreatedAt:    link.CreatedAt.UTC(),
		ExpiresAt:    link.ExpiresAt.UTC(),
		PasswordHash: link.PasswordHash,
		UserID:       link.UserID,
	}

	_, err := r.coll.InsertOne(ctx, doc)
	if err == nil {
		return nil
	}

	if mongo.IsDuplicateKeyError(err) {
		return shortlink.ErrCodeTaken
	}

	return err
}

func (r *LinksRepository) FindByCode(ctx context.Context, code string) (*shortlink.Link, error) {
	var doc linkDoc
	err := r.coll.FindOne(ctx, bson.M{"code": code}).Decode(&doc)
	if err == nil {
		return mapLinkDoc(doc), nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shortlink.ErrNotFound
	}

	return nil, err
}

func (r *LinksRepository) IncrementClicks(ctx context.Context, code string, delta int64) error {
	res, err := r.coll.UpdateOne(
		ctx,
		bson.M{"code": code},
		bson.M{"$inc": bson.M{"clicks": delta}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return shortlink.ErrNotFound
	}
	return nil
}

func mapLinkDoc(doc linkDoc) *shortlink.Link {
	return &shortlink.Link{
		Code:         doc.Code,
		OriginalURL:  doc.OriginalURL,
		CreatedAt:    doc.CreatedAt,
		ExpiresAt:    doc.ExpiresAt,
		Clicks:       doc.Clicks,
		PasswordHash: doc.PasswordHash,
		UserID:       doc.UserID,
	}
}
