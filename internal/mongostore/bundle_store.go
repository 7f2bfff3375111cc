package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"formfill/internal/models"
	"formfill/internal/repo"
)

type BundleStore struct {
	coll      *mongo.Collection
	templates *TemplateStore
}

func NewBundleStore(db *mongo.Database, templates *TemplateStore) *BundleStore {
	return &BundleStore{coll: db.Collection(bundlesCollection), templates: templates}
}

func (s *BundleStore) Create(ctx context.Context, name string, filenames []string) (*models.FormBundle, error) {
	ids, err := s.templates.objectIDs(ctx, filenames)
	if err != nil {
		return nil, err
	}
	taken, err := s.nameTaken(ctx, name, primitive.NilObjectID)
	if err != nil {
		return nil, err
	}
	if taken {
		name = repo.BundleCollisionName(name)
	}

	doc := bundleDocument{BundleName: name, Forms: ids}
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("create bundle %s: %w", name, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toModel(), nil
}

func (s *BundleStore) Update(ctx context.Context, id, name string, filenames []string) (*models.FormBundle, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", id, repo.ErrNotFound)
	}
	taken, err := s.nameTaken(ctx, name, oid)
	if err != nil {
		return nil, err
	}
	if taken {
		name = repo.BundleCollisionName(name)
	}
	ids, err := s.templates.objectIDs(ctx, filenames)
	if err != nil {
		return nil, err
	}

	var doc bundleDocument
	err = s.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid},
		bson.M{"$set": bson.M{"bundle_name": name, "forms": ids}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("bundle %s: %w", id, repo.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("update bundle %s: %w", id, err)
	}
	return doc.toModel(), nil
}

// List делает join в приложении: $lookup по массиву теряет порядок и повторы.
func (s *BundleStore) List(ctx context.Context) ([]models.BundleView, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "bundle_name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find bundles: %w", err)
	}
	var docs []bundleDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode bundles: %w", err)
	}

	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	for _, d := range docs {
		for _, id := range d.Forms {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	var tpls []models.FormTemplate
	if len(ids) > 0 {
		tpls, err = s.templates.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, fmt.Errorf("join bundle templates: %w", err)
		}
	}

	out := make([]models.BundleView, 0, len(docs))
	for _, d := range docs {
		out = append(out, models.BundleView{
			ID:         d.ID.Hex(),
			BundleName: d.BundleName,
			Forms:      repo.ResolveForms(hexIDs(d.Forms), tpls),
		})
	}
	return out, nil
}

func (s *BundleStore) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"bundle_name": name})
	if err != nil {
		return fmt.Errorf("delete bundle %s: %w", name, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("bundle %s: %w", name, repo.ErrNotFound)
	}
	return nil
}

func (s *BundleStore) nameTaken(ctx context.Context, name string, except primitive.ObjectID) (bool, error) {
	filter := bson.M{"bundle_name": name}
	if !except.IsZero() {
		filter["_id"] = bson.M{"$ne": except}
	}
	n, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check bundle name %s: %w", name, err)
	}
	return n > 0, nil
}

var _ repo.Bundles = (*BundleStore)(nil)
