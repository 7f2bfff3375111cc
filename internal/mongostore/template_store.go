package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"formfill/internal/models"
	"formfill/internal/repo"
)

type TemplateStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewTemplateStore(db *mongo.Database) *TemplateStore {
	return &TemplateStore{coll: db.Collection(templatesCollection), now: time.Now}
}

func (s *TemplateStore) Create(ctx context.Context, t *models.FormTemplate) error {
	doc := newTemplateDocument(t)
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("create template %s: %w", t.Filename, err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		t.ID = oid.Hex()
	}
	return nil
}

func (s *TemplateStore) Get(ctx context.Context, filename string) (*models.FormTemplate, error) {
	var doc templateDocument
	err := s.coll.FindOne(ctx, bson.M{"filename": filename}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("template %s: %w", filename, repo.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", filename, err)
	}
	t := doc.toModel()
	return &t, nil
}

func (s *TemplateStore) List(ctx context.Context) ([]models.FormTemplate, error) {
	return s.find(ctx, bson.M{})
}

func (s *TemplateStore) find(ctx context.Context, filter any) ([]models.FormTemplate, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "filename", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find templates: %w", err)
	}
	var docs []templateDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode templates: %w", err)
	}
	out := make([]models.FormTemplate, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

func (s *TemplateStore) Exists(ctx context.Context, filename string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.M{"filename": filename}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check template %s: %w", filename, err)
	}
	return n > 0, nil
}

func (s *TemplateStore) Update(ctx context.Context, filename, newFilename, description, category string) (string, error) {
	target := newFilename
	if newFilename != filename {
		taken, err := s.Exists(ctx, newFilename)
		if err != nil {
			return "", err
		}
		if taken {
			target = repo.CollisionName(newFilename)
		}
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"filename": filename}, bson.M{"$set": bson.M{
		"filename":      target,
		"description":   description,
		"form_category": category,
	}})
	if err != nil {
		return "", fmt.Errorf("update template %s: %w", filename, err)
	}
	if res.MatchedCount == 0 {
		return "", fmt.Errorf("template %s: %w", filename, repo.ErrNotFound)
	}
	return target, nil
}

func (s *TemplateStore) UpdateFieldMap(ctx context.Context, filename string, fields map[string]string) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"filename": filename},
		bson.M{"$set": bson.M{"field_json": fields}})
	if err != nil {
		return fmt.Errorf("update fields of %s: %w", filename, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("template %s: %w", filename, repo.ErrNotFound)
	}
	return nil
}

func (s *TemplateStore) TouchUsage(ctx context.Context, filename string) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"filename": filename}, bson.M{
		"$set": bson.M{"last_used": s.now().UTC()},
		"$inc": bson.M{"times_used": 1},
	})
	if err != nil {
		return fmt.Errorf("touch template %s: %w", filename, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("template %s: %w", filename, repo.ErrNotFound)
	}
	return nil
}

func (s *TemplateStore) Delete(ctx context.Context, filename string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"filename": filename})
	if err != nil {
		return fmt.Errorf("delete template %s: %w", filename, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("template %s: %w", filename, repo.ErrNotFound)
	}
	return nil
}

// objectIDs резолвит имена файлов в _id по порядку.
func (s *TemplateStore) objectIDs(ctx context.Context, filenames []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(filenames))
	for _, fn := range filenames {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		err := s.coll.FindOne(ctx, bson.M{"filename": fn},
			options.FindOne().SetProjection(bson.M{"_id": 1})).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("template %s: %w", fn, repo.ErrUnknownTemplate)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve template %s: %w", fn, err)
		}
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

var _ repo.Templates = (*TemplateStore)(nil)
