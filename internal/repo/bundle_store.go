package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"formfill/internal/models"
)

type BundleStore struct{ db *gorm.DB }

func NewBundleStore(db *gorm.DB) *BundleStore { return &BundleStore{db: db} }

func (s *BundleStore) Create(ctx context.Context, name string, filenames []string) (*models.FormBundle, error) {
	ids, err := idsByFilename(ctx, s.db, filenames)
	if err != nil {
		return nil, err
	}
	taken, err := s.nameTaken(ctx, name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		name = BundleCollisionName(name)
	}

	b := &models.FormBundle{
		ID:         uuid.NewString(),
		BundleName: name,
		Forms:      datatypes.NewJSONSlice(ids),
	}
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		return nil, fmt.Errorf("create bundle %s: %w", name, err)
	}
	return b, nil
}

func (s *BundleStore) Update(ctx context.Context, id, name string, filenames []string) (*models.FormBundle, error) {
	var b models.FormBundle
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("bundle %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get bundle %s: %w", id, err)
	}

	taken, err := s.nameTaken(ctx, name, id)
	if err != nil {
		return nil, err
	}
	if taken {
		name = BundleCollisionName(name)
	}
	ids, err := idsByFilename(ctx, s.db, filenames)
	if err != nil {
		return nil, err
	}

	b.BundleName = name
	b.Forms = datatypes.NewJSONSlice(ids)
	if err := s.db.WithContext(ctx).Save(&b).Error; err != nil {
		return nil, fmt.Errorf("update bundle %s: %w", id, err)
	}
	return &b, nil
}

func (s *BundleStore) List(ctx context.Context) ([]models.BundleView, error) {
	var bundles []models.FormBundle
	if err := s.db.WithContext(ctx).Order("bundle_name asc").Find(&bundles).Error; err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}

	seen := map[string]bool{}
	var ids []string
	for _, b := range bundles {
		for _, id := range b.Forms {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	var tpls []models.FormTemplate
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&tpls).Error; err != nil {
			return nil, fmt.Errorf("join bundle templates: %w", err)
		}
	}

	out := make([]models.BundleView, 0, len(bundles))
	for _, b := range bundles {
		out = append(out, models.BundleView{
			ID:         b.ID,
			BundleName: b.BundleName,
			Forms:      ResolveForms(b.Forms, tpls),
		})
	}
	return out, nil
}

func (s *BundleStore) Delete(ctx context.Context, name string) error {
	res := s.db.WithContext(ctx).Where("bundle_name = ?", name).Delete(&models.FormBundle{})
	if res.Error != nil {
		return fmt.Errorf("delete bundle %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("bundle %s: %w", name, ErrNotFound)
	}
	return nil
}

// nameTaken - есть ли другой набор (не exceptID) с таким именем.
func (s *BundleStore) nameTaken(ctx context.Context, name, exceptID string) (bool, error) {
	q := s.db.WithContext(ctx).Model(&models.FormBundle{}).Where("bundle_name = ?", name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, fmt.Errorf("check bundle name %s: %w", name, err)
	}
	return n > 0, nil
}
