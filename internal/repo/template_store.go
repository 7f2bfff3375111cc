package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"formfill/internal/models"
)

type TemplateStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewTemplateStore(db *gorm.DB) *TemplateStore {
	return &TemplateStore{db: db, now: time.Now}
}

func (s *TemplateStore) Create(ctx context.Context, t *models.FormTemplate) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(t).Error; err != nil {
		return fmt.Errorf("create template %s: %w", t.Filename, err)
	}
	return nil
}

func (s *TemplateStore) Get(ctx context.Context, filename string) (*models.FormTemplate, error) {
	var t models.FormTemplate
	err := s.db.WithContext(ctx).Where("filename = ?", filename).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("template %s: %w", filename, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template %s: %w", filename, err)
	}
	return &t, nil
}

func (s *TemplateStore) List(ctx context.Context) ([]models.FormTemplate, error) {
	var tpls []models.FormTemplate
	if err := s.db.WithContext(ctx).Order("filename asc").Find(&tpls).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return tpls, nil
}

func (s *TemplateStore) Exists(ctx context.Context, filename string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.FormTemplate{}).
		Where("filename = ?", filename).Limit(1).Count(&n).Error
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
			target = CollisionName(newFilename)
		}
	}

	res := s.db.WithContext(ctx).Model(&models.FormTemplate{}).
		Where("filename = ?", filename).
		Updates(map[string]any{
			"filename":      target,
			"description":   description,
			"form_category": category,
		})
	if res.Error != nil {
		return "", fmt.Errorf("update template %s: %w", filename, res.Error)
	}
	if res.RowsAffected == 0 {
		return "", fmt.Errorf("template %s: %w", filename, ErrNotFound)
	}
	return target, nil
}

func (s *TemplateStore) UpdateFieldMap(ctx context.Context, filename string, fields map[string]string) error {
	res := s.db.WithContext(ctx).Model(&models.FormTemplate{}).
		Where("filename = ?", filename).
		Update("field_json", models.NewFieldJSON(fields))
	if res.Error != nil {
		return fmt.Errorf("update fields of %s: %w", filename, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("template %s: %w", filename, ErrNotFound)
	}
	return nil
}

// TouchUsage - одно UPDATE с инкрементом на стороне БД; при гонке за один файл побеждает последний.
func (s *TemplateStore) TouchUsage(ctx context.Context, filename string) error {
	res := s.db.WithContext(ctx).Model(&models.FormTemplate{}).
		Where("filename = ?", filename).
		Updates(map[string]any{
			"last_used":  s.now().UTC(),
			"times_used": gorm.Expr("times_used + ?", 1),
		})
	if res.Error != nil {
		return fmt.Errorf("touch template %s: %w", filename, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("template %s: %w", filename, ErrNotFound)
	}
	return nil
}

// Delete не трогает наборы: висячие ссылки отбрасываются при чтении наборов.
func (s *TemplateStore) Delete(ctx context.Context, filename string) error {
	res := s.db.WithContext(ctx).Where("filename = ?", filename).Delete(&models.FormTemplate{})
	if res.Error != nil {
		return fmt.Errorf("delete template %s: %w", filename, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("template %s: %w", filename, ErrNotFound)
	}
	return nil
}

// idsByFilename резолвит имена в ID по порядку; первое неизвестное имя - ErrUnknownTemplate.
func idsByFilename(ctx context.Context, db *gorm.DB, filenames []string) ([]string, error) {
	ids := make([]string, 0, len(filenames))
	for _, fn := range filenames {
		var t models.FormTemplate
		err := db.WithContext(ctx).Select("id").Where("filename = ?", fn).First(&t).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template %s: %w", fn, ErrUnknownTemplate)
		}
		if err != nil {
			return nil, fmt.Errorf("resolve template %s: %w", fn, err)
		}
		ids = append(ids, t.ID)
	}
	return ids, nil
}
