// Package repo описывает хранилища шаблонов и наборов и содержит их реализацию на gorm.
// Реализация для MongoDB лежит в internal/mongostore и подчиняется тем же контрактам.
package repo

import (
	"context"
	"errors"

	"formfill/internal/models"
)

var (
	// ErrNotFound - шаблон или набор не найден.
	ErrNotFound = errors.New("not found")
	// ErrUnknownTemplate - набор ссылается на имя файла, которого нет в хранилище.
	ErrUnknownTemplate = errors.New("unknown template")
)

// Templates - хранилище шаблонов.
type Templates interface {
	// Create сохраняет шаблон и проставляет ему ID.
	Create(ctx context.Context, t *models.FormTemplate) error
	Get(ctx context.Context, filename string) (*models.FormTemplate, error)
	List(ctx context.Context) ([]models.FormTemplate, error)
	Exists(ctx context.Context, filename string) (bool, error)
	// Update переименовывает шаблон filename и меняет описание/категорию.
	// Возвращает фактическое новое имя (с суффиксом _1 при коллизии).
	Update(ctx context.Context, filename, newFilename, description, category string) (string, error)
	UpdateFieldMap(ctx context.Context, filename string, fields map[string]string) error
	// TouchUsage: last_used=now, times_used++.
	TouchUsage(ctx context.Context, filename string) error
	Delete(ctx context.Context, filename string) error
}

// Bundles - хранилище наборов.
type Bundles interface {
	// Create и Update ничего не пишут, если хоть одно имя файла не найдено.
	Create(ctx context.Context, name string, filenames []string) (*models.FormBundle, error)
	Update(ctx context.Context, id, name string, filenames []string) (*models.FormBundle, error)
	// List отдаёт наборы с развёрнутыми шаблонами; ссылки на удалённые шаблоны пропускаются.
	List(ctx context.Context) ([]models.BundleView, error)
	Delete(ctx context.Context, name string) error
}
