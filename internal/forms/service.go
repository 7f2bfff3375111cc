// Package forms связывает хранилища шаблонов и наборов, CRM и заполнение PDF.
package forms

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/sirupsen/logrus"

	"formfill/internal/autofill"
	"formfill/internal/logs"
	"formfill/internal/models"
	"formfill/internal/pdfform"
	"formfill/internal/redtail"
	"formfill/internal/repo"
)

// ErrEmptyFilename - после нормализации от имени файла ничего не осталось.
var ErrEmptyFilename = errors.New("empty filename")

// Gatherer собирает запись CRM по email (redtail.Client).
type Gatherer interface {
	Gather(ctx context.Context, email string) (redtail.Record, error)
}

type Service struct {
	templates repo.Templates
	bundles   repo.Bundles
	crm       Gatherer
	text      *bluemonday.Policy
	now       func() time.Time
}

func New(templates repo.Templates, bundles repo.Bundles, crm Gatherer) *Service {
	return &Service{
		templates: templates,
		bundles:   bundles,
		crm:       crm,
		text:      bluemonday.StrictPolicy(),
		now:       time.Now,
	}
}

// ---------- Templates ----------

// UploadTemplate сохраняет новый шаблон. Имя нормализуется, при коллизии получает суффикс _1.
// Схема полей - все текстовые поля документа с пустым ключом.
func (s *Service) UploadTemplate(ctx context.Context, name string, pdf []byte) (*models.FormTemplate, error) {
	filename := repo.SanitizeFilename(name)
	if filename == "" {
		return nil, ErrEmptyFilename
	}
	exists, err := s.templates.Exists(ctx, filename)
	if err != nil {
		return nil, err
	}
	if exists {
		logs.Logger.WithField("filename", filename).Info("template exists, renaming upload")
		filename = repo.CollisionName(filename)
	}

	names, err := pdfform.TextFields(pdf)
	if err != nil {
		return nil, fmt.Errorf("read fields of %s: %w", filename, err)
	}
	fields := make(map[string]string, len(names))
	for _, n := range names {
		fields[n] = ""
	}

	t := &models.FormTemplate{
		Filename:  filename,
		PDFBase64: base64.StdEncoding.EncodeToString(pdf),
		FieldJSON: models.NewFieldJSON(fields),
		LastUsed:  s.now(),
		TimesUsed: 0,
	}
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}
	logs.Logger.WithFields(logrus.Fields{"filename": filename, "fields": len(fields)}).Info("template uploaded")
	return t, nil
}

// Templates - все шаблоны; ошибка чтения логируется, возвращается пустой список.
func (s *Service) Templates(ctx context.Context) []models.FormTemplate {
	tpls, err := s.templates.List(ctx)
	if err != nil {
		logs.Logger.WithError(err).Error("list templates")
		return []models.FormTemplate{}
	}
	if tpls == nil {
		tpls = []models.FormTemplate{}
	}
	return tpls
}

func (s *Service) Template(ctx context.Context, filename string) (*models.FormTemplate, error) {
	return s.templates.Get(ctx, filename)
}

// RenameTemplate меняет имя, описание и категорию. Возвращает фактическое имя.
// Описание и категория - простой текст: теги срезаются, остальное хранится как есть.
func (s *Service) RenameTemplate(ctx context.Context, oldName, newName, description, category string) (string, error) {
	if newName == "" {
		newName = oldName
	}
	return s.templates.Update(ctx, oldName, newName,
		s.plainText(description), s.plainText(category))
}

// plainText срезает разметку. bluemonday экранирует результат, поэтому
// сущности раскрываются обратно, иначе каждое сохранение экранировало бы текст заново.
func (s *Service) plainText(v string) string {
	return html.UnescapeString(s.text.Sanitize(v))
}

func (s *Service) SetFieldMap(ctx context.Context, filename string, fields map[string]string) error {
	if fields == nil {
		fields = map[string]string{}
	}
	return s.templates.UpdateFieldMap(ctx, filename, fields)
}

// DeleteTemplate не трогает наборы: ссылки на удалённый шаблон пропускаются при чтении.
func (s *Service) DeleteTemplate(ctx context.Context, filename string) error {
	return s.templates.Delete(ctx, filename)
}

// ---------- Bundles ----------

// BundleRequest - тело POST /bundles.
type BundleRequest struct {
	Name      string   `json:"bundle_name"`
	Filenames []string `json:"filenames"`
	ID        string   `json:"bundleId"`
	Editing   bool     `json:"isEditing"`
}

func (s *Service) SaveBundle(ctx context.Context, req BundleRequest) (*models.FormBundle, error) {
	if req.Editing {
		return s.bundles.Update(ctx, req.ID, req.Name, req.Filenames)
	}
	return s.bundles.Create(ctx, req.Name, req.Filenames)
}

// Bundles - наборы с развёрнутыми шаблонами; при ошибке пустой список.
func (s *Service) Bundles(ctx context.Context) []models.BundleView {
	bundles, err := s.bundles.List(ctx)
	if err != nil {
		logs.Logger.WithError(err).Error("list bundles")
		return []models.BundleView{}
	}
	if bundles == nil {
		bundles = []models.BundleView{}
	}
	return bundles
}

func (s *Service) DeleteBundle(ctx context.Context, name string) error {
	return s.bundles.Delete(ctx, name)
}

// ---------- Fill ----------

func (s *Service) Client(ctx context.Context, email string) (redtail.Record, error) {
	return s.crm.Gather(ctx, email)
}

// FillResult - данные страницы заполнения. Filled идёт в порядке запроса.
type FillResult struct {
	Templates []models.FormTemplate
	Client    redtail.Record
	Filled    [][]byte
}

// Fill собирает запись CRM и заполняет шаблоны в порядке filenames.
// Счётчик использования увеличивается до чтения шаблона; отсутствующий шаблон - ошибка.
func (s *Service) Fill(ctx context.Context, filenames []string, email string) (*FillResult, error) {
	rec, err := s.crm.Gather(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("gather %s: %w", email, err)
	}
	res := &FillResult{
		Templates: make([]models.FormTemplate, 0, len(filenames)),
		Client:    rec,
		Filled:    make([][]byte, 0, len(filenames)),
	}
	for _, filename := range filenames {
		log := logs.Logger.WithFields(logrus.Fields{"filename": filename, "email": email})
		if err := s.templates.TouchUsage(ctx, filename); err != nil {
			log.WithError(err).Warn("touch usage")
		}
		t, err := s.templates.Get(ctx, filename)
		if err != nil {
			return nil, err
		}
		pdf, err := base64.StdEncoding.DecodeString(t.PDFBase64)
		if err != nil {
			return nil, fmt.Errorf("decode template %s: %w", filename, pdfform.ErrInvalidPDF)
		}
		values := autofill.Resolve(rec, t.FieldMap())
		filled, err := pdfform.Fill(pdf, values)
		if err != nil {
			return nil, fmt.Errorf("fill template %s: %w", filename, err)
		}
		log.WithField("fields", len(values)).Debug("template filled")
		res.Templates = append(res.Templates, *t)
		res.Filled = append(res.Filled, filled)
	}
	return res, nil
}
