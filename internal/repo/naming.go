package repo

import (
	"path"
	"regexp"
	"strings"

	"formfill/internal/models"
)

var filenameSeparators = regexp.MustCompile(`[\s+]`)

// SanitizeFilename: trim, пробельные символы и '+' -> '_'.
// '+' - разделитель имён в пути заполнения, поэтому в именах его быть не может.
func SanitizeFilename(name string) string {
	return filenameSeparators.ReplaceAllString(strings.TrimSpace(name), "_")
}

// CollisionName - имя шаблона при коллизии: form.pdf -> form_1.pdf.
// Правило применяется один раз и только к запрошенному имени.
func CollisionName(filename string) string {
	stem := strings.TrimSuffix(filename, path.Ext(filename))
	return stem + "_1.pdf"
}

// BundleCollisionName - имя набора при коллизии.
func BundleCollisionName(name string) string {
	return name + "_1"
}

// ResolveForms раскладывает найденные шаблоны в порядке ids.
// Повторы сохраняются, отсутствующие (удалённые) шаблоны пропускаются.
func ResolveForms(ids []string, found []models.FormTemplate) []models.FormTemplate {
	byID := make(map[string]models.FormTemplate, len(found))
	for _, t := range found {
		byID[t.ID] = t
	}
	out := make([]models.FormTemplate, 0, len(ids))
	for _, id := range ids {
		if t, ok := byID[id]; ok {
			out = append(out, t)
		}
	}
	return out
}
