package models

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// FormTemplate - сохранённый PDF + схема текстовых полей + статистика использования.
// FieldJSON: имя поля PDF -> ключ CRM (или пустая строка).
type FormTemplate struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	Filename     string            `gorm:"column:filename;uniqueIndex;size:255;not null" json:"filename"`
	PDFBase64    string            `gorm:"column:pdf_base64;type:text;not null" json:"pdf_base64"`
	FieldJSON    datatypes.JSONMap `gorm:"column:field_json" json:"field_json"`
	Description  string            `gorm:"column:description" json:"description"`
	FormCategory string            `gorm:"column:form_category" json:"form_category"`
	LastUsed     time.Time         `gorm:"column:last_used;not null" json:"last_used"`
	TimesUsed    int               `gorm:"column:times_used;not null;default:0" json:"times_used"`
}

// FieldMap возвращает FieldJSON как map[string]string. Нестроковые значения
// (старые записи, ручные правки) превращаются в пустой ключ.
func (t *FormTemplate) FieldMap() map[string]string {
	out := make(map[string]string, len(t.FieldJSON))
	for name, v := range t.FieldJSON {
		s, ok := v.(string)
		if !ok {
			s = ""
		}
		out[name] = s
	}
	return out
}

// NewFieldJSON строит FieldJSON из map[string]string.
func NewFieldJSON(m map[string]string) datatypes.JSONMap {
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (t *FormTemplate) String() string {
	return fmt.Sprintf("template %s (%d fields, used %d times)", t.Filename, len(t.FieldJSON), t.TimesUsed)
}
