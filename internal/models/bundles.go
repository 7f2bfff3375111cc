package models

import "gorm.io/datatypes"

// FormBundle - именованный упорядоченный набор ссылок на шаблоны.
// Forms хранит ID шаблонов; порядок значим, повторы допустимы.
type FormBundle struct {
	ID         string                      `gorm:"primaryKey;size:36" json:"id"`
	BundleName string                      `gorm:"column:bundle_name;uniqueIndex;size:255;not null" json:"bundle_name"`
	Forms      datatypes.JSONSlice[string] `gorm:"column:forms" json:"forms"`
}

// BundleView - набор с развёрнутыми шаблонами (join при чтении).
type BundleView struct {
	ID         string         `json:"id"`
	BundleName string         `json:"bundle_name"`
	Forms      []FormTemplate `json:"forms"`
}
