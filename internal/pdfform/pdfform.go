// Package pdfform перечисляет текстовые поля AcroForm и заполняет их значениями.
package pdfform

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/sirupsen/logrus"

	"formfill/internal/logs"
)

// ErrInvalidPDF - документ не разбирается как PDF.
var ErrInvalidPDF = errors.New("invalid pdf")

// Виды полей в JSON-выгрузке формы pdfcpu со свободным вводом текста.
// datefield - то же текстовое поле /Tx, но с действием форматирования даты.
// Остальные виды (checkbox, radiobuttongroup, combobox, listbox) не заполняются.
const (
	textKind = "textfield"
	dateKind = "datefield"
)

var textKinds = []string{textKind, dateKind}

func isTextKind(kind string) bool {
	return kind == textKind || kind == dateKind
}

// entry - поле выгрузки вместе с его видом.
type entry struct {
	kind  string
	field map[string]any
}

func init() {
	// pdfcpu по умолчанию создаёт каталог конфигурации в $HOME.
	api.DisableConfigDir()
}

func newConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// formExport - выгрузка формы. Поля держим как map, чтобы вернуть их в FillForm без потерь.
type formExport struct {
	Header json.RawMessage               `json:"header,omitempty"`
	Forms  []map[string][]map[string]any `json:"forms"`
}

// export читает форму документа. Документ без AcroForm даёт пустую выгрузку.
func export(pdf []byte) (*formExport, error) {
	var buf bytes.Buffer
	if err := api.ExportFormJSON(bytes.NewReader(pdf), &buf, "template.pdf", newConfig()); err != nil {
		if verr := api.Validate(bytes.NewReader(pdf), newConfig()); verr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, verr)
		}
		logs.Logger.WithError(err).Debug("pdfform: document has no exportable form")
		return &formExport{}, nil
	}
	var fe formExport
	if err := json.Unmarshal(buf.Bytes(), &fe); err != nil {
		return nil, fmt.Errorf("decode form export: %w", err)
	}
	return &fe, nil
}

func fieldName(f map[string]any) string {
	s, _ := f["name"].(string)
	return s
}

// TextFields - имена текстовых полей (включая поля дат) в порядке выгрузки, без повторов.
func TextFields(pdf []byte) ([]string, error) {
	fe, err := export(pdf)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var names []string
	for _, form := range fe.Forms {
		for _, kind := range textKinds {
			for _, f := range form[kind] {
				name := fieldName(f)
				if name == "" || seen[name] {
					continue
				}
				seen[name] = true
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// Fill проставляет значения в текстовые поля по точному имени и возвращает
// пересобранный документ. Неизвестные и нетекстовые поля пропускаются с warning,
// ошибка одного поля не прерывает остальные. Ошибка разбора документа - ErrInvalidPDF.
func Fill(pdf []byte, values map[string]string) ([]byte, error) {
	fe, err := export(pdf)
	if err != nil {
		return nil, err
	}

	text := map[string][]entry{}
	other := map[string]string{}
	for _, form := range fe.Forms {
		for kind, fields := range form {
			for _, f := range fields {
				name := fieldName(f)
				if isTextKind(kind) {
					text[name] = append(text[name], entry{kind: kind, field: f})
				} else {
					other[name] = kind
				}
			}
		}
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	var changed []entry
	for _, name := range names {
		log := logs.Logger.WithField("field", name)
		entries, ok := text[name]
		if !ok {
			if kind, found := other[name]; found {
				log.WithField("kind", kind).Warn("pdfform: field is not a text field, skipped")
			} else {
				log.Warn("pdfform: field not found, skipped")
			}
			continue
		}
		for _, e := range entries {
			e.field["value"] = values[name]
			changed = append(changed, e)
		}
	}

	if len(changed) == 0 {
		return rewrite(pdf)
	}

	out, err := fillEntries(pdf, fe.Header, changed)
	if err == nil {
		return out, nil
	}
	logs.Logger.WithError(err).Warn("pdfform: bulk fill failed, filling fields one by one")

	// По одному полю: сбойное поле (например, дата не в формате поля) пропускается.
	cur, filled := pdf, 0
	for _, e := range changed {
		next, err := fillEntries(cur, fe.Header, []entry{e})
		if err != nil {
			logs.Logger.WithFields(logrus.Fields{"field": fieldName(e.field), "kind": e.kind}).WithError(err).
				Error("pdfform: error processing field, skipped")
			continue
		}
		cur = next
		filled++
	}
	if filled == 0 {
		return rewrite(pdf)
	}
	return cur, nil
}

// fillEntries отдаёт поля в FillForm, каждое под своим видом.
func fillEntries(pdf []byte, header json.RawMessage, entries []entry) ([]byte, error) {
	form := map[string][]map[string]any{}
	for _, e := range entries {
		form[e.kind] = append(form[e.kind], e.field)
	}
	payload, err := json.Marshal(formExport{
		Header: header,
		Forms:  []map[string][]map[string]any{form},
	})
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := api.FillForm(bytes.NewReader(pdf), bytes.NewReader(payload), &out, newConfig()); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// rewrite пересобирает документ без изменения содержимого полей.
func rewrite(pdf []byte) ([]byte, error) {
	var out bytes.Buffer
	if err := api.Optimize(bytes.NewReader(pdf), &out, newConfig()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}
	return out.Bytes(), nil
}
