package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"formfill/internal/models"
)

type templateDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Filename     string             `bson:"filename"`
	PDFBase64    string             `bson:"pdf_base64"`
	FieldJSON    map[string]any     `bson:"field_json"`
	Description  string             `bson:"description"`
	FormCategory string             `bson:"form_category"`
	LastUsed     time.Time          `bson:"last_used"`
	TimesUsed    int                `bson:"times_used"`
}

func (d *templateDocument) toModel() models.FormTemplate {
	fields := make(map[string]any, len(d.FieldJSON))
	for k, v := range d.FieldJSON {
		fields[k] = v
	}
	return models.FormTemplate{
		ID:           d.ID.Hex(),
		Filename:     d.Filename,
		PDFBase64:    d.PDFBase64,
		FieldJSON:    fields,
		Description:  d.Description,
		FormCategory: d.FormCategory,
		LastUsed:     d.LastUsed,
		TimesUsed:    d.TimesUsed,
	}
}

func newTemplateDocument(t *models.FormTemplate) templateDocument {
	fields := make(map[string]any, len(t.FieldJSON))
	for k, v := range t.FieldJSON {
		fields[k] = v
	}
	return templateDocument{
		Filename:     t.Filename,
		PDFBase64:    t.PDFBase64,
		FieldJSON:    fields,
		Description:  t.Description,
		FormCategory: t.FormCategory,
		LastUsed:     t.LastUsed,
		TimesUsed:    t.TimesUsed,
	}
}

type bundleDocument struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty"`
	BundleName string               `bson:"bundle_name"`
	Forms      []primitive.ObjectID `bson:"forms"`
}

func (d *bundleDocument) toModel() *models.FormBundle {
	return &models.FormBundle{
		ID:         d.ID.Hex(),
		BundleName: d.BundleName,
		Forms:      hexIDs(d.Forms),
	}
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	return out
}
