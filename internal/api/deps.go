package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"

	"formfill/internal/forms"
	"formfill/internal/models"
	"formfill/internal/redtail"
)

// Forms - операции, которые обслуживают HTTP-ручки (forms.Service).
type Forms interface {
	UploadTemplate(ctx context.Context, name string, pdf []byte) (*models.FormTemplate, error)
	Templates(ctx context.Context) []models.FormTemplate
	RenameTemplate(ctx context.Context, oldName, newName, description, category string) (string, error)
	SetFieldMap(ctx context.Context, filename string, fields map[string]string) error
	DeleteTemplate(ctx context.Context, filename string) error
	SaveBundle(ctx context.Context, req forms.BundleRequest) (*models.FormBundle, error)
	Bundles(ctx context.Context) []models.BundleView
	DeleteBundle(ctx context.Context, name string) error
	Client(ctx context.Context, email string) (redtail.Record, error)
	Fill(ctx context.Context, filenames []string, email string) (*forms.FillResult, error)
}

type Dependencies struct {
	Forms Forms
	// MaxUploadMemory - сколько multipart-данных держать в памяти; остальное во временных файлах.
	MaxUploadMemory int64
}

func Attach(r *mux.Router, d Dependencies) {
	if d.MaxUploadMemory <= 0 {
		d.MaxUploadMemory = 32 << 20
	}
	h := &Handler{d: d}

	// templates
	r.HandleFunc("/templates", h.TemplatesList).Methods(http.MethodGet)
	r.HandleFunc("/templates", h.TemplateFieldMap).Methods(http.MethodPatch)
	r.HandleFunc("/templates", h.TemplateUpdate).Methods(http.MethodPost)
	r.HandleFunc("/templates/upload", h.TemplateUpload).Methods(http.MethodPost)
	r.HandleFunc("/templates/delete", h.TemplateDelete).Methods(http.MethodPost)
	r.HandleFunc("/templates/{filenames}/{email}", h.TemplatesFill).Methods(http.MethodGet)

	// bundles
	r.HandleFunc("/bundles", h.BundlesList).Methods(http.MethodGet)
	r.HandleFunc("/bundles", h.BundleSave).Methods(http.MethodPost)
	r.HandleFunc("/bundles", h.BundleDelete).Methods(http.MethodDelete)

	// crm: keys раньше {email}
	r.HandleFunc("/clients/keys", h.ClientKeys).Methods(http.MethodGet)
	r.HandleFunc("/clients/{email}", h.ClientRecord).Methods(http.MethodGet)
}
