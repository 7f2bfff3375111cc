package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"formfill/internal/archive"
	"formfill/internal/forms"
	"formfill/internal/logs"
	"formfill/internal/middleware"
	"formfill/internal/models"
	"formfill/internal/redtail"
)

type Handler struct {
	d Dependencies
}

// ---------- Templates ----------

func (h *Handler) TemplatesList(w http.ResponseWriter, r *http.Request) {
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"templates": h.d.Forms.Templates(r.Context()),
	})
}

func (h *Handler) TemplateUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.d.MaxUploadMemory); err != nil {
		if tooLarge(w, err) {
			return
		}
		h.fail(r, err, "parse upload")
		models.WriteResult(w, models.Result{})
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		models.WriteResult(w, models.Result{})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(r, err, "read upload")
		models.WriteResult(w, models.Result{})
		return
	}
	if _, err := h.d.Forms.UploadTemplate(r.Context(), hdr.Filename, data); err != nil {
		h.fail(r, err, "upload template")
		models.WriteResult(w, models.Result{})
		return
	}
	http.Redirect(w, r, "/templates", http.StatusSeeOther)
}

func (h *Handler) TemplateDelete(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.d.MaxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		if tooLarge(w, err) {
			return
		}
		models.WriteResult(w, models.Result{})
		return
	}
	filename := strings.TrimSpace(r.FormValue("template"))
	if filename == "" {
		models.WriteResult(w, models.Result{})
		return
	}
	if err := h.d.Forms.DeleteTemplate(r.Context(), filename); err != nil {
		h.fail(r, err, "delete template")
		models.WriteResult(w, models.Result{})
		return
	}
	http.Redirect(w, r, "/templates", http.StatusSeeOther)
}

type fieldMapRequest struct {
	Filename  string            `json:"filename"`
	FieldJSON map[string]string `json:"field_json"`
}

func (h *Handler) TemplateFieldMap(w http.ResponseWriter, r *http.Request) {
	var req fieldMapRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.d.Forms.SetFieldMap(r.Context(), req.Filename, req.FieldJSON); err != nil {
		h.fail(r, err, "update field map")
		models.WriteResult(w, models.Result{})
		return
	}
	models.WriteResult(w, models.Result{Success: true})
}

type updateRequest struct {
	OldFilename  string `json:"oldFilename"`
	NewFilename  string `json:"newFilename"`
	Description  string `json:"description"`
	FormCategory string `json:"form_category"`
}

func (h *Handler) TemplateUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	name, err := h.d.Forms.RenameTemplate(r.Context(), req.OldFilename, req.NewFilename, req.Description, req.FormCategory)
	if err != nil {
		h.fail(r, err, "update template")
		models.WriteResult(w, models.Result{})
		return
	}
	models.WriteResult(w, models.Result{Success: true, Filename: name})
}

// TemplatesFill: GET /templates/{a.pdf+b.pdf}/{email}. ?format=tar.gz отдаёт архив вместо JSON.
func (h *Handler) TemplatesFill(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	filenames := strings.Split(vars["filenames"], "+")
	res, err := h.d.Forms.Fill(r.Context(), filenames, vars["email"])
	if err != nil {
		h.fail(r, err, "fill templates")
		serverError(w)
		return
	}

	if r.URL.Query().Get("format") == "tar.gz" {
		files := make([]archive.File, len(res.Filled))
		for i, pdf := range res.Filled {
			files[i] = archive.File{Name: res.Templates[i].Filename, Data: pdf}
		}
		data, sum, err := archive.Build(files)
		if err != nil {
			h.fail(r, err, "build archive")
			serverError(w)
			return
		}
		w.Header().Set("Content-Type", "application/gzip")
		w.Header().Set("Content-Disposition", `attachment; filename="forms.tar.gz"`)
		w.Header().Set("X-Checksum-SHA256", sum)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	encoded := make([]string, len(res.Filled))
	for i, pdf := range res.Filled {
		encoded[i] = base64.StdEncoding.EncodeToString(pdf)
	}
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"props": map[string]any{
			"templates":              res.Templates,
			"client_redtail":         res.Client,
			"filled_pdf_base64_list": encoded,
		},
	})
}

// ---------- Bundles ----------

func (h *Handler) BundlesList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	models.WriteJSON(w, http.StatusOK, map[string]any{
		"props": map[string]any{
			"bundles":   h.d.Forms.Bundles(ctx),
			"templates": h.d.Forms.Templates(ctx),
		},
	})
}

func (h *Handler) BundleSave(w http.ResponseWriter, r *http.Request) {
	var req forms.BundleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if _, err := h.d.Forms.SaveBundle(r.Context(), req); err != nil {
		h.fail(r, err, "save bundle")
		models.WriteResult(w, models.Result{})
		return
	}
	models.WriteResult(w, models.Result{Success: true})
}

func (h *Handler) BundleDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BundleName string `json:"bundle_name"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.d.Forms.DeleteBundle(r.Context(), req.BundleName); err != nil {
		h.fail(r, err, "delete bundle")
		models.WriteResult(w, models.Result{})
		return
	}
	models.WriteResult(w, models.Result{Success: true})
}

// ---------- CRM ----------

func (h *Handler) ClientRecord(w http.ResponseWriter, r *http.Request) {
	rec, err := h.d.Forms.Client(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		h.fail(r, err, "gather client")
		serverError(w)
		return
	}
	models.WriteJSON(w, http.StatusOK, rec)
}

// ClientKeys - ключи записи CRM для выбора маппинга полей шаблона.
func (h *Handler) ClientKeys(w http.ResponseWriter, r *http.Request) {
	models.WriteJSON(w, http.StatusOK, map[string]any{"keys": redtail.Keys()})
}

// ---------- utils ----------

func (h *Handler) fail(r *http.Request, err error, msg string) {
	logs.Logger.WithFields(logrus.Fields{
		"reqid": middleware.GetRequestID(r),
		"path":  r.URL.Path,
	}).WithError(err).Error(msg)
}

// decodeJSON пишет ответ сам, если тело не читается; тогда возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if tooLarge(w, err) {
			return false
		}
		logs.Logger.WithField("reqid", middleware.GetRequestID(r)).WithError(err).Warn("bad json body")
		models.WriteResult(w, models.Result{})
		return false
	}
	return true
}

func tooLarge(w http.ResponseWriter, err error) bool {
	var mbe *http.MaxBytesError
	if !errors.As(err, &mbe) {
		return false
	}
	models.WriteProblem(w, http.StatusRequestEntityTooLarge, "Payload too large", "", nil)
	return true
}

func serverError(w http.ResponseWriter) {
	models.WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", "", nil)
}
