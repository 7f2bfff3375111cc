package models

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gorm.io/datatypes"
)

func TestFieldMap(t *testing.T) {
	tpl := FormTemplate{FieldJSON: datatypes.JSONMap{
		"Name":  "full_name",
		"Date":  "",
		"Count": float64(3),
	}}
	want := map[string]string{"Name": "full_name", "Date": "", "Count": ""}
	if diff := cmp.Diff(want, tpl.FieldMap()); diff != "" {
		t.Fatalf("FieldMap() mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteResultStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteResult(rec, Result{Success: true})
	if rec.Code != http.StatusOK {
		t.Errorf("success status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	WriteResult(rec, Result{Success: false})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("failure status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "{\"success\":false}\n" {
		t.Errorf("body = %q", got)
	}
}
