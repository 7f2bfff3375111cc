package pdfform

import "testing"

// textValues - значения текстовых полей документа по имени.
func textValues(t *testing.T, pdf []byte) map[string]string {
	t.Helper()
	fe, err := export(pdf)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	out := map[string]string{}
	for _, form := range fe.Forms {
		for _, kind := range textKinds {
			for _, f := range form[kind] {
				v, _ := f["value"].(string)
				out[fieldName(f)] = v
			}
		}
	}
	return out
}
