// Package pdftest собирает небольшие PDF с AcroForm для тестов.
package pdftest

import (
	"bytes"
	"fmt"
	"strings"
)

// Field - поле формы: текстовое, текстовое с форматом даты или чекбокс.
type Field struct {
	Name       string
	Value      string
	Checkbox   bool
	DateFormat string // непусто: /AA с AFDate_FormatEx
}

// Text, Date и Checkbox - короткие конструкторы полей.
func Text(name, value string) Field  { return Field{Name: name, Value: value} }
func Date(name, format string) Field { return Field{Name: name, DateFormat: format} }
func Checkbox(name string) Field     { return Field{Name: name, Checkbox: true} }

// FormPDF собирает одностраничный PDF с AcroForm из fields.
// Смещения xref считаются по фактическим байтам.
func FormPDF(fields ...Field) []byte {
	const firstField = 7
	var widgets, refs, streams []string

	next := firstField + len(fields)
	for i, f := range fields {
		refs = append(refs, fmt.Sprintf("%d 0 R", firstField+i))
		y := 700 - i*40
		if f.Checkbox {
			on, off := next, next+1
			next += 2
			widgets = append(widgets, fmt.Sprintf(
				"<< /Type /Annot /Subtype /Widget /FT /Btn /T (%s) /V /Off /AS /Off /Rect [50 %d 62 %d] /P 3 0 R /F 4 /AP << /N << /Yes %d 0 R /Off %d 0 R >> >> >>",
				f.Name, y, y+12, on, off))
			streams = append(streams,
				stream("<< /Type /XObject /Subtype /Form /BBox [0 0 12 12]", "0 g 2 2 8 8 re f"),
				stream("<< /Type /XObject /Subtype /Form /BBox [0 0 12 12]", ""))
			continue
		}
		var actions string
		if f.DateFormat != "" {
			actions = fmt.Sprintf(
				` /AA << /F << /S /JavaScript /JS (AFDate_FormatEx("%[1]s");) >> /K << /S /JavaScript /JS (AFDate_KeystrokeEx("%[1]s");) >> >>`,
				f.DateFormat)
		}
		widgets = append(widgets, fmt.Sprintf(
			"<< /Type /Annot /Subtype /Widget /FT /Tx /T (%s) /V (%s) /Rect [50 %d 250 %d] /P 3 0 R /F 4 /DA (/Helv 10 Tf 0 g)%s >>",
			f.Name, f.Value, y, y+20, actions))
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R /AcroForm 4 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 6 0 R /Resources << /Font << /Helv 5 0 R >> >> /Annots [%s] >>", strings.Join(refs, " ")),
		fmt.Sprintf("<< /Fields [%s] /DA (/Helv 0 Tf 0 g) /DR << /Font << /Helv 5 0 R >> >> >>", strings.Join(refs, " ")),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
		stream("<<", "BT /Helv 12 Tf 50 750 Td (Client form) Tj ET"),
	}
	objs = append(objs, widgets...)
	objs = append(objs, streams...)

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

// ClientForm - типовая форма: first_name, last_name (заполнено) и чекбокс agree.
func ClientForm() []byte {
	return FormPDF(Text("first_name", ""), Text("last_name", "Prefilled"), Checkbox("agree"))
}

// stream дописывает /Length к открытому словарю и тело потока.
func stream(dictOpen, data string) string {
	return fmt.Sprintf("%s /Length %d >>\nstream\n%s\nendstream", dictOpen, len(data), data)
}
