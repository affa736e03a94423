package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"
)

func buildZip(t *testing.T, name, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

const documentXML = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
	`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Experience: Go services</w:t></w:r></w:p>` +
	`</w:body></w:document>`

func TestResumeFromDocx(t *testing.T) {
	data := buildZip(t, "word/document.xml", documentXML)

	text, err := Resume(context.Background(), data, "application/zip", "cv.docx")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if text != "Jane Doe\nExperience: Go services" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestTextFromBytesRejectsPlainZip(t *testing.T) {
	data := buildZip(t, "notes.txt", "hello")

	_, err := TextFromBytes(context.Background(), data, "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected unsupported type, got %v", err)
	}
}

func TestResumeRejectsNonResume(t *testing.T) {
	xml := `<w:document xmlns:w="x"><w:body><w:p><w:r><w:t>Grocery list</w:t></w:r></w:p></w:body></w:document>`
	data := buildZip(t, "word/document.xml", xml)

	_, err := Resume(context.Background(), data, MimeDOCX, "list.docx")
	if !errors.Is(err, ErrNotAResume) {
		t.Fatalf("expected not a resume, got %v", err)
	}
}

func TestCorruptPDFIsParseError(t *testing.T) {
	_, err := TextFromBytes(context.Background(), []byte("not a pdf"), "", "resume.pdf")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestNormalizeMimeType(t *testing.T) {
	cases := []struct {
		mime, name, want string
	}{
		{"application/pdf; charset=binary", "x", MimePDF},
		{"", "Resume.PDF", MimePDF},
		{"application/octet-stream", "cv.docx", MimeDOCX},
		{"text/plain", "cv.txt", "text/plain"},
	}
	for _, tc := range cases {
		if got := NormalizeMimeType(tc.mime, tc.name, nil); got != tc.want {
			t.Fatalf("NormalizeMimeType(%q,%q)=%q want %q", tc.mime, tc.name, got, tc.want)
		}
	}
}

func TestLooksLikeResume(t *testing.T) {
	if !LooksLikeResume("EDUCATION\nMIT") {
		t.Fatalf("expected education to count")
	}
	if LooksLikeResume("hello world") {
		t.Fatalf("expected plain text to be rejected")
	}
}
