package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

func TestStore_SaveAndOpenRoundTrip(t *testing.T) {
	store := NewWithFs(afero.NewMemMapFs())

	path, err := store.Save(BucketPartnerDocuments, "factura.pdf", strings.NewReader("pdf bytes"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if path != "factura.pdf" {
		t.Errorf("expected stored path factura.pdf, got %s", path)
	}

	reader, err := store.Open(BucketPartnerDocuments, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if string(content) != "pdf bytes" {
		t.Errorf("unexpected content: %s", content)
	}
}

func TestStore_BucketsAreIsolated(t *testing.T) {
	store := NewWithFs(afero.NewMemMapFs())

	if _, err := store.Save(BucketPartnerDocuments, "doc.pdf", strings.NewReader("x")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if _, err := store.Open(BucketCreditDocuments, "doc.pdf"); err != ErrObjectNotFound {
		t.Errorf("expected ErrObjectNotFound from the other bucket, got %v", err)
	}
}

func TestStore_OpenMissingObject(t *testing.T) {
	store := NewWithFs(afero.NewMemMapFs())

	if _, err := store.Open(BucketProductImages, "nope.png"); err != ErrObjectNotFound {
		t.Errorf("expected ErrObjectNotFound, got %v", err)
	}
}

func TestStore_SaveStripsDirectoryComponents(t *testing.T) {
	store := NewWithFs(afero.NewMemMapFs())

	path, err := store.Save(BucketCreditDocuments, "../../etc/passwd", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if path != "passwd" {
		t.Errorf("expected traversal to be stripped, got %s", path)
	}

	if _, err := store.Open(BucketCreditDocuments, "passwd"); err != nil {
		t.Errorf("expected object under the bucket, got %v", err)
	}
}

func TestPublicURL(t *testing.T) {
	store := NewWithFs(afero.NewMemMapFs())

	url := store.PublicURL("abc123.png")
	if url != "/static/product-images/abc123.png" {
		t.Errorf("unexpected URL: %s", url)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Empresa SA", "Empresa_SA"},
		{"Comercial San José", "Comercial_San_Jos_"},
		{"a.b-c_d", "a_b_c_d"},
		{"ABC123", "ABC123"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := SanitizeName(tt.in); got != tt.want {
			t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExt(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"photo.PNG", "PNG"},
		{"archive.tar.gz", "gz"},
		{"noextension", ""},
		{"factura.pdf", "pdf"},
	}

	for _, tt := range tests {
		if got := Ext(tt.in); got != tt.want {
			t.Errorf("Ext(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
