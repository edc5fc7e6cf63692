package document

import (
	"context"
	"errors"
	"testing"

	"github.com/ledongthuc/pdf"
)

type fakePages struct {
	pages []string
	fail  int
}

func (f fakePages) NumPage() int { return len(f.pages) }

func (f fakePages) PageText(i int) (string, error) {
	if i == f.fail {
		return "", errors.New("bad content stream")
	}
	return f.pages[i-1], nil
}

func TestJoinPages_KeepsOrderAndEmptyPages(t *testing.T) {
	src := fakePages{pages: []string{"Vendor: Acme", "", "Total: 10.00"}}
	got, err := joinPages(context.Background(), src, "a.pdf")
	if err != nil {
		t.Fatalf("joinPages: %v", err)
	}
	want := "Vendor: Acme\n\nTotal: 10.00"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestJoinPages_PageErrorIsExtractionError(t *testing.T) {
	_, err := joinPages(context.Background(), fakePages{pages: []string{"a", "b"}, fail: 2}, "b.pdf")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
	var xe *ExtractionError
	if !errors.As(err, &xe) || xe.Filename != "b.pdf" {
		t.Fatalf("expected ExtractionError for b.pdf, got %#v", err)
	}
}

func TestExtract_CorruptPDF(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract(context.Background(), []byte("definitely not a pdf"), "broken.pdf", "application/pdf")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestExtract_PlainText(t *testing.T) {
	e := NewExtractor(nil)
	got, err := e.Extract(context.Background(), []byte("Vendor: Acme\nTotal: 5"), "inv.txt", "")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Vendor: Acme\nTotal: 5" {
		t.Fatalf("got %q", got)
	}
}

func TestExtract_UnsupportedType(t *testing.T) {
	e := NewExtractor(nil)
	_, err := e.Extract(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "scan.png", "image/png")
	if !errors.Is(err, ErrExtraction) {
		t.Fatalf("expected ErrExtraction, got %v", err)
	}
}

func TestKind(t *testing.T) {
	cases := []struct{ name, ct, want string }{
		{"a.PDF", "", KindPDF},
		{"a.bin", "application/pdf", KindPDF},
		{"notes.txt", "application/octet-stream", KindText},
		{"x", "text/plain; charset=utf-8", KindText},
		{"x.png", "image/png", KindUnknown},
	}
	for _, c := range cases {
		if got := Kind(c.name, c.ct); got != c.want {
			t.Errorf("Kind(%q,%q) = %q, want %q", c.name, c.ct, got, c.want)
		}
	}
}

func glyphs(x, y, size float64, s string) []pdf.Text {
	out := make([]pdf.Text, 0, len(s))
	for _, r := range s {
		out = append(out, pdf.Text{X: x, Y: y, W: size / 2, FontSize: size, S: string(r)})
		x += size / 2
	}
	return out
}

func TestPageLines(t *testing.T) {
	var texts []pdf.Text
	texts = append(texts, glyphs(28, 791.1, 18, "INVOICE")...)
	texts = append(texts, glyphs(28, 755.0, 11, "Vendor: Acme Co")...)
	texts = append(texts, glyphs(28, 735.1, 11, "Widget")...)
	texts = append(texts, glyphs(320, 735.1, 11, "100.00")...)
	texts = append(texts, glyphs(28, 715.3, 12, "Total: 192.50")...)
	// baseline jitter within a line
	texts = append(texts, pdf.Text{X: 200, Y: 715.6, W: 6, FontSize: 12, S: "!"})

	got := pageLines(texts)
	want := "INVOICE\nVendor: Acme Co\nWidget 100.00\nTotal: 192.50 !"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
	if pageLines(nil) != "" {
		t.Fatalf("empty page should yield empty text")
	}
}
