package services

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
	"time"

	types "github.com/yungbote/kinship-backend/internal/domain"
)

func TestCertificateRendererProducesPNG(t *testing.T) {
	r, err := NewCertificateRenderer("")
	if err != nil {
		t.Fatalf("NewCertificateRenderer: %v", err)
	}
	buf, err := r.Render(CertificateArtwork{
		Template: &types.CertificateTemplate{
			Title:       "Certificate of Completion",
			Body:        "{{user}} completed {{course}} on {{date}}",
			AccentColor: "#aa3300",
		},
		CourseTitle:   "Go Basics",
		CertificateID: "CERT-1700000000000-42",
		IssuedAt:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != certificateWidth || b.Dy() != certificateHeight {
		t.Fatalf("size: want=%dx%d got=%dx%d", certificateWidth, certificateHeight, b.Dx(), b.Dy())
	}
}

func TestCertificateRendererRequiresTemplate(t *testing.T) {
	r, err := NewCertificateRenderer("")
	if err != nil {
		t.Fatalf("NewCertificateRenderer: %v", err)
	}
	if _, err := r.Render(CertificateArtwork{}); err == nil {
		t.Fatalf("want error without template")
	}
}

func TestNewCertificateRendererMissingFont(t *testing.T) {
	if _, err := NewCertificateRenderer("/does/not/exist.ttf"); err == nil {
		t.Fatalf("want error for missing font file")
	}
}

func TestParseAccent(t *testing.T) {
	cases := []struct {
		in   string
		want color.NRGBA
	}{
		{"#AA3300", color.NRGBA{R: 0xaa, G: 0x33, B: 0x00, A: 255}},
		{"10ff20", color.NRGBA{R: 0x10, G: 0xff, B: 0x20, A: 255}},
		{"", color.NRGBA{R: 0x1f, G: 0x3a, B: 0x5f, A: 255}},
		{"#zzzzzz", color.NRGBA{R: 0x1f, G: 0x3a, B: 0x5f, A: 255}},
	}
	for _, tc := range cases {
		if got := parseAccent(tc.in); got != tc.want {
			t.Fatalf("parseAccent(%q): want=%v got=%v", tc.in, tc.want, got)
		}
	}
}
