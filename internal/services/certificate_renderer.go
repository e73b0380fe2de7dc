package services

import (
	"bytes"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	types "github.com/yungbote/kinship-backend/internal/domain"
)

const (
	certificateWidth  = 1600
	certificateHeight = 1131
)

type CertificateArtwork struct {
	Template      *types.CertificateTemplate
	CourseTitle   string
	RecipientName string
	CertificateID string
	IssuedAt      time.Time
}

// CertificateRenderer draws a certificate PNG.
type CertificateRenderer interface {
	Render(in CertificateArtwork) (bytes.Buffer, error)
}

type ggCertificateRenderer struct {
	font *truetype.Font
}

// NewCertificateRenderer loads fontPath, or the bundled Go regular face when
// fontPath is empty.
func NewCertificateRenderer(fontPath string) (CertificateRenderer, error) {
	raw := goregular.TTF
	if p := strings.TrimSpace(fontPath); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read certificate font: %w", err)
		}
		raw = b
	}
	f, err := truetype.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse certificate font: %w", err)
	}
	return &ggCertificateRenderer{font: f}, nil
}

func (r *ggCertificateRenderer) face(size float64) font.Face {
	return truetype.NewFace(r.font, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingNone})
}

func (r *ggCertificateRenderer) Render(in CertificateArtwork) (bytes.Buffer, error) {
	var buf bytes.Buffer
	if in.Template == nil {
		return buf, fmt.Errorf("certificate template required")
	}
	recipient := strings.TrimSpace(in.RecipientName)
	if recipient == "" {
		recipient = "Learner"
	}
	accent := parseAccent(in.Template.AccentColor)
	w, h := float64(certificateWidth), float64(certificateHeight)

	dc := gg.NewContext(certificateWidth, certificateHeight)
	dc.SetColor(color.White)
	dc.Clear()

	dc.SetColor(accent)
	dc.SetLineWidth(18)
	dc.DrawRectangle(40, 40, w-80, h-80)
	dc.Stroke()
	dc.SetLineWidth(3)
	dc.DrawRectangle(80, 80, w-160, h-160)
	dc.Stroke()

	dc.SetFontFace(r.face(84))
	dc.DrawStringAnchored(in.Template.Title, w/2, 260, 0.5, 0.5)

	dc.SetColor(color.NRGBA{R: 40, G: 40, B: 40, A: 255})
	dc.SetFontFace(r.face(64))
	dc.DrawStringAnchored(recipient, w/2, 470, 0.5, 0.5)

	body := in.Template.RenderBody(recipient, in.CourseTitle, in.CertificateID, in.IssuedAt)
	if strings.TrimSpace(body) != "" {
		dc.SetFontFace(r.face(34))
		dc.DrawStringWrapped(body, w/2, 640, 0.5, 0.5, w-400, 1.5, gg.AlignCenter)
	}

	dc.SetFontFace(r.face(26))
	dc.SetColor(accent)
	dc.DrawStringAnchored(in.IssuedAt.UTC().Format("January 2, 2006"), 260, h-170, 0.5, 0.5)
	dc.DrawStringAnchored(in.CertificateID, w-300, h-170, 0.5, 0.5)

	if err := dc.EncodePNG(&buf); err != nil {
		return buf, fmt.Errorf("encode certificate png: %w", err)
	}
	return buf, nil
}

func parseAccent(hexStr string) color.NRGBA {
	fallback := color.NRGBA{R: 0x1f, G: 0x3a, B: 0x5f, A: 255}
	s := strings.TrimPrefix(strings.TrimSpace(hexStr), "#")
	if len(s) != 6 {
		return fallback
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return fallback
	}
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
