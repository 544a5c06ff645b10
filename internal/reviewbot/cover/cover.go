// Package cover renders a social-card style PNG cover for a post.
package cover

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/RobinCoderZhao/panafrican-review/internal/reviewbot/writer"
)

// Renderer draws post covers.
type Renderer struct {
	Width     int
	Height    int
	Padding   float64
	TitleSize float64
	TextSize  float64
	// FontPath optionally points to a TTF used instead of the bundled Go fonts.
	FontPath string
}

// NewRenderer creates a renderer for 1200x630 covers.
func NewRenderer() *Renderer {
	return &Renderer{
		Width:     1200,
		Height:    630,
		Padding:   72,
		TitleSize: 56,
		TextSize:  26,
	}
}

var (
	green = hexColor("#078930")
	gold  = hexColor("#FCDD09")
	red   = hexColor("#DA121A")
)

// FileName returns the cover file name for slug.
func FileName(slug string) string {
	return slug + ".png"
}

// Render draws the cover for post and writes it to outputPath.
func (r *Renderer) Render(post *writer.Post, outputPath string) error {
	titleFace, err := r.face(true, r.TitleSize)
	if err != nil {
		return err
	}
	textFace, err := r.face(false, r.TextSize)
	if err != nil {
		return err
	}

	w, h := float64(r.Width), float64(r.Height)
	dc := gg.NewContext(r.Width, r.Height)

	r.drawBackground(dc, w, h)
	r.drawStripes(dc, w, h)

	textWidth := w - 2*r.Padding

	dc.SetFontFace(textFace)
	dc.SetColor(gold)
	dc.DrawString(strings.ToUpper("Week of "+post.Date.Format("January 02, 2006")), r.Padding, r.Padding+r.TextSize)

	dc.SetFontFace(titleFace)
	dc.SetColor(color.White)
	lines := dc.WordWrap(post.Title, textWidth)
	if len(lines) > 4 {
		lines = lines[:4]
		lines[3] = strings.TrimRight(lines[3], " .,;:") + "…"
	}
	y := r.Padding + r.TextSize + 40
	for _, line := range lines {
		y += r.TitleSize * 1.2
		dc.DrawString(line, r.Padding, y)
	}

	dc.SetFontFace(textFace)
	if len(post.Tags) > 0 {
		tags := make([]string, 0, 4)
		for i, t := range post.Tags {
			if i == 4 {
				break
			}
			tags = append(tags, "#"+t)
		}
		dc.SetColor(hexColor("#b8c4bb"))
		dc.DrawString(strings.Join(tags, "  "), r.Padding, h-r.Padding-r.TextSize-16)
	}
	dc.SetColor(hexColor("#8a968d"))
	dc.DrawString(post.Author, r.Padding, h-r.Padding+8)

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create cover dir: %w", err)
	}
	if err := dc.SavePNG(outputPath); err != nil {
		return fmt.Errorf("save cover: %w", err)
	}
	return nil
}

func (r *Renderer) drawBackground(dc *gg.Context, w, h float64) {
	grad := gg.NewLinearGradient(0, 0, w, h)
	grad.AddColorStop(0, hexColor("#0d1f14"))
	grad.AddColorStop(1, hexColor("#1c1408"))
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()
}

func (r *Renderer) drawStripes(dc *gg.Context, w, h float64) {
	const stripe = 10.0
	for i, c := range []color.Color{green, gold, red} {
		dc.SetColor(c)
		dc.DrawRectangle(0, h-float64(3-i)*stripe, w, stripe)
		dc.Fill()
	}
	dc.SetColor(gold)
	dc.DrawRectangle(r.Padding-24, r.Padding, 6, r.TextSize+8)
	dc.Fill()
}

func (r *Renderer) face(bold bool, size float64) (font.Face, error) {
	if r.FontPath != "" {
		f, err := gg.LoadFontFace(r.FontPath, size)
		if err != nil {
			return nil, fmt.Errorf("load font %s: %w", r.FontPath, err)
		}
		return f, nil
	}
	data := goregular.TTF
	if bold {
		data = gobold.TTF
	}
	tt, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse bundled font: %w", err)
	}
	return truetype.NewFace(tt, &truetype.Options{Size: size}), nil
}

func hexColor(hex string) color.Color {
	hex = strings.TrimPrefix(hex, "#")
	var cr, cg, cb uint8
	fmt.Sscanf(hex, "%02x%02x%02x", &cr, &cg, &cb)
	return color.RGBA{cr, cg, cb, 255}
}
