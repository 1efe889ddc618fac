package receipt

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ErrRegionNotFound возвращается, если печатаемая область чека отсутствует.
var ErrRegionNotFound = errors.New("receipt region not found")

const (
	canvasWidth   = 640
	canvasPadding = 24
	lineHeight    = 18

	imageName = "receipt"
)

// Renderer растеризует область чека и встраивает изображение в PDF.
type Renderer struct {
	face font.Face
}

// NewRenderer создаёт рендерер с моноширинным шрифтом.
func NewRenderer() *Renderer {
	return &Renderer{face: basicfont.Face7x13}
}

// Rasterize рисует строки области на белом холсте.
func (r *Renderer) Rasterize(region *Region) (image.Image, error) {
	if region == nil || len(region.Lines) == 0 {
		return nil, ErrRegionNotFound
	}

	height := canvasPadding*2 + lineHeight*len(region.Lines)
	img := image.NewRGBA(image.Rect(0, 0, canvasWidth, height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: r.face,
	}

	ascent := r.face.Metrics().Ascent.Ceil()
	for i, line := range region.Lines {
		d.Dot = fixed.P(canvasPadding, canvasPadding+i*lineHeight+ascent)
		d.DrawString(line)
	}

	return img, nil
}

// Render возвращает одностраничный PDF формата A4 в книжной ориентации.
// Изображение чека занимает всю ширину страницы с сохранением пропорций.
func (r *Renderer) Render(region *Region) ([]byte, error) {
	img, err := r.Rasterize(region)
	if err != nil {
		return nil, err
	}

	var raw bytes.Buffer
	if err := png.Encode(&raw, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	width, _ := pdf.GetPageSize()
	b := img.Bounds()
	height := float64(b.Dy()) * width / float64(b.Dx())

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(imageName, opts, &raw)
	pdf.ImageOptions(imageName, 0, 0, width, height, false, opts, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	return out.Bytes(), nil
}
