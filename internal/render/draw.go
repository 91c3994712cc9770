package render

import (
	"fmt"
	"image"
	"image/color"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Frame dimensions for slides and thumbnails.
const (
	FrameWidth  = 1280
	FrameHeight = 720
)

var captionFace = basicfont.Face7x13

// ParseHexColor parses #RRGGBB into an opaque colour.
func ParseHexColor(value string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(value), "#")
	if len(hex) != 6 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", value)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", value, err)
	}
	return color.NRGBA{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n), A: 0xff}, nil
}

func mustHex(value string) color.NRGBA {
	c, err := ParseHexColor(value)
	if err != nil {
		panic(err)
	}
	return c
}

// Canvas is a frame under construction.
type Canvas struct {
	img *image.NRGBA
}

// NewCanvas creates a solid-colour canvas.
func NewCanvas(width, height int, background color.Color) *Canvas {
	return &Canvas{img: imaging.New(width, height, background)}
}

// NewPhotoCanvas fills the canvas with the photo at path, cropped to size and darkened.
func NewPhotoCanvas(path string, width, height int) (*Canvas, error) {
	src, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open background: %w", err)
	}
	filled := imaging.Fill(src, width, height, imaging.Center, imaging.Lanczos)
	return &Canvas{img: imaging.AdjustBrightness(filled, -40)}, nil
}

// Image returns the canvas pixels.
func (c *Canvas) Image() *image.NRGBA {
	return c.img
}

// Text draws text with its top-left corner at (x, y), upscaled by scale.
func (c *Canvas) Text(text string, x, y, scale int, col color.Color) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if scale < 1 {
		scale = 1
	}
	metrics := captionFace.Metrics()
	width := font.MeasureString(captionFace, text).Ceil()
	height := metrics.Height.Ceil()
	if width <= 0 || height <= 0 {
		return
	}
	glyphs := image.NewNRGBA(image.Rect(0, 0, width, height))
	drawer := font.Drawer{
		Dst:  glyphs,
		Src:  image.NewUniform(col),
		Face: captionFace,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	drawer.DrawString(text)
	scaled := imaging.Resize(glyphs, width*scale, height*scale, imaging.NearestNeighbor)
	c.img = imaging.Overlay(c.img, scaled, image.Pt(x, y), 1.0)
}

// CenteredText draws text horizontally centred at row y.
func (c *Canvas) CenteredText(text string, y, scale int, col color.Color) {
	width := font.MeasureString(captionFace, text).Ceil() * max(scale, 1)
	x := (c.img.Bounds().Dx() - width) / 2
	c.Text(text, max(x, 0), y, scale, col)
}

// Lines draws each line of text below the previous one and returns the next free row.
func (c *Canvas) Lines(lines []string, x, y, scale int, col color.Color) int {
	step := captionFace.Metrics().Height.Ceil()*max(scale, 1) + 8
	for _, line := range lines {
		c.Text(line, x, y, scale, col)
		y += step
	}
	return y
}

// Save writes the canvas; the format follows the file extension.
func (c *Canvas) Save(path string) error {
	if err := imaging.Save(c.img, path); err != nil {
		return fmt.Errorf("save image: %w", err)
	}
	return nil
}

// Wrap splits text into lines of at most width runes, breaking on spaces when possible.
func Wrap(text string, width int) []string {
	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		current := ""
		for _, word := range words {
			for len([]rune(word)) > width {
				if current != "" {
					lines = append(lines, current)
					current = ""
				}
				runes := []rune(word)
				lines = append(lines, string(runes[:width]))
				word = string(runes[width:])
			}
			switch {
			case current == "":
				current = word
			case len([]rune(current))+1+len([]rune(word)) <= width:
				current += " " + word
			default:
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return lines
}
