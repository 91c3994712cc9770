package marketing

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"listingcast/internal/listing"
	"listingcast/internal/render"
)

// CardSize is the edge length of a square card in pixels.
const CardSize = 1080

// Card file names inside the cards directory.
const (
	CardsDir       = "카드뉴스"
	MainCardFile   = "메인_카드.png"
	DetailCardFile = "상세_카드.png"
)

var (
	cardBackground = color.NRGBA{R: 41, G: 128, B: 185, A: 255}
	cardText       = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

type card struct {
	title        string
	subtitle     string
	propertyType string
	file         string
}

// Cards writes the main and detail cards for p under dir/카드뉴스 and
// returns their paths.
func Cards(p listing.Property, b listing.Branding, dir string) ([]string, error) {
	out := filepath.Join(dir, CardsDir)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return nil, fmt.Errorf("create cards directory: %w", err)
	}
	cards := []card{
		{title: p.Address, subtitle: "평균 " + p.AveragePrice, propertyType: p.Type, file: MainCardFile},
		{title: ellipsis(p.MarketAnalysis, 100), subtitle: "상세 정보", propertyType: p.Type, file: DetailCardFile},
	}
	paths := make([]string, 0, len(cards))
	for _, c := range cards {
		path := filepath.Join(out, c.file)
		if err := drawCard(c, b.Agency, path); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func drawCard(c card, agency, path string) error {
	canvas := render.NewCanvas(CardSize, CardSize, cardBackground)
	y := canvas.Lines(render.Wrap(c.title, 40), 50, 200, 4, cardText)
	y = max(y, 300)
	y = canvas.Lines([]string{c.subtitle}, 50, y, 3, cardText)
	canvas.Text("유형: "+c.propertyType, 50, max(y, 400), 3, cardText)
	canvas.Text(agency, 50, 900, 4, cardText)
	if err := canvas.Save(path); err != nil {
		return fmt.Errorf("card %s: %w", c.file, err)
	}
	return nil
}

// ellipsis cuts s to limit runes and appends "..." when it was longer.
func ellipsis(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
