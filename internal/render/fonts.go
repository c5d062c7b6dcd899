package render

import (
	"log"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// FontSet holds the faces used by the HUD and overlay.
// Faces are created once at startup, never per frame.
type FontSet struct {
	Small  font.Face // labels
	Medium font.Face // overlay subtext
	Large  font.Face // overlay title
	Loaded bool      // false when running on the bitmap fallback
}

// fontSearchPaths are tried in order when FONT_PATH is unset.
var fontSearchPaths = []string{
	"assets/fonts/Orbitron-Bold.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/System/Library/Fonts/Helvetica.ttc",
	"C:\\Windows\\Fonts\\arialbd.ttf",
	"C:\\Windows\\Fonts\\arial.ttf",
}

// LoadFonts parses the first usable TrueType font and builds the face set.
// When nothing is found every face falls back to basicfont.Face7x13 so text
// still renders.
func LoadFonts(scale float64) FontSet {
	fallback := FontSet{
		Small:  basicfont.Face7x13,
		Medium: basicfont.Face7x13,
		Large:  basicfont.Face7x13,
	}

	fontPath := getFontPath()
	if fontPath == "" {
		log.Println("⚠️ No font found, using bitmap fallback")
		return fallback
	}

	fontData, err := os.ReadFile(fontPath)
	if err != nil {
		log.Printf("⚠️ Failed to read font file: %v", err)
		return fallback
	}

	parsedFont, err := opentype.Parse(fontData)
	if err != nil {
		log.Printf("⚠️ Failed to parse font: %v", err)
		return fallback
	}

	if scale <= 0 {
		scale = 1
	}
	sizes := [3]float64{22 * scale, 28 * scale, 56 * scale}
	var faces [3]font.Face
	for i, size := range sizes {
		faces[i], err = opentype.NewFace(parsedFont, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			log.Printf("⚠️ Failed to create font face (%.0fpt): %v", size, err)
			return fallback
		}
	}

	log.Printf("✅ Fonts loaded and cached from: %s", fontPath)
	return FontSet{Small: faces[0], Medium: faces[1], Large: faces[2], Loaded: true}
}

func getFontPath() string {
	if p := os.Getenv("FONT_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	for _, p := range fontSearchPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	// Try to find any ttf in current directory
	matches, _ := filepath.Glob("*.ttf")
	if len(matches) > 0 {
		return matches[0]
	}

	return ""
}
