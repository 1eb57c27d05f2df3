package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
)

// FontCatalog loads and caches typefaces and walks the fallback chain:
// the profile's own font file, then a family-name match among the
// configured paths, then the configured paths in order, then the built-in
// bitmap face. The first available match is logged once per chain walk.
type FontCatalog struct {
	paths  []string
	logger *zap.Logger

	mu     sync.Mutex
	fonts  map[string]*opentype.Font
	faces  map[faceKey]font.Face
	logged map[string]bool
}

type faceKey struct {
	path string
	size int
}

// NewFontCatalog returns a catalog over the configured fallback paths.
func NewFontCatalog(paths []string, logger *zap.Logger) *FontCatalog {
	return &FontCatalog{
		paths:  paths,
		logger: logger,
		fonts:  make(map[string]*opentype.Font),
		faces:  make(map[faceKey]font.Face),
		logged: make(map[string]bool),
	}
}

// Face resolves a drawable face for the given profile font settings and
// pixel size. Never fails: the platform-default bitmap face is the final
// fallback when the whole chain is exhausted.
func (c *FontCatalog) Face(profileFontFile, family string, size float64) font.Face {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, path := range c.chain(profileFontFile, family) {
		face, err := c.faceForPath(path, size)
		if err != nil {
			continue
		}
		if !c.logged[path] {
			c.logged[path] = true
			c.logger.Info("Resolved font", zap.String("path", path), zap.String("family", family))
		}
		return face
	}

	if !c.logged["basicfont"] {
		c.logged["basicfont"] = true
		c.logger.Warn("No configured font available, falling back to built-in face",
			zap.String("family", family))
	}
	return basicfont.Face7x13
}

func (c *FontCatalog) chain(profileFontFile, family string) []string {
	var chain []string
	if profileFontFile != "" {
		chain = append(chain, profileFontFile)
	}
	if family != "" {
		needle := strings.ToLower(strings.ReplaceAll(family, " ", ""))
		for _, p := range c.paths {
			base := strings.ToLower(filepath.Base(p))
			if strings.Contains(strings.ReplaceAll(base, " ", ""), needle) {
				chain = append(chain, p)
			}
		}
	}
	chain = append(chain, c.paths...)
	return chain
}

func (c *FontCatalog) faceForPath(path string, size float64) (font.Face, error) {
	key := faceKey{path: path, size: int(size)}
	if face, ok := c.faces[key]; ok {
		return face, nil
	}

	f, ok := c.fonts[path]
	if !ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read font %s: %w", path, err)
		}
		f, err = opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
		}
		c.fonts[path] = f
	}

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build face for %s: %w", path, err)
	}
	c.faces[key] = face
	return face, nil
}
