package colorx

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/promoforge-inc/promoforge-engine/pkg/models"
)

// Cache stores harmonized images on disk, keyed by a hash of the inputs.
// Content-addressed: concurrent identical requests may recompute
// redundantly but the last writer wins with identical bytes.
type Cache struct {
	dir    string
	logger *zap.Logger
}

// NewCache returns a cache rooted at dir, creating it if needed.
func NewCache(dir string, logger *zap.Logger) (*Cache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create harmonization cache dir: %w", err)
	}
	return &Cache{dir: dir, logger: logger}, nil
}

// HarmonizeFile harmonizes the image at srcPath and returns the path of
// the processed copy. On any failure the original path is returned; the
// caller keeps rendering with the untouched image.
func (c *Cache) HarmonizeFile(srcPath, brandHex string, mode models.ColorFitMode, strength float64) string {
	if mode == models.ColorFitNone {
		return srcPath
	}
	brand, err := ParseHex(brandHex)
	if err != nil {
		c.logger.Warn("Invalid brand color for harmonization, using original image",
			zap.String("color", brandHex), zap.Error(err))
		return srcPath
	}

	key := cacheKey(srcPath, brandHex, mode, strength)
	cached := filepath.Join(c.dir, key+".png")
	if _, err := os.Stat(cached); err == nil {
		return cached
	}

	img, err := imaging.Open(srcPath)
	if err != nil {
		c.logger.Warn("Failed to open image for harmonization, using original",
			zap.String("path", srcPath), zap.Error(err))
		return srcPath
	}

	out := Harmonize(img, brand, mode, strength)
	if err := imaging.Save(out, cached); err != nil {
		c.logger.Warn("Failed to write harmonization cache entry, using original",
			zap.String("path", cached), zap.Error(err))
		return srcPath
	}
	return cached
}

func cacheKey(srcPath, brandHex string, mode models.ColorFitMode, strength float64) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%.3f", srcPath, brandHex, mode, strength)
	return hex.EncodeToString(h.Sum(nil))[:32]
}
