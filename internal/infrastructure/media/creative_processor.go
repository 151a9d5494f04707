// Package media provides ad creative image processing utilities
package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/pressroomhq/pressroom-go/internal/domain/entities/ads"
)

// CreativeProcessor fits uploaded ad creatives to their slot-shape
// dimensions and stores them as webp.
type CreativeProcessor struct {
	basePath string // Points to the media/creatives directory served by nginx
}

// NewCreativeProcessor creates a new CreativeProcessor instance
func NewCreativeProcessor(basePath string) *CreativeProcessor {
	return &CreativeProcessor{basePath: basePath}
}

var base64ImagePattern = regexp.MustCompile(`^data:image/(png|jpeg|jpg|webp);base64,`)

// ProcessCreative decodes a base64 creative upload, resizes it to the exact
// dimensions of the target slot shape, encodes it as webp and writes it
// under <basePath>/<adID>/. Returns the relative URL path for serving.
func (p *CreativeProcessor) ProcessCreative(data, adID string, slot ads.SlotType) (string, error) {
	if data == "" {
		return "", fmt.Errorf("empty creative data")
	}

	dims, ok := ads.SlotDimensions[slot]
	if !ok {
		return "", fmt.Errorf("unsupported slot type %q", slot)
	}

	if !base64ImagePattern.MatchString(data) {
		return "", fmt.Errorf("unsupported creative format")
	}
	b64Data := base64ImagePattern.ReplaceAllString(data, "")

	decoded, err := base64.StdEncoding.DecodeString(b64Data)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	src, err := imaging.Decode(bytes.NewReader(decoded))
	if err != nil {
		return "", fmt.Errorf("failed to decode creative image: %w", err)
	}

	// Fill crops to the slot's aspect ratio before resizing so the creative
	// always lands at the exact slot dimensions.
	fitted := imaging.Fill(src, dims[0], dims[1], imaging.Center, imaging.Lanczos)

	webpData, err := webp.EncodeRGBA(fitted, 85)
	if err != nil {
		return "", fmt.Errorf("failed to encode webp: %w", err)
	}

	targetDir := filepath.Join(p.basePath, adID)
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	filename := fmt.Sprintf("%s.webp", string(slot))
	if err := os.WriteFile(filepath.Join(targetDir, filename), webpData, 0644); err != nil {
		return "", fmt.Errorf("failed to write creative: %w", err)
	}

	relativePath := filepath.Join("/media/creatives", adID, filename)
	return strings.ReplaceAll(relativePath, "\\", "/"), nil
}

// RemoveCreatives deletes every stored creative for an ad.
func (p *CreativeProcessor) RemoveCreatives(adID string) error {
	return os.RemoveAll(filepath.Join(p.basePath, adID))
}
