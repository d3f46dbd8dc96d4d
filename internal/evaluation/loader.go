package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

// LoadManifest reads a labelled image set from a JSON file. Relative image
// paths are resolved against the manifest's directory.
func LoadManifest(path string) ([]LabeledImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var images []LabeledImage
	if err := json.Unmarshal(data, &images); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	base := filepath.Dir(path)
	for i := range images {
		if images[i].Path != "" && !filepath.IsAbs(images[i].Path) {
			images[i].Path = filepath.Join(base, images[i].Path)
		}
	}
	return images, nil
}

// ValidateManifest checks ids are present and unique, every image has a
// path and every label belongs to the classifier vocabulary.
func ValidateManifest(images []LabeledImage) error {
	if len(images) == 0 {
		return fmt.Errorf("manifest is empty")
	}
	seen := make(map[string]struct{}, len(images))

	for i, img := range images {
		if img.ID == "" {
			return fmt.Errorf("image at index %d: missing id", i)
		}
		if _, dup := seen[img.ID]; dup {
			return fmt.Errorf("image at index %d: duplicate id %q", i, img.ID)
		}
		seen[img.ID] = struct{}{}

		if img.Path == "" {
			return fmt.Errorf("image %q: missing path", img.ID)
		}
		if !entities.IsKnownDisease(img.Label) {
			return fmt.Errorf("image %q: unknown label %q", img.ID, img.Label)
		}
		if !img.Difficulty.IsValid() {
			return fmt.Errorf("image %q: invalid difficulty %q (must be easy/medium/hard)", img.ID, img.Difficulty)
		}
	}
	return nil
}
