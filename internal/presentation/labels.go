package presentation

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/mypadicare/internal/domain/entities"
)

//go:embed labels.yaml
var labelsYAML []byte

// LabelSet holds the UI strings for one language.
type LabelSet struct {
	Severity         map[entities.SeverityBucket]string `yaml:"severity"`
	Sections         map[string]string                  `yaml:"sections"`
	EstimatedCost    string                             `yaml:"estimated_cost"`
	ExpectedRecovery string                             `yaml:"expected_recovery"`
	NoTreatment      string                             `yaml:"no_treatment"`
	Diseases         map[string]string                  `yaml:"diseases"`
}

type catalogFile struct {
	Languages            map[entities.Language]LabelSet `yaml:"languages"`
	Descriptions         map[string]string              `yaml:"descriptions"`
	FallbackDescriptions struct {
		Healthy string `yaml:"healthy"`
		Unknown string `yaml:"unknown"`
	} `yaml:"fallback_descriptions"`
}

// Catalog resolves localized labels and disease descriptions. It is
// read-only after construction and safe for concurrent use.
type Catalog struct {
	languages          map[entities.Language]LabelSet
	descriptions       map[string]string
	healthyDescription string
	unknownDescription string
}

// NewCatalog parses the embedded label catalog.
func NewCatalog() (*Catalog, error) {
	return parseCatalog(labelsYAML)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse label catalog: %w", err)
	}
	if _, ok := file.Languages[entities.DefaultLanguage]; !ok {
		return nil, fmt.Errorf("label catalog has no %q labels", entities.DefaultLanguage)
	}
	return &Catalog{
		languages:          file.Languages,
		descriptions:       file.Descriptions,
		healthyDescription: strings.TrimSpace(file.FallbackDescriptions.Healthy),
		unknownDescription: strings.TrimSpace(file.FallbackDescriptions.Unknown),
	}, nil
}

// Labels returns the label set for lang, or the default language's set.
func (c *Catalog) Labels(lang entities.Language) LabelSet {
	if set, ok := c.languages[lang]; ok {
		return set
	}
	return c.languages[entities.DefaultLanguage]
}

// SeverityLabel localizes a severity bucket, falling back to English.
func (c *Catalog) SeverityLabel(lang entities.Language, s entities.SeverityBucket) string {
	if label := c.Labels(lang).Severity[s]; label != "" {
		return label
	}
	if label := c.Labels(entities.DefaultLanguage).Severity[s]; label != "" {
		return label
	}
	return s.Label()
}

// DiseaseName localizes a disease identifier. Unknown identifiers are
// formatted with FormatDiseaseName.
func (c *Catalog) DiseaseName(lang entities.Language, disease string) string {
	if name := c.Labels(lang).Diseases[disease]; name != "" {
		return name
	}
	return FormatDiseaseName(disease)
}

// SectionHeading localizes a treatment section key.
func (c *Catalog) SectionHeading(lang entities.Language, key string) string {
	if heading := c.Labels(lang).Sections[key]; heading != "" {
		return heading
	}
	if heading := c.Labels(entities.DefaultLanguage).Sections[key]; heading != "" {
		return heading
	}
	return FormatDiseaseName(key)
}

// Description returns the cause/advice text for a disease label.
func (c *Catalog) Description(disease string) string {
	if text, ok := c.descriptions[disease]; ok {
		return strings.TrimSpace(text)
	}
	if entities.HealthStatusFor(disease) == entities.HealthStatusHealthy {
		return c.healthyDescription
	}
	return c.unknownDescription
}

// FormatDiseaseName renders an identifier for display ("brown_spot" becomes
// "Brown Spot"). Lookups always use the raw identifier.
func FormatDiseaseName(disease string) string {
	return entities.DiseaseDisplayName(disease)
}
