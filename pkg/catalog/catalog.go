// pkg/catalog/catalog.go
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidCatalog = errors.New("CATALOG_INVALID")

//go:embed catalog.schema.json
var schemaJSON []byte

//go:embed default_catalog.json
var defaultCatalogJSON []byte

// LoadCatalog reads and validates a catalog file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Default returns the catalog bundled with the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalogJSON)
}

// Parse checks a raw catalog blob against the JSON schema, decodes it and
// runs the semantic checks in Validate.
func Parse(data []byte) (*Catalog, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(errs, "; "))
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.normalizeMaxLTV()
	return &c, nil
}

func (c *Catalog) applyDefaults() {
	if c.Scoring == (ScoringWeights{}) {
		c.Scoring = ScoringWeights{
			Completeness: defaultCompleteness,
			Accuracy:     defaultAccuracy,
			Compliance:   defaultCompliance,
		}
	}
	if c.MaxLTV == nil {
		c.MaxLTV = map[string]float64{}
	}
	c.reindex()
}

// normalizeMaxLTV lower-cases product keys so lookups are case-insensitive.
func (c *Catalog) normalizeMaxLTV() {
	normalized := make(map[string]float64, len(c.MaxLTV))
	for product, v := range c.MaxLTV {
		normalized[strings.ToLower(product)] = v
	}
	c.MaxLTV = normalized
}

func (c *Catalog) reindex() {
	c.index = make(map[string]int, len(c.DocumentTypes))
	for i, dt := range c.DocumentTypes {
		c.index[dt.ID] = i
	}
}

// Validate enforces the invariants the engine relies on. Scoring weights
// must sum to 75 so the overall score stays within 0..100.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.DocumentTypes))
	for _, dt := range c.DocumentTypes {
		if dt.ID == "" {
			return fmt.Errorf("%w: document type without id", ErrInvalidCatalog)
		}
		if seen[dt.ID] {
			return fmt.Errorf("%w: duplicate document type %q", ErrInvalidCatalog, dt.ID)
		}
		seen[dt.ID] = true

		fields := make(map[string]bool, len(dt.Fields))
		for _, f := range dt.Fields {
			if fields[f.Name] {
				return fmt.Errorf("%w: duplicate field %q in %s", ErrInvalidCatalog, f.Name, dt.ID)
			}
			fields[f.Name] = true
			if f.Validator != "" && !knownValidators[f.Validator] {
				return fmt.Errorf("%w: unknown validator %q on %s.%s", ErrInvalidCatalog, f.Validator, dt.ID, f.Name)
			}
		}
		for _, cond := range dt.Conditions {
			if !knownOperators[cond.Operator] {
				return fmt.Errorf("%w: unknown operator %q on %s", ErrInvalidCatalog, cond.Operator, dt.ID)
			}
		}
		for _, r := range dt.Rules {
			switch r.Severity {
			case SeverityCriticalString, SeverityWarningString, SeverityInfoString:
			default:
				return fmt.Errorf("%w: rule %s on %s has severity %q", ErrInvalidCatalog, r.ID, dt.ID, r.Severity)
			}
		}
	}

	products := make(map[string]string, len(c.MaxLTV))
	for product := range c.MaxLTV {
		key := strings.ToLower(product)
		if prev, dup := products[key]; dup {
			return fmt.Errorf("%w: maxLtv products %q and %q differ only in case", ErrInvalidCatalog, prev, product)
		}
		products[key] = product
	}

	w := c.Scoring
	if w.Completeness < 0 || w.Accuracy < 0 || w.Compliance < 0 {
		return fmt.Errorf("%w: scoring weights must be non-negative", ErrInvalidCatalog)
	}
	if w.Total() != ExpectedScoringTotal {
		return fmt.Errorf("%w: scoring weights sum to %d, want %d", ErrInvalidCatalog, w.Total(), ExpectedScoringTotal)
	}
	return nil
}

// DocumentType looks a definition up by id. It never mutates the catalog,
// so a catalog may be shared across goroutines.
func (c *Catalog) DocumentType(id string) (*DocumentType, bool) {
	if c.index == nil {
		for i := range c.DocumentTypes {
			if c.DocumentTypes[i].ID == id {
				return &c.DocumentTypes[i], true
			}
		}
		return nil, false
	}
	i, ok := c.index[id]
	if !ok {
		return nil, false
	}
	return &c.DocumentTypes[i], true
}

// MaxLTVFor returns the maximum loan-to-value percentage for a product type.
// Product types match case-insensitively.
func (c *Catalog) MaxLTVFor(productType string) float64 {
	v, ok := c.MaxLTV[strings.ToLower(productType)]
	if !ok {
		for product, limit := range c.MaxLTV {
			if strings.EqualFold(product, productType) {
				v, ok = limit, true
				break
			}
		}
	}
	if ok && v > 0 {
		return v
	}
	return DefaultMaxLTV
}

// Rule returns the declared document rule with the given id, if any.
func (dt *DocumentType) Rule(id string) (DocumentRule, bool) {
	for _, r := range dt.Rules {
		if r.ID == id {
			return r, true
		}
	}
	return DocumentRule{}, false
}
