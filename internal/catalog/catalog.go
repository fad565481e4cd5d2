package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// AllCategories matches every product when used as a List filter.
const AllCategories = "All"

//go:embed products.yaml
var defaultDocument []byte

// Product is read-only reference data for the storefront.
type Product struct {
	ID          string          `yaml:"id"`
	Name        string          `yaml:"name"`
	Category    string          `yaml:"category"`
	Price       decimal.Decimal `yaml:"-"`
	RawPrice    string          `yaml:"price"`
	Image       string          `yaml:"image"`
	Description string          `yaml:"description"`
}

type document struct {
	Categories []string  `yaml:"categories"`
	Products   []Product `yaml:"products"`
}

// Provider is the read surface consumed by the cart and the product views.
type Provider interface {
	List(category string) []Product
	Get(id string) (Product, bool)
	Categories() []string
}

// Catalog is an immutable, in-memory Provider.
type Catalog struct {
	categories []string
	products   []Product
	byID       map[string]int
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultDocument)
}

// Load reads a catalog document from disk, falling back to the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %q: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a YAML catalog document.
func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := &Catalog{
		products: make([]Product, 0, len(doc.Products)),
		byID:     make(map[string]int, len(doc.Products)),
	}
	known := map[string]struct{}{}
	for _, category := range doc.Categories {
		category = strings.TrimSpace(category)
		if category == "" {
			continue
		}
		if _, dup := known[strings.ToLower(category)]; dup {
			continue
		}
		known[strings.ToLower(category)] = struct{}{}
		c.categories = append(c.categories, category)
	}

	for i, p := range doc.Products {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("product %d: id is required", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("product %q: duplicate id", p.ID)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(p.RawPrice))
		if err != nil {
			return nil, fmt.Errorf("product %q: invalid price %q: %w", p.ID, p.RawPrice, err)
		}
		if price.IsNegative() {
			return nil, fmt.Errorf("product %q: price must be non-negative", p.ID)
		}
		p.Price = price
		if _, ok := known[strings.ToLower(p.Category)]; !ok && p.Category != "" {
			known[strings.ToLower(p.Category)] = struct{}{}
			c.categories = append(c.categories, p.Category)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// List returns products in document order, filtered by category. An empty
// category or "All" returns everything; matching ignores case.
func (c *Catalog) List(category string) []Product {
	category = strings.TrimSpace(category)
	all := category == "" || strings.EqualFold(category, AllCategories)

	out := make([]Product, 0, len(c.products))
	for _, p := range c.products {
		if all || strings.EqualFold(p.Category, category) {
			out = append(out, p)
		}
	}
	return out
}

// Get looks a product up by id.
func (c *Catalog) Get(id string) (Product, bool) {
	idx, ok := c.byID[strings.TrimSpace(id)]
	if !ok {
		return Product{}, false
	}
	return c.products[idx], true
}

// Categories returns the filter options, "All" first.
func (c *Catalog) Categories() []string {
	out := make([]string, 0, len(c.categories)+1)
	out = append(out, AllCategories)
	return append(out, c.categories...)
}
