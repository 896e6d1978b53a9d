package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
)

// Product is an entry of a grocery or cafe catalog
type Product struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name"`
	Category string   `json:"category,omitempty"`
	Price    Cents    `json:"price"`
	Tags     []string `json:"tags,omitempty"`

	// Attributes holds any other catalog fields (brand, unit, size...)
	Attributes map[string]any `json:"-"`
}

// ItemID returns the identifier used to merge cart entries. Catalogs without
// an id field fall back to the product name.
func (p *Product) ItemID() string {
	if p.ID != "" {
		return p.ID
	}
	return p.Name
}

// LookupName implements lookup.Keyed
func (p *Product) LookupName() string { return p.Name }

// LookupTags implements lookup.Keyed
func (p *Product) LookupTags() []string { return p.Tags }

var productKeys = map[string]bool{"id": true, "name": true, "category": true, "price": true, "tags": true}

func (p *Product) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return goerr.Wrap(ErrMalformedRecord, "product is not an object", goerr.V("error", err.Error()))
	}

	name, ok := raw["name"].(string)
	if !ok || name == "" {
		return goerr.Wrap(ErrMalformedRecord, "product has no name")
	}

	*p = Product{
		ID:    stringify(raw["id"]),
		Name:  name,
		Price: ParsePrice(raw["price"]),
	}
	if c, ok := raw["category"].(string); ok {
		p.Category = c
	}
	if tags, ok := raw["tags"].([]any); ok {
		for _, t := range tags {
			if s, ok := t.(string); ok {
				p.Tags = append(p.Tags, s)
			}
		}
	}

	for k, v := range raw {
		if productKeys[k] {
			continue
		}
		if p.Attributes == nil {
			p.Attributes = make(map[string]any)
		}
		p.Attributes[k] = v
	}
	return nil
}

func (p Product) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Attributes)+5)
	for k, v := range p.Attributes {
		out[k] = v
	}
	if p.ID != "" {
		out["id"] = p.ID
	}
	out["name"] = p.Name
	if p.Category != "" {
		out["category"] = p.Category
	}
	out["price"] = p.Price
	if len(p.Tags) > 0 {
		out["tags"] = p.Tags
	}
	return json.Marshal(out)
}

// FAQEntry is a question/answer pair of a company FAQ
type FAQEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// LookupText implements lookup.Document
func (f *FAQEntry) LookupText() (string, string) {
	return f.Question, f.Answer
}

// stringify renders scalar ids ("12", 12, 12.0) the same way
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
