package normalize

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/errors"
)

// Synonym maps a lower-case raw label onto a taxonomy category.
type Synonym struct {
	Key      string `json:"key" yaml:"key" toml:"key"`
	Category string `json:"category" yaml:"category" toml:"category"`
}

// KeywordSet lists the words that suggest a category when classifying free text.
type KeywordSet struct {
	Category string   `json:"category" yaml:"category" toml:"category"`
	Keywords []string `json:"keywords" yaml:"keywords" toml:"keywords"`
}

// Taxonomy is the closed category vocabulary of a catalog.
//
// Synonyms are ordered: partial matches are resolved by the first entry in
// table order, so the same table always yields the same category.
type Taxonomy struct {
	Synonyms []Synonym    `json:"synonyms" yaml:"synonyms" toml:"synonyms"`
	Keywords []KeywordSet `json:"keywords,omitempty" yaml:"keywords,omitempty" toml:"keywords,omitempty"`
}

// Categories returns the distinct categories of the taxonomy in first-seen order.
func (t Taxonomy) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(c string) {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, s := range t.Synonyms {
		add(s.Category)
	}
	for _, k := range t.Keywords {
		add(k.Category)
	}
	return out
}

// Validate checks that every entry is usable.
func (t Taxonomy) Validate() error {
	if len(t.Synonyms) == 0 {
		return errors.NewValidationError("synonyms", nil, "taxonomy has no synonyms")
	}
	for i, s := range t.Synonyms {
		if strings.TrimSpace(s.Key) == "" || strings.TrimSpace(s.Category) == "" {
			return errors.NewValidationError("synonyms", i, "synonym needs both key and category")
		}
		if strings.EqualFold(s.Category, constants.OtherCategory) {
			return errors.NewValidationError("synonyms", s.Key, "cannot map onto the fallback category")
		}
	}
	for _, k := range t.Keywords {
		if k.Category == "" || len(k.Keywords) == 0 {
			return errors.NewValidationError("keywords", k.Category, "keyword set needs a category and keywords")
		}
	}
	return nil
}

// LoadTaxonomy reads a taxonomy from a YAML or TOML file, picked by extension.
func LoadTaxonomy(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Taxonomy{}, errors.WrapIO("read", path, err)
	}
	return ParseTaxonomy(data, filepath.Ext(path), path)
}

// ParseTaxonomy decodes taxonomy data. ext is a file extension such as ".yaml".
func ParseTaxonomy(data []byte, ext, name string) (Taxonomy, error) {
	var t Taxonomy
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &t); err != nil {
			return Taxonomy{}, errors.WrapParse("yaml", name, err)
		}
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&t); err != nil {
			return Taxonomy{}, errors.WrapParse("toml", name, err)
		}
	default:
		return Taxonomy{}, &errors.ParseError{
			Format:  strings.TrimPrefix(ext, "."),
			File:    name,
			Message: "taxonomy must be yaml or toml",
			Err:     errors.ErrUnsupportedFormat,
		}
	}
	for i := range t.Synonyms {
		t.Synonyms[i].Key = strings.ToLower(strings.TrimSpace(t.Synonyms[i].Key))
	}
	if err := t.Validate(); err != nil {
		return Taxonomy{}, err
	}
	return t, nil
}

// DefaultTaxonomy returns the built-in category table.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		Synonyms: synonyms(
			// voice and audio
			"Best Voice AI Tools", "voice", "audio", "text-to-speech", "tts", "speech", "music", "sound",
		).
			add("Content Creation", "text", "writing", "content", "copywriting", "text generation",
				"content creation", "ai writing", "blog", "article").
			add("Image Generation", "image", "art", "design", "graphics", "image generation",
				"ai art", "photo", "visual").
			add("Video Generation", "video", "video editing", "video generation", "animation", "film").
			add("Code Generation", "code", "coding", "programming", "development", "developer tools",
				"dev tools", "software").
			add("AI Automation", "automation", "workflow").
			add("Productivity", "productivity", "business", "task management", "organization").
			add("Social Media", "marketing", "social media", "social").
			add("Paid Search & PPC", "advertising").
			add("Social Media", "campaign").
			add("SEO & Optimization", "seo", "search engine optimization", "optimization").
			add("Email Marketing", "email", "email marketing", "newsletter").
			add("Paid Search & PPC", "ppc", "paid search", "google ads", "facebook ads").
			add("Data Analysis", "data", "analytics", "data analysis", "business intelligence", "bi",
				"reporting", "dashboard").
			add("AI Assistants", "chatbot", "chat", "conversational ai", "assistant", "ai assistant",
				"virtual assistant").
			add("Research & Education", "research", "education", "learning", "study", "academic", "knowledge").
			add("Translation", "translation", "language", "multilingual").
			add("Finance", "finance", "financial", "accounting").
			add("Legal", "legal", "law", "compliance").
			add("Healthcare", "healthcare", "medical", "health"),
		Keywords: []KeywordSet{
			{"SEO & Optimization", []string{"seo", "search engine", "optimization", "ranking", "keyword", "backlink", "serp"}},
			{"Social Media", []string{"social media", "facebook", "twitter", "instagram", "linkedin", "posting", "scheduling"}},
			{"Paid Search & PPC", []string{"ppc", "pay per click", "google ads", "facebook ads", "advertising", "campaign", "bidding"}},
			{"Best Voice AI Tools", []string{"voice", "speech", "audio", "text to speech", "tts", "voice cloning", "speech synthesis"}},
			{"Content Creation", []string{"content", "writing", "blog", "article", "copywriting", "text generation"}},
			{"Video Generation", []string{"video", "animation", "video editing", "motion graphics", "video creation"}},
			{"Image Generation", []string{"image", "photo", "picture", "graphic", "design", "visual", "art generation"}},
			{"AI Automation", []string{"automation", "workflow", "zapier", "integration", "api", "automate"}},
			{"Productivity", []string{"productivity", "task management", "project management", "collaboration", "workspace"}},
			{"Data Analysis", []string{"analytics", "data", "reporting", "dashboard", "insights", "business intelligence"}},
			{"AI Assistants", []string{"customer support", "chatbot", "help desk", "customer service", "support ticket"}},
			{"Email Marketing", []string{"email", "newsletter", "email marketing", "email campaign", "mailing list"}},
			{"Sales", []string{"sales", "crm", "lead generation", "sales funnel", "conversion", "sales automation"}},
		},
	}
}

type synonymList []Synonym

func synonyms(category string, keys ...string) synonymList {
	return synonymList(nil).add(category, keys...)
}

func (l synonymList) add(category string, keys ...string) synonymList {
	for _, k := range keys {
		l = append(l, Synonym{Key: k, Category: category})
	}
	return l
}
