package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteoptz/toolcatalog/pkg/errors"
)

func TestCategory(t *testing.T) {
	n := Default()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"exact synonym", "AI art", "Image Generation"},
		{"case and space", "  Video Editing ", "Video Generation"},
		{"no match", "quantum widget", "other"},
		{"empty", "", "other"},
		{"label contains key", "voice cloning", "Best Voice AI Tools"},
		{"key contains label", "paid", "Paid Search & PPC"},
		{"duplicate key keeps first position", "advertising", "Paid Search & PPC"},
		{"partial in table order", "content marketing", "Content Creation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Category(tt.raw))
		})
	}
}

func TestCategoryDeterministic(t *testing.T) {
	n := Default()
	inputs := []string{"marketing automation", "ai writing assistant", "bi", "Legal AI", "x"}
	for _, in := range inputs {
		first := n.Category(in)
		for i := 0; i < 50; i++ {
			require.Equal(t, first, n.Category(in), "input %q", in)
		}
	}
}

func TestCategoryFixtureTaxonomy(t *testing.T) {
	n := New(Taxonomy{Synonyms: []Synonym{
		{Key: "widget", Category: "Widgets"},
		{Key: "quantum", Category: "Physics"},
	}})

	assert.Equal(t, "Widgets", n.Category("quantum widget"))
	assert.Equal(t, "Physics", n.Category("quantum"))
	assert.Equal(t, "other", n.Category("AI art"))
	assert.True(t, n.IsCategory("Physics"))
	assert.True(t, n.IsCategory("other"))
	assert.False(t, n.IsCategory("Image Generation"))
}

func TestClassify(t *testing.T) {
	n := Default()

	assert.Equal(t, "Best Voice AI Tools",
		n.Classify("Realistic text to speech with voice cloning", "Multiple languages"))
	assert.Equal(t, "SEO & Optimization",
		n.Classify("Track keyword ranking and backlink health", "SERP reports"))
	assert.Equal(t, "other", n.Classify("A quantum widget"))
	assert.Equal(t, "other", n.Classify())
}

func TestDeriveID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Jasper AI", "jasper-ai"},
		{"  ChatGPT  ", "chatgpt"},
		{"Chat GPT", "chat-gpt"},
		{"Notion AI (Beta)!", "notion-ai-beta"},
		{"a -- b", "a-b"},
		{"---", ""},
		{"Café Bot", "caf-bot"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := DeriveID(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, DeriveID(got), "fixed point")
			assert.Equal(t, got, DeriveID(tt.in), "deterministic")
		})
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"https://www.Jasper.ai/pricing", "jasper.ai"},
		{"jasper.ai", "jasper.ai"},
		{"http://chat.openai.com", "chat.openai.com"},
		{"httpbin.org/get", "httpbin.org"},
		{"", ""},
		{"not a url", ""},
		{"ftp://files.example.com", ""},
		{"https://", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.NotPanics(t, func() { ExtractDomain(tt.in) })
			assert.Equal(t, tt.want, ExtractDomain(tt.in))
		})
	}
}

func TestCanonicalURL(t *testing.T) {
	assert.Equal(t, "https://jasper.ai", CanonicalURL("jasper.ai"))
	assert.Equal(t, "http://example.com/x", CanonicalURL("http://EXAMPLE.com/x"))
	assert.Empty(t, CanonicalURL("not a url"))
}

func TestParseTaxonomy(t *testing.T) {
	yamlData := []byte(`
synonyms:
  - key: Widget
    category: Widgets
keywords:
  - category: Widgets
    keywords: [gadget]
`)
	tax, err := ParseTaxonomy(yamlData, ".yaml", "fixture.yaml")
	require.NoError(t, err)
	assert.Equal(t, []Synonym{{Key: "widget", Category: "Widgets"}}, tax.Synonyms)
	assert.Equal(t, "Widgets", New(tax).Classify("a gadget"))

	tomlData := []byte(`
[[synonyms]]
key = "quantum"
category = "Physics"
`)
	tax, err = ParseTaxonomy(tomlData, ".toml", "fixture.toml")
	require.NoError(t, err)
	assert.Equal(t, []string{"Physics"}, tax.Categories())

	_, err = ParseTaxonomy(yamlData, ".ini", "fixture.ini")
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)

	_, err = ParseTaxonomy([]byte("synonyms: []\n"), ".yml", "empty.yml")
	assert.True(t, errors.IsValidationError(err))

	_, err = ParseTaxonomy([]byte("synonyms:\n  - key: x\n    category: other\n"), ".yml", "bad.yml")
	assert.True(t, errors.IsValidationError(err))
}

func TestDefaultTaxonomyIsValid(t *testing.T) {
	tax := DefaultTaxonomy()
	require.NoError(t, tax.Validate())
	cats := tax.Categories()
	assert.Contains(t, cats, "Image Generation")
	assert.Contains(t, cats, "Sales")
	assert.NotContains(t, cats, "other")
}
