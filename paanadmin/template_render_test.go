package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderTemplateFieldTokens(t *testing.T) {
	data := TemplateData{Fields: map[string]string{"name": "Jane", "reference_number": "PAAN-A1B2C3"}}

	out := renderTemplate("Hello {{name}}, your reference is {{ reference_number }}.", data)

	assert.Equal(t, "Hello Jane, your reference is PAAN-A1B2C3.", out)
}

func TestRenderTemplateMissingFieldIsEmpty(t *testing.T) {
	data := TemplateData{Fields: map[string]string{"name": "Jane"}}

	out := renderTemplate("Hello {{name}}{{nickname}}.", data)

	assert.Equal(t, "Hello Jane.", out)
}

func TestRenderTemplateIfBlock(t *testing.T) {
	data := TemplateData{Fields: map[string]string{"name": "Jane", "country": "Kenya"}}

	tmpl := "Hi {{name}}.{{#if country}} We see you are in {{country}}.{{/if}}{{#if score}} Score: {{score}}.{{/if}}"
	out := renderTemplate(tmpl, data)

	assert.Equal(t, "Hi Jane. We see you are in Kenya.", out)
}

func TestRenderTemplateEachBlock(t *testing.T) {
	data := TemplateData{
		Fields: map[string]string{"name": "Jane"},
		Lists: map[string][]map[string]string{
			"answers": {
				{"question": "Q1", "answer": "A1"},
				{"question": "Q2", "answer": "A2"},
			},
		},
	}

	out := renderTemplate("{{#each answers}}{{question}}: {{answer}}\n{{/each}}", data)

	assert.Equal(t, "Q1: A1\nQ2: A2\n", out)
}

func TestRenderTemplateEachItemFallsBackToOuterFields(t *testing.T) {
	data := TemplateData{
		Fields: map[string]string{"name": "Jane"},
		Lists: map[string][]map[string]string{
			"answers": {{"question": "Q1"}},
		},
	}

	out := renderTemplate("{{#each answers}}{{name}} answered {{question}}{{/each}}", data)

	assert.Equal(t, "Jane answered Q1", out)
}

func TestRenderTemplateUnboundEachBlockDropped(t *testing.T) {
	data := TemplateData{Fields: map[string]string{"name": "Jane"}}

	out := renderTemplate("Start.{{#each answers}}{{question}}{{/each}}End.", data)

	assert.Equal(t, "Start.End.", out)
}
