package main

import (
	"regexp"
	"strings"
)

// TemplateData is the typed context for operator-editable templates stored in
// email_templates. Fields fill {{name}} tokens and drive {{#if name}} blocks;
// Lists drive {{#each name}} blocks, where each item's fields are scoped to
// the block body and fall back to the outer Fields.
type TemplateData struct {
	Fields map[string]string
	Lists  map[string][]map[string]string
}

var (
	eachBlockRe = regexp.MustCompile(`(?s){{#each\s+([A-Za-z0-9_]+)}}(.*?){{/each}}`)
	ifBlockRe   = regexp.MustCompile(`(?s){{#if\s+([A-Za-z0-9_]+)}}(.*?){{/if}}`)
	fieldRe     = regexp.MustCompile(`{{\s*([A-Za-z0-9_]+)\s*}}`)
)

func renderTemplate(body string, data TemplateData) string {
	out := eachBlockRe.ReplaceAllStringFunc(body, func(block string) string {
		parts := eachBlockRe.FindStringSubmatch(block)
		listName, inner := parts[1], parts[2]

		items, ok := data.Lists[listName]
		if !ok {
			InfoLog.Println("renderTemplate: no list bound for #each " + listName)
			return ""
		}

		var b strings.Builder
		for _, item := range items {
			b.WriteString(renderScalarTokens(inner, data.Fields, item))
		}
		return b.String()
	})

	return renderScalarTokens(out, data.Fields, nil)
}

func renderScalarTokens(body string, fields, scoped map[string]string) string {
	lookup := func(name string) string {
		if scoped != nil {
			if v, ok := scoped[name]; ok {
				return v
			}
		}
		if v, ok := fields[name]; ok {
			return v
		}
		return ""
	}

	out := ifBlockRe.ReplaceAllStringFunc(body, func(block string) string {
		parts := ifBlockRe.FindStringSubmatch(block)
		name, inner := parts[1], parts[2]

		if lookup(name) == "" {
			return ""
		}
		return inner
	})

	return fieldRe.ReplaceAllStringFunc(out, func(token string) string {
		name := fieldRe.FindStringSubmatch(token)[1]
		v := lookup(name)
		if v == "" {
			InfoLog.Println("renderTemplate: no value bound for token " + name)
		}
		return v
	})
}
