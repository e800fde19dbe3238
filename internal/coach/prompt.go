package coach

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// promptBuilder renders one template per intent.
type promptBuilder struct {
	templates map[Intent]*template.Template
}

func newPromptBuilder() (*promptBuilder, error) {
	pb := &promptBuilder{
		templates: make(map[Intent]*template.Template),
	}

	funcMap := template.FuncMap{
		"formatAmount":     formatAmount,
		"formatCategories": formatCategories,
		"join":             strings.Join,
	}

	for _, intent := range []Intent{IntentFinance, IntentGrocery, IntentGeneral} {
		filename := fmt.Sprintf("templates/%s.tmpl", intent)
		tmpl, err := template.New(fmt.Sprintf("%s.tmpl", intent)).Funcs(funcMap).ParseFS(templateFS, filename)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", intent, err)
		}
		pb.templates[intent] = tmpl
	}

	return pb, nil
}

// promptData is everything a template may reference.
type promptData struct {
	ReceiptSummary   string
	NutritionExcerpt string
	Question         string
	Categories       []CategoryTotal
	MatchedTerms     []string
	TotalSpend       float64
	Savings          float64
}

func (pb *promptBuilder) build(intent Intent, data promptData) (string, error) {
	tmpl, ok := pb.templates[intent]
	if !ok {
		return "", fmt.Errorf("no template for intent %q", intent)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, fmt.Sprintf("%s.tmpl", intent), data); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", intent, err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
