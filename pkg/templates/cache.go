package templates

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateCache parses prompt templates once. A template is looked up as
// "<name>.tmpl" in the templates path, otherwise the name itself is parsed as
// the template text.
type TemplateCache struct {
	mu            sync.Mutex
	templatesPath string
	templates     map[string]*template.Template
}

func NewTemplateCache(templatesPath string) *TemplateCache {
	return &TemplateCache{
		templatesPath: templatesPath,
		templates:     make(map[string]*template.Template),
	}
}

func (tc *TemplateCache) EvaluateTemplate(templateName string, in interface{}) (string, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	m, ok := tc.templates[templateName]
	if !ok {
		var err error
		m, err = tc.loadTemplate(templateName)
		if err != nil {
			return "", err
		}
		tc.templates[templateName] = m
	}

	var buf bytes.Buffer
	if err := m.Execute(&buf, in); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (tc *TemplateCache) loadTemplate(templateName string) (*template.Template, error) {
	dat := templateName

	if tc.templatesPath != "" {
		templateFile := fmt.Sprintf("%s.tmpl", templateName)
		file := filepath.Join(tc.templatesPath, templateFile)

		// only files below the templates path are considered
		if filepath.IsLocal(templateFile) {
			if d, err := os.ReadFile(file); err == nil {
				dat = string(d)
			}
		}
	}

	tmpl, err := template.New("prompt").Funcs(sprig.FuncMap()).Parse(dat)
	if err != nil {
		return nil, fmt.Errorf("cannot parse template %q: %w", templateName, err)
	}
	return tmpl, nil
}
