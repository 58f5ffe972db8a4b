package gemini

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/phrazzld/arcana/internal/interpretation"
)

//go:embed templates/reading.tmpl
var templateFS embed.FS

const defaultTemplate = "templates/reading.tmpl"

// promptData represents the data passed to the prompt template
type promptData struct {
	interpretation.Request
	Language string
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

// loadTemplate parses the template at path, or the embedded one when path is empty.
func loadTemplate(path string) (*template.Template, error) {
	var (
		content []byte
		err     error
	)
	if path == "" {
		content, err = templateFS.ReadFile(defaultTemplate)
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read prompt template: %v", interpretation.ErrInvalidConfig, err)
	}

	tmpl, err := template.New("reading").Funcs(templateFuncs).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", interpretation.ErrInvalidConfig, err)
	}
	return tmpl, nil
}

// renderPrompt executes tmpl for req.
func renderPrompt(tmpl *template.Template, req interpretation.Request) (string, error) {
	if len(req.Cards) == 0 {
		return "", fmt.Errorf("%w: no cards", interpretation.ErrInvalidRequest)
	}

	var buf bytes.Buffer
	data := promptData{Request: req, Language: interpretation.LanguageName(req.Locale)}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return buf.String(), nil
}
