package forms

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/moosefactory/registrar-api/internal/models"
)

// Definition binds a form type to its field schema and document template.
type Definition struct {
	Type   string
	Title  string
	schema *jsonschema.Schema
	tmpl   *template.Template
}

// RenderInput carries the data injected into a document template.
type RenderInput struct {
	Title       string
	StudentName string
	Email       string
	Fields      map[string]interface{}
	GeneratedAt time.Time
}

var registry = map[string]*Definition{}

func init() {
	register(models.FormPetition, "General Petition", petitionSchema, petitionTemplate)
	register(models.FormWithdrawal, "Course Withdrawal", withdrawalSchema, withdrawalTemplate)
	register(models.FormInterInstitutional, "Inter-Institutional Enrollment", interInstitutionalSchema, interInstitutionalTemplate)
	register(models.FormUndergradPetition, "Undergraduate Petition", undergradPetitionSchema, undergradPetitionTemplate)
}

func register(formType, title, rawSchema, rawTemplate string) {
	compiler := jsonschema.NewCompiler()
	resource := formType + ".schema.json"
	if err := compiler.AddResource(resource, strings.NewReader(rawSchema)); err != nil {
		panic(fmt.Sprintf("forms: invalid schema for %s: %v", formType, err))
	}

	registry[formType] = &Definition{
		Type:   formType,
		Title:  title,
		schema: compiler.MustCompile(resource),
		tmpl:   template.Must(template.New(formType).Parse(rawTemplate)),
	}
}

// Get looks up the definition for a form type.
func Get(formType string) (*Definition, bool) {
	def, ok := registry[formType]
	return def, ok
}

// Types lists the registered form types.
func Types() []string {
	types := make([]string, 0, len(registry))
	for formType := range registry {
		types = append(types, formType)
	}
	return types
}

// Validate checks the submitted field values against the form schema.
func (d *Definition) Validate(fields map[string]interface{}) error {
	return d.schema.Validate(normalize(fields))
}

// RenderHTML produces the document markup handed to the typesetter.
func (d *Definition) RenderHTML(input RenderInput) (string, error) {
	if input.Title == "" {
		input.Title = d.Title
	}
	if input.GeneratedAt.IsZero() {
		input.GeneratedAt = time.Now().UTC()
	}

	var buf bytes.Buffer
	if err := d.tmpl.Execute(&buf, input); err != nil {
		return "", fmt.Errorf("render %s template: %w", d.Type, err)
	}

	return buf.String(), nil
}

// normalize rewrites nested values into the generic JSON types the schema
// validator expects.
func normalize(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, item := range v {
			out[key] = normalize(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, item := range v {
			out[i] = normalize(item)
		}
		return out
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	default:
		return v
	}
}
