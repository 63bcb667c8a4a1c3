// Package outreach plans scheduled touch sequences for scored leads.
package outreach

import (
	"bytes"
	"os"
	"text/template"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Touch is one templated step in an outreach sequence. Subject and Body are
// text/template sources.
type Touch struct {
	Name    string `yaml:"name"`
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// TemplateData is the rendering context for one action.
type TemplateData struct {
	Company string
	Domain  string
	Step    int
}

// templatesFile is the shape of an on-disk template override.
type templatesFile struct {
	Touches []Touch `yaml:"touches"`
}

// DefaultTouches is the built-in 3-touch email sequence.
var DefaultTouches = []Touch{
	{
		Name:    "intro",
		Subject: "Quick question about {{.Company}}'s shop floor",
		Body: `Hi,

I came across {{.Company}} ({{.Domain}}) and wanted to reach out. We work with
job shops and contract manufacturers to take repetitive machine-tending and
material-handling work off their operators' plates.

Would you be open to a short call to see whether that maps to your floor?

Best regards`,
	},
	{
		Name:    "follow-up",
		Subject: "Re: Quick question about {{.Company}}'s shop floor",
		Body: `Hi,

Following up on my earlier note. Most shops we talk to are juggling high-mix,
low-volume work with too few hands. If that sounds familiar, I'd love to
compare notes.

Best regards`,
	},
	{
		Name:    "breakup",
		Subject: "Closing the loop with {{.Company}}",
		Body: `Hi,

I haven't heard back, so I'll assume the timing isn't right and stop here.
If automating repetitive machine operations becomes a priority for
{{.Domain}}, my inbox is open.

Best regards`,
	},
}

// LoadTouches reads a touch sequence from a YAML file, or returns the
// built-in sequence when path is empty.
func LoadTouches(path string) ([]Touch, error) {
	if path == "" {
		return DefaultTouches, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "outreach: read templates %s", path)
	}
	var f templatesFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, eris.Wrapf(err, "outreach: parse templates %s", path)
	}
	if len(f.Touches) == 0 {
		return nil, eris.Errorf("outreach: templates file %s defines no touches", path)
	}
	for i, touch := range f.Touches {
		if touch.Name == "" {
			return nil, eris.Errorf("outreach: touch %d in %s has no name", i+1, path)
		}
	}
	return f.Touches, nil
}

// Render fills one touch's subject and body for a lead.
func Render(touch Touch, data TemplateData) (subject, body string, err error) {
	subject, err = renderOne(touch.Name+".subject", touch.Subject, data)
	if err != nil {
		return "", "", err
	}
	body, err = renderOne(touch.Name+".body", touch.Body, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

func renderOne(name, src string, data TemplateData) (string, error) {
	tmpl, err := template.New(name).Parse(src)
	if err != nil {
		return "", eris.Wrapf(err, "outreach: parse template %s", name)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", eris.Wrapf(err, "outreach: render template %s", name)
	}
	return buf.String(), nil
}
