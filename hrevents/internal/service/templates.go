package service

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// Default message templates.
const (
	DefaultBirthdayTemplate    = "Happy Birthday, {{.Name}}! Best wishes on your birthday from {{.Company}}."
	DefaultAnniversaryTemplate = "Happy Work Anniversary, {{.Name}}! Thank you for {{.Ordinal}} great year(s) with {{.Company}}."
)

// MessageData is the data passed to message templates.
type MessageData struct {
	Name    string
	Company string
	Years   int
	Ordinal string // Years with its English ordinal suffix, e.g. "21st"
}

// Templates renders reminder messages.
type Templates struct {
	birthday    *template.Template
	anniversary *template.Template
}

// NewTemplates parses the given templates. Empty strings use the defaults.
func NewTemplates(birthday, anniversary string) (*Templates, error) {
	if strings.TrimSpace(birthday) == "" {
		birthday = DefaultBirthdayTemplate
	}
	if strings.TrimSpace(anniversary) == "" {
		anniversary = DefaultAnniversaryTemplate
	}

	b, err := template.New("birthday").Option("missingkey=error").Parse(birthday)
	if err != nil {
		return nil, fmt.Errorf("invalid birthday template: %w", err)
	}
	a, err := template.New("anniversary").Option("missingkey=error").Parse(anniversary)
	if err != nil {
		return nil, fmt.Errorf("invalid anniversary template: %w", err)
	}

	return &Templates{birthday: b, anniversary: a}, nil
}

// DefaultTemplates returns the built-in templates.
func DefaultTemplates() *Templates {
	t, err := NewTemplates("", "")
	if err != nil {
		panic(err)
	}
	return t
}

// Birthday renders the birthday message.
func (t *Templates) Birthday(name, company string) (string, error) {
	return render(t.birthday, MessageData{Name: name, Company: company})
}

// Anniversary renders the work anniversary message for the given completed years.
func (t *Templates) Anniversary(name, company string, years int) (string, error) {
	return render(t.anniversary, MessageData{
		Name:    name,
		Company: company,
		Years:   years,
		Ordinal: strconv.Itoa(years) + OrdinalSuffix(years),
	})
}

func render(tmpl *template.Template, data MessageData) (string, error) {
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render %s message: %w", tmpl.Name(), err)
	}
	return sb.String(), nil
}

// OrdinalSuffix returns the English ordinal suffix for n: st, nd, rd or th.
// 11, 12 and 13 (and 111, 112, ...) take "th".
func OrdinalSuffix(n int) string {
	if n < 0 {
		n = -n
	}
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
