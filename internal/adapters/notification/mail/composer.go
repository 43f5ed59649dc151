package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/ogurasousui/company-lifecycle/internal/core/company"
	"gopkg.in/yaml.v3"
)

// DefaultLocale は文面の既定言語です。
const DefaultLocale = "pl"

//go:embed catalogs/*.yaml
var catalogFS embed.FS

//go:embed templates/base.html.tmpl
var baseTemplate string

var eventKeys = map[company.Event]string{
	company.EventCreated:       "created",
	company.EventUpdated:       "updated",
	company.EventActiveChanged: "changeActive",
	company.EventDeleted:       "deleted",
}

// Composer は翻訳カタログと HTML レイアウトから通知メールを組み立てます。
type Composer struct {
	locale  string
	catalog map[string]string
	layout  *template.Template
}

var _ company.Composer = (*Composer)(nil)

// NewComposer は指定言語の Composer を生成します。空の場合は DefaultLocale を使います。
func NewComposer(locale string) (*Composer, error) {
	if locale == "" {
		locale = DefaultLocale
	}

	catalog, err := loadCatalog(locale)
	if err != nil {
		return nil, err
	}

	layout, err := template.New("base").Parse(baseTemplate)
	if err != nil {
		return nil, fmt.Errorf("mail: parse base template: %w", err)
	}

	return &Composer{locale: locale, catalog: catalog, layout: layout}, nil
}

// Locale は文面の言語を返します。
func (c *Composer) Locale() string {
	return c.locale
}

// Compose は event に対応する件名と本文を翻訳し、本文を HTML レイアウトに描画します。
// 宛先は会社のメールアドレスです。
func (c *Composer) Compose(_ context.Context, event company.Event, co *company.Company) (company.Message, error) {
	key, ok := eventKeys[event]
	if !ok {
		return company.Message{}, fmt.Errorf("mail: unknown event %q", event)
	}

	subject, err := c.translate("email.company."+key+".subject", nil)
	if err != nil {
		return company.Message{}, err
	}

	params := map[string]string{
		"%longName%": co.LongName(),
		"%email%":    co.Email(),
		"%city%":     co.City(),
	}
	if event == company.EventActiveChanged {
		params["%isActive%"] = strconv.FormatBool(co.IsActive())
	}

	content, err := c.translate("email.company."+key+".body", params)
	if err != nil {
		return company.Message{}, err
	}

	var body bytes.Buffer
	if err := c.layout.Execute(&body, struct {
		Title   string
		Content string
	}{Title: subject, Content: content}); err != nil {
		return company.Message{}, fmt.Errorf("mail: render %s: %w", key, err)
	}

	return company.Message{To: co.Email(), Subject: subject, Body: body.String()}, nil
}

func (c *Composer) translate(key string, params map[string]string) (string, error) {
	text, ok := c.catalog[key]
	if !ok {
		return "", fmt.Errorf("mail: missing translation %s for locale %s", key, c.locale)
	}
	if len(params) == 0 {
		return text, nil
	}

	pairs := make([]string, 0, len(params)*2)
	for placeholder, value := range params {
		pairs = append(pairs, placeholder, value)
	}
	return strings.NewReplacer(pairs...).Replace(text), nil
}

func loadCatalog(locale string) (map[string]string, error) {
	raw, err := catalogFS.ReadFile("catalogs/" + locale + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("mail: unsupported locale %q", locale)
	}

	catalog := map[string]string{}
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("mail: parse catalog %s: %w", locale, err)
	}
	return catalog, nil
}
