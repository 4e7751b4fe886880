package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"vmconv/common"
	"vmconv/config"
	"vmconv/model"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	SourceFile string
	SourceDir  string
	Format     string
	DocID      string
	Title      string
	Markers    []string
}

// documentTitle returns text of the first heading in the fragment.
func documentTitle(frag *model.DocumentFragment) string {
	if frag == nil {
		return ""
	}
	for _, item := range model.RangeIn(frag).Items() {
		el, ok := item.(*model.Element)
		if !ok || !strings.HasPrefix(el.Name(), "heading") {
			continue
		}
		var b strings.Builder
		for _, inner := range model.RangeIn(el).Items() {
			if t, ok := inner.(*model.TextProxy); ok {
				b.WriteString(t.Data())
			}
		}
		if title := strings.TrimSpace(b.String()); title != "" {
			return title
		}
	}
	return ""
}

func expandTemplate(frag *model.DocumentFragment, docID, src string, name config.TemplateFieldName, field string, format common.OutputFmt) (string, error) {
	tmpl, err := template.New(string(name)).Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:    string(name),
		SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		SourceDir:  filepath.ToSlash(filepath.Dir(src)),
		Format:     format.String(),
		DocID:      docID,
		Title:      documentTitle(frag),
	}
	if frag != nil {
		values.Markers = frag.MarkerNames()
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
