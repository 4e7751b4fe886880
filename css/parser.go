// Package css handles the small part of CSS the view tree needs: parsing
// inline style declarations and knowing which properties are shorthands of
// which.
package css

import (
	"bytes"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Declaration is a single "name: value" pair from a style attribute.
type Declaration struct {
	Name  string
	Value string
}

// Parser parses inline style attributes into ordered declarations.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new inline style parser.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css-parser")}
}

// ParseInline parses content of a style attribute. Later declarations of the
// same property replace earlier ones but keep the original position.
func (p *Parser) ParseInline(style string) []Declaration {
	var decls []Declaration
	if strings.TrimSpace(style) == "" {
		return decls
	}

	input := parse.NewInput(bytes.NewReader([]byte(style)))
	parser := css.NewParser(input, true)

	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				p.log.Debug("Inline style parse error", zap.String("style", style), zap.Error(err))
			}
			return decls

		case css.DeclarationGrammar:
			name := strings.ToLower(string(data))
			value := rawValue(parser.Values())
			if value == "" {
				p.log.Debug("Ignoring empty declaration", zap.String("property", name))
				continue
			}
			decls = upsert(decls, Declaration{Name: name, Value: value})

		case css.CustomPropertyGrammar:
			// custom properties (--var) are not styles of the element
			continue

		default:
			p.log.Debug("Unexpected grammar in inline style", zap.Stringer("grammar", gt), zap.String("data", string(data)))
		}
	}
}

// Serialize renders declarations back into style attribute form.
func Serialize(decls []Declaration) string {
	var b strings.Builder
	for i, d := range decls {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(d.Name)
		b.WriteByte(':')
		b.WriteString(d.Value)
		b.WriteByte(';')
	}
	return b.String()
}

func upsert(decls []Declaration, d Declaration) []Declaration {
	for i := range decls {
		if decls[i].Name == d.Name {
			decls[i].Value = d.Value
			return decls
		}
	}
	return append(decls, d)
}

// rawValue joins value tokens collapsing whitespace to a single space.
func rawValue(tokens []css.Token) string {
	var parts []string
	for _, t := range tokens {
		if t.TokenType != css.WhitespaceToken {
			parts = append(parts, string(t.Data))
		} else if len(parts) > 0 {
			parts = append(parts, " ")
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}
