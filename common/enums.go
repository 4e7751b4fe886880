// Package common holds enums shared by configuration, loading, conversion
// and output code.
package common

//go:generate go tool go-enum --marshal --names --mustparse

// Specification of requested output type.
// ENUM(xml, tree)
type OutputFmt int

func (o OutputFmt) Ext() string {
	switch o {
	case OutputFmtTree:
		return ".txt"
	default:
		return ".xml"
	}
}

// How whitespace in HTML text nodes is treated when loading view tree.
// ENUM(collapse, preserve)
type WhitespaceMode int

// Kind of conversion rule from configuration.
// ENUM(element, attribute, marker)
type RuleKind int
