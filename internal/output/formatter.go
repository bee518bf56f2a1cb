// Package output renders assessments for the command line.
package output

import (
	"encoding/json"

	"phishguard/internal/domain"
)

type Formatter interface {
	Format(a domain.Assessment) ([]byte, error)
}

type FormatterType string

const (
	FormatterTable FormatterType = "table"
	FormatterJSON  FormatterType = "json"
)

func GetFormatter(formatType FormatterType) Formatter {
	switch formatType {
	case FormatterJSON:
		return &JSONFormatter{Pretty: true}
	case FormatterTable:
		fallthrough
	default:
		return &TableFormatter{}
	}
}

type JSONFormatter struct {
	Pretty bool
}

func (f *JSONFormatter) Format(a domain.Assessment) ([]byte, error) {
	if f.Pretty {
		return json.MarshalIndent(a, "", "  ")
	}
	return json.Marshal(a)
}
