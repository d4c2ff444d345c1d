package format

import (
	"encoding"

	"github.com/LH183523/jedi/python/parser"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(module *parser.Scope) error
}
