package sink

import (
	"time"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
)

// wireOptions is the JSON wire format shared by all sinks and the
// frame stream endpoint. Timestamps travel as RFC3339Nano strings,
// nil members are omitted.
var wireOptions = ojg.Options{
	TimeFormat: time.RFC3339Nano,
	OmitNil:    true,
	UseTags:    true,
}

// MarshalWire encodes v in the common wire format.
func MarshalWire(v any) ([]byte, error) {
	return oj.Marshal(v, &wireOptions)
}
