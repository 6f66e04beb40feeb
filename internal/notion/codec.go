// Helpers shared by the property, block and search result codecs.

package notion

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
)

// member returns the raw JSON text of the top-level member key of the object data.
//
// jsonparser returns string values without their quotes but otherwise untouched, so quoting
// them again yields the original literal.
func member(data []byte, key string) ([]byte, jsonparser.ValueType, bool) {
	v, typ, _, err := jsonparser.Get(data, key)
	if err != nil {
		return nil, jsonparser.NotExist, false
	}
	if typ == jsonparser.String {
		raw := make([]byte, 0, len(v)+2)
		raw = append(raw, '"')
		raw = append(raw, v...)
		raw = append(raw, '"')
		return raw, typ, true
	}
	return v, typ, true
}

// hasMember reports whether the object data has a top-level member key.
func hasMember(data []byte, key string) bool {
	_, _, _, err := jsonparser.Get(data, key)
	return err == nil
}

// appendMember adds "key":value at the end of the JSON object obj.
//
// obj must be a compact object as produced by json.Marshal.
func appendMember(obj []byte, key string, value []byte) []byte {
	out := obj[:len(obj)-1]
	if len(out) > 1 {
		out = append(out, ',')
	}
	k, _ := json.Marshal(key)
	out = append(out, k...)
	out = append(out, ':')
	out = append(out, value...)
	return append(out, '}')
}

// errShape is returned by a shape attempt that does not accept the payload.
var errShape = errors.New("payload shape mismatch")

func shapeError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{errShape}, args...)...)
}
