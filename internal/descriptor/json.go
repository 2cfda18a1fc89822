package descriptor

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/oleiade/reflections"
	"gopkg.in/yaml.v3"
)

// marshalJSONWithInline marshals a struct to JSON while honouring the
// yaml ",inline" convention: the keys of an inline map field are hoisted into
// the enclosing object. encoding/json has no inline equivalent, and the
// descriptor structs carry yaml tags only, so the yaml tags drive both
// encodings.
//
// Tagged fields win over inline keys with the same name.
func marshalJSONWithInline(q any) ([]byte, error) {
	tags, err := reflections.Tags(q, "yaml")
	if err != nil {
		return nil, fmt.Errorf("listing yaml tags of %T: %w", q, err)
	}
	values, err := reflections.Items(q)
	if err != nil {
		return nil, fmt.Errorf("listing fields of %T: %w", q, err)
	}

	object := make(map[string]any, len(values))
	var inline map[string]any

	for name, tag := range tags {
		if tag == "-" {
			continue
		}
		value := values[name]

		key, opt, _ := strings.Cut(tag, ",")
		if opt == "inline" {
			m, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%T.%s is tagged ,inline but holds %T, want map[string]any", q, name, value)
			}
			inline = m
			continue
		}

		if opt == "omitempty" && isEmptyValue(value) {
			continue
		}
		if key == "" {
			// Untagged fields encode under the lowercased field name, the
			// same default yaml.v3 applies.
			key = strings.ToLower(name)
		}
		object[key] = value
	}

	for key, value := range inline {
		if _, taken := object[key]; !taken {
			object[key] = value
		}
	}

	return json.Marshal(object)
}

// isEmptyValue decides omitempty the way yaml.v3 does, so that a field
// omitted from one encoding is omitted from the other. Types that know their
// own zero (the ordered maps, for one) are asked directly.
func isEmptyValue(q any) bool {
	if q == nil {
		return true
	}
	if z, ok := q.(yaml.IsZeroer); ok {
		return z.IsZero()
	}

	switch v := reflect.ValueOf(q); v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	default:
		return v.IsZero()
	}
}
