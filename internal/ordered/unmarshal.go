package ordered

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Sentinel errors returned by Unmarshal, usually wrapped with detail.
// Test for them with errors.Is.
var (
	ErrIntoNonPointer       = errors.New("unmarshal destination must be a pointer")
	ErrIntoNil              = errors.New("unmarshal destination is nil")
	ErrIncompatibleTypes    = errors.New("source and destination types are incompatible")
	ErrUnsupportedSrc       = errors.New("unsupported source type")
	ErrMultipleInlineFields = errors.New(`more than one field is tagged yaml:",inline"`)
)

// Unmarshaler is implemented by types that load themselves from a decoded
// document fragment.
type Unmarshaler interface {
	// UnmarshalOrdered is passed the decoded form of a fragment: one of
	// *Map[string, any], []any, a scalar built-in type, or nil.
	UnmarshalOrdered(src any) error
}

// Unmarshal loads src into dst, keeping mapping order intact. It mirrors
// yaml.Unmarshal in spirit, but src is an already-decoded value rather than
// raw bytes, and mappings travel as *Map[string, any] rather than Go maps.
//
// The rules, roughly in the order they are applied:
//
//   - A nil dst accepts only a nil src.
//   - A yaml.Node or *yaml.Node src is first decoded with DecodeYAML.
//   - If dst implements Unmarshaler, it receives src as-is. This happens
//     before any nil handling, so implementations get to interpret an empty
//     document for themselves.
//   - A nil src zeroes out whatever a non-nil pointer dst points to.
//   - A pointer-to-pointer dst has its inner value allocated as needed, and
//     unmarshaling continues one level down.
//   - A *any dst receives src directly.
//   - A *Map[string, any] src can be loaded into a struct pointer with yaml
//     tags (",inline" included), or into a map (or pointer to map) with
//     string keys.
//   - A []any src is unmarshaled elementwise into a pointer to slice.
//   - A scalar src (string, int, float64, bool) can be copied to a pointer
//     to its own type, appended to a slice of it (or of any), or formatted
//     with fmt.Sprint into *string or appended to *[]string.
func Unmarshal(src, dst any) error {
	if dst == nil {
		// Interface nil. Typed nils are caught below, after reflection.
		if src == nil {
			return nil
		}
		return ErrIntoNil
	}

	// Decode YAML nodes up front so the rest only sees plain values.
	switch n := src.(type) {
	case yaml.Node:
		decoded, err := DecodeYAML(&n)
		if err != nil {
			return err
		}
		src = decoded

	case *yaml.Node:
		decoded, err := DecodeYAML(n)
		if err != nil {
			return err
		}
		src = decoded
	}

	if u, ok := dst.(Unmarshaler); ok {
		return u.UnmarshalOrdered(src)
	}

	vdst := reflect.ValueOf(dst)

	if src == nil {
		// nil loads into a pointer by zeroing the pointee.
		if vdst.Kind() != reflect.Pointer {
			return fmt.Errorf("%w, got %T", ErrIntoNonPointer, dst)
		}
		if vdst.IsNil() {
			return nil
		}
		vdst.Elem().SetZero()
		return nil
	}

	if vdst.Kind() == reflect.Pointer {
		if vdst.IsNil() {
			return ErrIntoNil
		}

		if elem := vdst.Elem(); elem.Kind() == reflect.Pointer {
			// Double pointer. Allocate the inner value if there isn't one,
			// then continue on the inner pointer.
			if elem.IsNil() {
				elem.Set(reflect.New(elem.Type().Elem()))
			}
			return Unmarshal(src, elem.Interface())
		}
	}

	if pdst, ok := dst.(*any); ok {
		*pdst = src
		return nil
	}

	switch src := src.(type) {
	case *Map[string, any]:
		return unmarshalMap(src, dst)

	case []any:
		if pdst, ok := dst.(*[]any); ok {
			*pdst = append(*pdst, src...)
			return nil
		}
		if vdst.Kind() != reflect.Pointer {
			return fmt.Errorf("%w, got %T", ErrIntoNonPointer, dst)
		}
		slice := vdst.Elem()
		if slice.Kind() != reflect.Slice {
			return fmt.Errorf("%w: []any into %T", ErrIncompatibleTypes, dst)
		}
		elemType := slice.Type().Elem()
		for _, item := range src {
			p := reflect.New(elemType)
			if err := Unmarshal(item, p.Interface()); err != nil {
				return err
			}
			slice = reflect.Append(slice, p.Elem())
		}
		vdst.Elem().Set(slice)
		return nil

	case string:
		return assignScalar(src, dst)

	case int:
		return assignScalar(src, dst)

	case float64:
		return assignScalar(src, dst)

	case bool:
		return assignScalar(src, dst)

	default:
		return fmt.Errorf("%w %T", ErrUnsupportedSrc, src)
	}
}

// assignScalar copies a scalar into a compatible destination. *S comes
// before *string on purpose: when S is string both cases apply, and the
// plain copy should win.
func assignScalar[S any](src S, dst any) error {
	switch dst := dst.(type) {
	case *S:
		*dst = src

	case *[]S:
		*dst = append(*dst, src)

	case *[]any:
		*dst = append(*dst, src)

	case *string:
		*dst = fmt.Sprint(src)

	case *[]string:
		*dst = append(*dst, fmt.Sprint(src))

	default:
		return fmt.Errorf("%w: %T into %T", ErrIncompatibleTypes, src, dst)
	}
	return nil
}

// unmarshalMap loads the entries of src into target: a struct pointer with
// yaml tags, a string-keyed map, or a pointer to one.
func unmarshalMap(src *Map[string, any], target any) error {
	tv := reflect.ValueOf(target)
	var inner reflect.Value
	switch tv.Kind() {
	case reflect.Pointer:
		if tv.IsNil() {
			return ErrIntoNil
		}
		inner = tv.Elem()

	case reflect.Map:
		if tv.IsNil() {
			return ErrIntoNil
		}
		inner = tv

	default:
		return fmt.Errorf("%w: %T into %T, need a map or a pointer to a struct", ErrIncompatibleTypes, src, target)
	}

	switch inner.Kind() {
	case reflect.Map:
		return unmarshalIntoMapValue(src, inner, target)

	case reflect.Struct:
		return unmarshalIntoStructValue(src, inner, target)

	default:
		return fmt.Errorf("%w: %T into %T", ErrIncompatibleTypes, src, target)
	}
}

// unmarshalIntoMapValue loads src into a Go map, unmarshaling each value
// into a fresh element. A nil map reached through a pointer is allocated.
func unmarshalIntoMapValue(src *Map[string, any], mv reflect.Value, target any) error {
	mt := mv.Type()
	if mt.Key().Kind() != reflect.String {
		return fmt.Errorf("%w: %T into %T, map keys must be strings", ErrIncompatibleTypes, src, target)
	}

	if mv.IsNil() {
		mv.Set(reflect.MakeMapWithSize(mt, src.Len()))
	}

	elemType := mt.Elem()
	return src.Range(func(k string, v any) error {
		p := reflect.New(elemType)
		if err := Unmarshal(v, p.Interface()); err != nil {
			return err
		}
		mv.SetMapIndex(reflect.ValueOf(k), p.Elem())
		return nil
	})
}

// unmarshalIntoStructValue matches src entries to the exported fields of a
// struct, by yaml tag or by lowercased field name. Entries no named field
// claims are gathered into the field tagged yaml:",inline", if there is one;
// it must be a type this package can unmarshal a *Map[string, any] into.
func unmarshalIntoStructValue(src *Map[string, any], sv reflect.Value, target any) error {
	var inline reflect.StructField
	claimed := make(map[string]struct{})

	for _, field := range reflect.VisibleFields(sv.Type()) {
		if !field.IsExported() {
			continue
		}

		tag, _ := field.Tag.Lookup("yaml")
		switch tag {
		case "-":
			// Even so, a key with this field's name still flows to inline,
			// which is what yaml.v3 does too.
			continue

		case ",inline":
			if inline.Index != nil {
				return fmt.Errorf("%w in %T", ErrMultipleInlineFields, target)
			}
			inline = field
			continue
		}

		key, _, _ := strings.Cut(tag, ",")
		if key == "" {
			// yaml.v3 default: the lowercased field name.
			key = strings.ToLower(field.Name)
		}

		v, ok := src.Get(key)
		if !ok {
			continue
		}
		claimed[key] = struct{}{}

		// Fields are set through their address, so target being a pointer
		// matters here.
		fp := sv.FieldByIndex(field.Index).Addr()
		if err := Unmarshal(v, fp.Interface()); err != nil {
			return err
		}
	}

	if inline.Index == nil {
		return nil
	}

	// Collect the leftovers into a fresh map rather than mutating src.
	rest := NewMap[string, any](src.Len())
	src.Range(func(k string, v any) error {
		if _, ok := claimed[k]; !ok {
			rest.Set(k, v)
		}
		return nil
	})
	if rest.Len() == 0 {
		return nil
	}

	return Unmarshal(rest, sv.FieldByIndex(inline.Index).Addr().Interface())
}

// UnmarshalOrdered loads src, which must be a *Map[string, any], into this
// map. K must be string; each value is unmarshaled into a new V.
func (m *Map[K, V]) UnmarshalOrdered(src any) error {
	if m == nil {
		return ErrIntoNil
	}

	sm, ok := any(m).(*Map[string, V])
	if !ok {
		return fmt.Errorf("%w: %T does not have string keys", ErrIncompatibleTypes, m)
	}

	from, ok := src.(*Map[string, any])
	if !ok {
		return fmt.Errorf("%w: %T is not a *Map[string, any]", ErrIncompatibleTypes, src)
	}

	return from.Range(func(k string, v any) error {
		var value V
		if err := Unmarshal(v, &value); err != nil {
			return err
		}
		sm.Set(k, value)
		return nil
	})
}
