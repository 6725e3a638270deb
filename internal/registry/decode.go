package registry

import (
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

const tagName = "mutator"

type field struct {
	index    int
	required bool
}

// decodeArgs copies the attributes of an object value into the tagged fields
// of target. Missing optional attributes leave fields at their zero value.
// Attributes with no matching field are rejected.
func decodeArgs(args cty.Value, target any) error {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
		return fmt.Errorf("target must be a non-nil pointer, got %T", target)
	}
	structVal := ptr.Elem()
	if structVal.Kind() != reflect.Struct {
		return fmt.Errorf("target must point to a struct, got %T", target)
	}

	fields := make(map[string]field)
	structType := structVal.Type()
	for i := 0; i < structType.NumField(); i++ {
		f := structType.Field(i)
		tag := f.Tag.Get(tagName)
		if !f.IsExported() || tag == "" || tag == "-" {
			continue
		}
		parts := strings.Split(tag, ",")
		fields[parts[0]] = field{index: i, required: slices.Contains(parts[1:], "required")}
	}

	attrs := map[string]cty.Value{}
	if args != cty.NilVal && !args.IsNull() {
		if !args.Type().IsObjectType() && !args.Type().IsMapType() {
			return fmt.Errorf("arguments must be an object, got %s", args.Type().FriendlyName())
		}
		if !args.IsWhollyKnown() {
			return fmt.Errorf("arguments must be known values")
		}
		attrs = args.AsValueMap()
	}

	var errs []string
	for name := range attrs {
		if _, ok := fields[name]; !ok {
			errs = append(errs, fmt.Sprintf("unsupported argument %q", name))
		}
	}
	for name, f := range fields {
		val, ok := attrs[name]
		if !ok || val.IsNull() {
			if f.required {
				errs = append(errs, fmt.Sprintf("missing required argument %q", name))
			}
			continue
		}
		if err := decodeValue(val, structVal.Field(f.index).Addr().Interface()); err != nil {
			errs = append(errs, fmt.Sprintf("argument %q: %v", name, err))
		}
	}

	if len(errs) > 0 {
		slices.Sort(errs)
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// decodeValue converts val to the cty type implied by the Go target before
// decoding, so that e.g. a tuple of strings decodes into []string.
func decodeValue(val cty.Value, target any) error {
	impliedType, err := gocty.ImpliedType(reflect.ValueOf(target).Elem().Interface())
	if err != nil {
		return gocty.FromCtyValue(val, target)
	}
	converted, err := convert.Convert(val, impliedType)
	if err != nil {
		return fmt.Errorf("cannot convert %s to required type %s: %w", val.Type().FriendlyName(), impliedType.FriendlyName(), err)
	}
	return gocty.FromCtyValue(converted, target)
}
