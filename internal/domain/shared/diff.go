package shared

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// Change is one field that differs between two versions of an entity.
// Name is the field label from the `diff` tag, or the Go field name.
type Change struct {
	Name string
	Old  any
	New  any
}

// String renders "Label: old => new"
func (c Change) String() string {
	return fmt.Sprintf("%s: %s => %s", c.Name, formatValue(c.Old), formatValue(c.New))
}

type diffOptions struct {
	withKeys bool
	ignored  map[string]bool
}

// DiffOption configures Diff
type DiffOption func(*diffOptions)

// WithKeys includes fields tagged `diff:",key"`
func WithKeys() DiffOption {
	return func(o *diffOptions) { o.withKeys = true }
}

// Ignoring skips fields by Go name
func Ignoring(fields ...string) DiffOption {
	return func(o *diffOptions) {
		for _, f := range fields {
			o.ignored[f] = true
		}
	}
}

var timeType = reflect.TypeOf(time.Time{})

// Diff compares the exported scalar fields of two values of the same struct
// type and returns the ones that differ, in declaration order. Embedded
// structs are walked. Slices, maps and struct-typed fields are relations and
// are not compared.
//
// Field tags:
//
//	diff:"Label"      display name
//	diff:"Label,key"  key field, skipped unless WithKeys is given
//	diff:"-"          never compared
func Diff(newObj, oldObj any, opts ...DiffOption) []Change {
	o := &diffOptions{ignored: map[string]bool{}}
	for _, opt := range opts {
		opt(o)
	}

	nv, ov := indirect(reflect.ValueOf(newObj)), indirect(reflect.ValueOf(oldObj))
	if !nv.IsValid() || !ov.IsValid() || nv.Type() != ov.Type() || nv.Kind() != reflect.Struct {
		return nil
	}

	var changes []Change
	diffStruct(nv, ov, o, &changes)
	return changes
}

func diffStruct(nv, ov reflect.Value, o *diffOptions, changes *[]Change) {
	t := nv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("diff")
		if tag == "-" || o.ignored[f.Name] {
			continue
		}
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			diffStruct(nv.Field(i), ov.Field(i), o, changes)
			continue
		}

		label, flags, _ := strings.Cut(tag, ",")
		if flags == "key" && !o.withKeys {
			continue
		}
		if !comparableField(f.Type) {
			continue
		}
		if label == "" {
			label = f.Name
		}

		oldVal, newVal := scalar(ov.Field(i)), scalar(nv.Field(i))
		if !reflect.DeepEqual(oldVal, newVal) {
			*changes = append(*changes, Change{Name: label, Old: oldVal, New: newVal})
		}
	}
}

func comparableField(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		return false
	case reflect.Struct:
		return t == timeType
	case reflect.Array:
		// uuid.UUID and similar fixed-size identifiers
		return true
	}
	return true
}

// scalar dereferences pointers; a nil pointer becomes a nil interface
func scalar(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	return v.Interface()
}

func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
