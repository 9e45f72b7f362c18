package rexster

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// TagName is the struct tag binding struct fields to element properties:
//
//	type Person struct {
//		ID   string `rexster:"_id"`
//		Name string `rexster:"name"`
//		Age  int    `rexster:"age,omitempty"`
//	}
//
// The field tagged "_id" carries the element id.
const TagName = "rexster"

// bindingMetadata holds the parsed tag information for one struct type.
type bindingMetadata struct {
	// IDField is the name of the struct field tagged "_id", if any.
	IDField string
	// Mappings maps struct field names to property keys, "_id" excluded.
	Mappings map[string]string
	// OmitEmpty lists the fields whose zero value is not written.
	OmitEmpty map[string]bool
}

// metaCache stores parsed bindingMetadata per reflect.Type.
var metaCache sync.Map

func bindingFor(typ reflect.Type) (*bindingMetadata, error) {
	if cached, ok := metaCache.Load(typ); ok {
		return cached.(*bindingMetadata), nil
	}
	meta, err := parseBindingTags(typ)
	if err != nil {
		return nil, err
	}
	metaCache.Store(typ, meta)
	return meta, nil
}

// parseBindingTags inspects typ and extracts the rexster tag of every
// exported field.
func parseBindingTags(typ reflect.Type) (*bindingMetadata, error) {
	if typ.Kind() == reflect.Ptr {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, fmt.Errorf("type %s is not a struct", typ)
	}

	meta := &bindingMetadata{
		Mappings:  make(map[string]string),
		OmitEmpty: make(map[string]bool),
	}
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get(TagName)
		if tag == "" || tag == "-" || !field.IsExported() {
			continue
		}

		parts := strings.Split(tag, ",")
		prop := parts[0]
		if prop == "" {
			return nil, fmt.Errorf("field %s has an empty %s tag name", field.Name, TagName)
		}
		if prop == "_id" {
			meta.IDField = field.Name
			continue
		}
		if reserved[prop] {
			return nil, fmt.Errorf("field %s binds reserved key %s", field.Name, prop)
		}
		for _, opt := range parts[1:] {
			if opt == "omitempty" {
				meta.OmitEmpty[field.Name] = true
			}
		}
		meta.Mappings[field.Name] = prop
	}
	return meta, nil
}

// AddVertexFrom creates a vertex from a tagged struct (or pointer to one). The
// field tagged "_id" gives the vertex id; when it is absent or zero the server
// assigns one. Every other tagged field is written as a property, one request
// per property: if a write fails the vertex exists with the properties set so
// far, and is returned together with the error.
func (g *Graph) AddVertexFrom(ctx context.Context, src any) (*Vertex, error) {
	val := reflect.ValueOf(src)
	if val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, fmt.Errorf("%w: nil source", ErrGraph)
		}
		val = val.Elem()
	}
	meta, err := bindingFor(val.Type())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGraph, err)
	}

	var id string
	if meta.IDField != "" {
		if f := val.FieldByName(meta.IDField); !f.IsZero() {
			id = stringify(f.Interface())
		}
	}

	v, err := g.AddVertex(ctx, id)
	if err != nil {
		return nil, err
	}

	for fieldName, prop := range meta.Mappings {
		f := val.FieldByName(fieldName)
		if meta.OmitEmpty[fieldName] && f.IsZero() {
			continue
		}
		if err := v.SetProperty(ctx, prop, f.Interface()); err != nil {
			return v, err
		}
	}
	return v, nil
}

// Decode copies the property snapshot into dst, a pointer to a struct tagged
// with rexster tags. Values are converted weakly, so a numeric property
// lands in a string field and vice versa.
func (e *Element) Decode(dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          TagName,
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err := dec.Decode(e.Properties()); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
