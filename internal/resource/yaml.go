package resource

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// DecodeYAML strictly decodes a YAML document into a new T. Unknown fields are
// an error so typos in resource files fail loudly.
func DecodeYAML[T any](data []byte) (*T, error) {
	v := new(T)
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return v, nil
}

// YAMLLoader builds a Loader for plain data resources that need no teardown.
func YAMLLoader[T any](validate func(*T) error) Loader {
	return Loader{
		Create: func(_ Factory, _ string, data []byte) (any, error) {
			v, err := DecodeYAML[T](data)
			if err != nil {
				return nil, err
			}
			if validate != nil {
				if err := validate(v); err != nil {
					return nil, err
				}
			}
			return v, nil
		},
	}
}
