package config

import "errors"

// errReadBytes is returned by mapProvider.ReadBytes; koanf falls back to Read.
var errReadBytes = errors.New("config: map provider has no byte form")

// mapProvider loads a nested map into koanf.
type mapProvider map[string]any

func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errReadBytes
}

func (m mapProvider) Read() (map[string]any, error) {
	return m, nil
}
