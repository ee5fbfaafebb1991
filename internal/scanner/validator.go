package scanner

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

// Validator checks that a structured-text file parses.
type Validator interface {
	CanParse(filename string) bool
	Validate(content []byte) error
}

var registry []Validator

// Register adds a validator implementation to the registry.
func Register(v Validator) {
	registry = append(registry, v)
}

// validatorFor returns the first registered validator accepting filename.
func validatorFor(filename string) Validator {
	for _, v := range registry {
		if v.CanParse(filename) {
			return v
		}
	}
	return nil
}

// ErrNoValidator marks an extension no registered validator accepts.
var ErrNoValidator = errors.New("no validator registered")

// CheckExtensions fails on the first extension without a validator.
func CheckExtensions(exts []string) error {
	for _, e := range exts {
		e = normalizeExt(e)
		if e == "" {
			continue
		}
		if validatorFor("file"+e) == nil {
			return fmt.Errorf("extension %s: %w", e, ErrNoValidator)
		}
	}
	return nil
}

func init() {
	Register(jsonValidator{})
	Register(yamlValidator{})
}

// ErrInvalidUTF8 marks content that is not UTF-8 text.
var ErrInvalidUTF8 = errors.New("invalid UTF-8")

type jsonValidator struct{}

func (jsonValidator) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".json")
}

func (jsonValidator) Validate(content []byte) error {
	if !utf8.Valid(content) {
		return ErrInvalidUTF8
	}
	var v any
	return json.Unmarshal(content, &v)
}

type yamlValidator struct{}

func (yamlValidator) CanParse(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func (yamlValidator) Validate(content []byte) error {
	if !utf8.Valid(content) {
		return ErrInvalidUTF8
	}
	var v any
	return yaml.Unmarshal(content, &v)
}
