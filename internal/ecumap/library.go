package ecumap

// library.go loads definition libraries: files that describe the maps of one
// ECU family. Three shapes are accepted in both JSON and YAML:
//
//	{"name": "Fuel", "start_address": "0x1A40", ...}            single map
//	[{"name": "Fuel", ...}, {"name": "Boost", ...}]             list
//	{"ecu": "EDC17C46", "maps": [{"name": "Fuel", ...}, ...]}   annotated list
//
// JSON files may contain // and /* */ comments and trailing commas.

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Format is the serialization of a definition library.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a Format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown definition file extension %q (want .json, .jsonc, .yaml or .yml)", filepath.Ext(path))
	}
}

// Library is an ordered, name-indexed set of validated definitions.
type Library struct {
	ECU   string
	maps  []Definition
	index map[string]int
}

type libraryFile struct {
	ECU  string              `json:"ecu" yaml:"ecu"`
	Maps []DefinitionPayload `json:"maps" yaml:"maps"`
}

// LoadLibrary reads and validates a definition library from disk.
func LoadLibrary(path string) (*Library, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	lib, err := ParseLibrary(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lib, nil
}

// ParseLibrary decodes and validates a definition library.
func ParseLibrary(data []byte, format Format) (*Library, error) {
	var (
		file libraryFile
		err  error
	)
	switch format {
	case FormatJSON:
		file, err = decodeJSONLibrary(data)
	case FormatYAML:
		file, err = decodeYAMLLibrary(data)
	default:
		return nil, fmt.Errorf("unknown definition format %q", format)
	}
	if err != nil {
		return nil, err
	}

	return NewLibrary(file.ECU, file.Maps)
}

// NewLibrary validates payloads and indexes them by name. Names must be
// non-empty and unique (case-insensitive).
func NewLibrary(ecu string, payloads []DefinitionPayload) (*Library, error) {
	if len(payloads) == 0 {
		return nil, errors.New("definition library contains no maps")
	}

	lib := &Library{
		ECU:   ecu,
		maps:  make([]Definition, 0, len(payloads)),
		index: make(map[string]int, len(payloads)),
	}

	for i, p := range payloads {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("map %d: %w", i, &DefinitionError{Field: "name", Reason: "must not be empty"})
		}
		key := strings.ToLower(p.Name)
		if _, dup := lib.index[key]; dup {
			return nil, fmt.Errorf("map %d: %w", i, &DefinitionError{Name: p.Name, Field: "name", Reason: "duplicate map name"})
		}

		def, err := NewDefinition(p)
		if err != nil {
			return nil, fmt.Errorf("map %d: %w", i, err)
		}

		lib.index[key] = len(lib.maps)
		lib.maps = append(lib.maps, def)
	}

	return lib, nil
}

// Lookup finds a definition by name, ignoring case.
func (l *Library) Lookup(name string) (Definition, bool) {
	i, ok := l.index[strings.ToLower(name)]
	if !ok {
		return Definition{}, false
	}
	return l.maps[i], true
}

// Definitions returns the library's definitions in file order.
func (l *Library) Definitions() []Definition {
	out := make([]Definition, len(l.maps))
	copy(out, l.maps)
	return out
}

// Len returns the number of definitions.
func (l *Library) Len() int {
	return len(l.maps)
}

func decodeJSONLibrary(data []byte) (libraryFile, error) {
	var file libraryFile
	stripped := bytes.TrimSpace(jsonc.ToJSON(data))
	if len(stripped) == 0 {
		return file, errors.New("empty definition file")
	}

	switch stripped[0] {
	case '[':
		if err := json.Unmarshal(stripped, &file.Maps); err != nil {
			return file, fmt.Errorf("parsing definitions: %w", err)
		}
	case '{':
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(stripped, &keys); err != nil {
			return file, fmt.Errorf("parsing definitions: %w", err)
		}
		if _, ok := keys["maps"]; ok {
			if err := json.Unmarshal(stripped, &file); err != nil {
				return file, fmt.Errorf("parsing definitions: %w", err)
			}
			break
		}
		var single DefinitionPayload
		if err := json.Unmarshal(stripped, &single); err != nil {
			return file, fmt.Errorf("parsing definitions: %w", err)
		}
		file.Maps = []DefinitionPayload{single}
	default:
		return file, errors.New("parsing definitions: expected an object or an array")
	}
	return file, nil
}

func decodeYAMLLibrary(data []byte) (libraryFile, error) {
	var (
		file libraryFile
		root yaml.Node
	)
	if err := yaml.Unmarshal(data, &root); err != nil {
		return file, fmt.Errorf("parsing definitions: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return file, errors.New("empty definition file")
	}

	doc := root.Content[0]
	var err error
	switch doc.Kind {
	case yaml.SequenceNode:
		err = doc.Decode(&file.Maps)
	case yaml.MappingNode:
		if hasKey(doc, "maps") {
			err = doc.Decode(&file)
			break
		}
		var single DefinitionPayload
		err = doc.Decode(&single)
		file.Maps = []DefinitionPayload{single}
	default:
		return file, errors.New("parsing definitions: expected a mapping or a sequence")
	}
	if err != nil {
		return file, fmt.Errorf("parsing definitions: %w", err)
	}
	return file, nil
}

// hasKey reports whether mapping node n has the given key.
func hasKey(n *yaml.Node, key string) bool {
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return true
		}
	}
	return false
}

// UnmarshalYAML accepts both numeric and string addresses.
func (a *Address) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: address must be a scalar", value.Line)
	}
	v, err := ParseAddress(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*a = v
	return nil
}
