package benchmark

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"schema-migrate/internal/schema/model"
	apperrors "schema-migrate/internal/shared/errors"
)

// collectionPlaceholder is substituted in query templates at load time.
const collectionPlaceholder = "{{collection}}"

// IndexSpec is one entry of the flat index input file.
type IndexSpec struct {
	Name string        `json:"name"`
	Keys model.KeySpec `json:"keys"`
}

// QuerySpec is one entry of the query input file, after placeholder
// substitution.
type QuerySpec struct {
	Description string `json:"description"`
	Query       string `json:"query"`
}

// LoadIndexSpecs reads and validates the index input file.
func LoadIndexSpecs(path string) ([]IndexSpec, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	var specs []IndexSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, apperrors.NewDeserializationError(fmt.Sprintf("index file %s is not valid JSON", path)).WithCause(err)
	}
	for i, spec := range specs {
		if err := model.ValidateIdentifier(spec.Name); err != nil {
			return nil, apperrors.NewDeserializationError(fmt.Sprintf("index file %s entry %d: %v", path, i, err))
		}
		if len(spec.Keys) == 0 {
			return nil, apperrors.NewDeserializationError(fmt.Sprintf("index file %s entry %q has an empty key spec", path, spec.Name))
		}
	}
	return specs, nil
}

// LoadQueries reads the query input file and substitutes the
// {{collection}} placeholder with the configured target collection.
func LoadQueries(path, collection string) ([]QuerySpec, error) {
	data, err := readInput(path)
	if err != nil {
		return nil, err
	}

	var specs []QuerySpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, apperrors.NewDeserializationError(fmt.Sprintf("query file %s is not valid JSON", path)).WithCause(err)
	}
	for i := range specs {
		if specs[i].Description == "" {
			return nil, apperrors.NewDeserializationError(fmt.Sprintf("query file %s entry %d has no description", path, i))
		}
		specs[i].Query = strings.ReplaceAll(specs[i].Query, collectionPlaceholder, collection)
	}
	return specs, nil
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("input file %s not found", path)).
				WithHint("check INDEXES_FILE / QUERIES_FILE in your .env")
		}
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to read %s", path)).WithCause(err)
	}
	return data, nil
}
