package persistence

import (
	"encoding/json"
	"fmt"
	"os"

	"schema-migrate/internal/schema/model"
	apperrors "schema-migrate/internal/shared/errors"
)

// SnapshotStore persists schema snapshots as human-editable JSON files.
// The file is the hand-off point between extraction and apply: operators
// may edit it to drop databases or collections before replaying.
type SnapshotStore struct{}

// NewSnapshotStore creates a snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Save writes the snapshot to path as indented JSON.
func (s *SnapshotStore) Save(path string, snapshot *model.SchemaSnapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return apperrors.NewInternalError("failed to encode snapshot").WithCause(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.NewInternalError(fmt.Sprintf("failed to write snapshot file %s", path)).WithCause(err)
	}
	return nil
}

// Load reads and validates a snapshot from path. Malformed or invalid
// input fails here, at the deserialization boundary, rather than deep
// inside script generation.
func (s *SnapshotStore) Load(path string) (*model.SchemaSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("schema file %s not found", path)).
				WithHint("run extract-schema first, or pass -schema with the snapshot path")
		}
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to read schema file %s", path)).WithCause(err)
	}

	var snapshot model.SchemaSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, apperrors.NewDeserializationError(fmt.Sprintf("schema file %s is not valid JSON", path)).WithCause(err)
	}
	if err := snapshot.Validate(); err != nil {
		return nil, apperrors.NewDeserializationError(fmt.Sprintf("schema file %s failed validation", path)).WithCause(err)
	}
	return &snapshot, nil
}
