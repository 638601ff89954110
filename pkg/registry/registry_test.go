// pkg/registry/registry_test.go
package registry

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *ActivityRegistry {
	return &ActivityRegistry{
		Version:     "1.0.0",
		LastUpdated: "2024-01-01T00:00:00Z",
		Activities: []Activity{
			{
				ID:          "match-providers",
				DisplayName: "Match Providers",
				Description: "Scores and ranks candidate providers for a service request",
				Category:    "matching",
				TaskType:    "match-providers",
			},
		},
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry", "activity-registry.json")

	require.NoError(t, SaveRegistry(testRegistry(), path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	require.Len(t, loaded.Activities, 1)
	assert.Equal(t, "match-providers", loaded.Activities[0].ID)
	assert.Equal(t, "matching", loaded.Activities[0].Category)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *ActivityRegistry)
		wantErr string
	}{
		{"valid", func(r *ActivityRegistry) {}, ""},
		{"empty", func(r *ActivityRegistry) { r.Activities = nil }, "no activities"},
		{"missing id", func(r *ActivityRegistry) { r.Activities[0].ID = "" }, "missing required field: ID"},
		{"missing display name", func(r *ActivityRegistry) { r.Activities[0].DisplayName = "" }, "DisplayName"},
		{"missing task type", func(r *ActivityRegistry) { r.Activities[0].TaskType = "" }, "TaskType"},
		{"missing category", func(r *ActivityRegistry) { r.Activities[0].Category = "" }, "Category"},
		{"duplicate id", func(r *ActivityRegistry) {
			r.Activities = append(r.Activities, r.Activities[0])
		}, "duplicate activity ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := testRegistry()
			tt.mutate(reg)
			err := reg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestFind(t *testing.T) {
	reg := testRegistry()

	assert.NotNil(t, reg.Find("match-providers"))
	assert.Nil(t, reg.Find("unknown-activity"))
}
