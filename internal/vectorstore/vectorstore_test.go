package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sevigo/coderadar/internal/chunk"
)

func TestPointIDIsDeterministic(t *testing.T) {
	a := PointID("repo1:main.go#func:Foo", "abc123")
	b := PointID("repo1:main.go#func:Foo", "abc123")
	assert.Equal(t, a, b)
}

func TestPointIDChangesWithContentHash(t *testing.T) {
	a := PointID("repo1:main.go#func:Foo", "abc123")
	b := PointID("repo1:main.go#func:Foo", "def456")
	assert.NotEqual(t, a, b)
}

func TestBasePayloadIncludesStackFieldsWhenPresent(t *testing.T) {
	c := chunk.Chunk{
		LogicalID:     "repo1:Main.kt#class:MainActivity",
		Path:          "Main.kt",
		Language:      "kotlin",
		Symbol:        "class:MainActivity",
		ContentHash:   "hash1",
		SigHash:       "sig1",
		StackType:     "android_app",
		ComponentType: "activity",
		Tags:          []string{"android", "activity"},
	}
	payload := BasePayload(c, "repo1", "main", "deadbeef", true)
	assert.Equal(t, "repo1:Main.kt#class:MainActivity", payload["logical_id"])
	assert.Equal(t, true, payload["is_latest"])
	assert.Equal(t, "android_app", payload["stack_type"])
	assert.Equal(t, "activity", payload["component_type"])
	assert.ElementsMatch(t, []string{"android", "activity"}, payload["tags"])
}

func TestBasePayloadOmitsEmptyStackFields(t *testing.T) {
	c := chunk.Chunk{LogicalID: "repo1:main.go#func:main", Path: "main.go", ContentHash: "h", SigHash: "s"}
	payload := BasePayload(c, "repo1", "main", "deadbeef", false)
	_, ok := payload["stack_type"]
	assert.False(t, ok)
	_, ok = payload["tags"]
	assert.False(t, ok)
}
