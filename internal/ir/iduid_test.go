package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdUid(t *testing.T) {
	v, err := ParseIdUid("1:4858050548069557694")
	require.NoError(t, err)
	assert.Equal(t, int32(1), v.ID)
	assert.Equal(t, int64(4858050548069557694), v.UID)
	assert.Equal(t, "1:4858050548069557694", v.String())
}

func TestParseIdUidZero(t *testing.T) {
	v, err := ParseIdUid("0:0")
	require.NoError(t, err)
	assert.True(t, v.IsZero())
}

func TestParseIdUidRejectsBadInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no separator", "17"},
		{"empty id", ":12"},
		{"empty uid", "3:"},
		{"negative id", "-1:12"},
		{"negative uid", "1:-12"},
		{"zero uid with id", "4:0"},
		{"id overflow", "4294967296:1"},
		{"text", "one:two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseIdUid(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestIdUidJSON(t *testing.T) {
	type wrapper struct {
		ID IdUid `json:"id"`
	}

	data, err := json.Marshal(wrapper{ID: IdUid{ID: 7, UID: 1224882392647796759}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"7:1224882392647796759"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"id":"7:1224882392647796759"}`), &w))
	assert.Equal(t, IdUid{ID: 7, UID: 1224882392647796759}, w.ID)

	require.NoError(t, json.Unmarshal([]byte(`{"id":""}`), &w))
	assert.True(t, w.ID.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"id":17}`), &w))
}

func TestRelationTargetOmittedWhenZero(t *testing.T) {
	data, err := json.Marshal(Relation{ID: IdUid{ID: 1, UID: 99}, Name: "tags"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "targetId")
}

func TestHandlesAreDistinctByPosition(t *testing.T) {
	assert.NotEqual(t, PropertyHandle(0, 1), PropertyHandle(0, 2))
	assert.NotEqual(t, PropertyHandle(0, 1), RelationHandle(0, 1))
	assert.NotEqual(t, EntityHandle(0), EntityHandle(1))
	assert.Equal(t, KindRelation, RelationHandle(2, 3).Kind())
	assert.Equal(t, "entity[2].relation[3]", RelationHandle(2, 3).String())
}
