package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	RoomKind string `json:"room_kind" validate:"required,oneof=user workspace"`
	Title    string `json:"title,omitempty" validate:"max=3"`
	Internal string `json:"-"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{RoomKind: "user", Title: "abc"}))
}

func TestStruct_ReportsJSONNames(t *testing.T) {
	err := Struct(sample{Title: "abcd"})

	require.Error(t, err)
	assert.Equal(t, "room_kind is required; title must be at most 3 characters", err.Error())
}

func TestStruct_OneOf(t *testing.T) {
	err := Struct(sample{RoomKind: "galaxy"})

	require.Error(t, err)
	assert.Equal(t, "room_kind must be one of [user workspace]", err.Error())
}
