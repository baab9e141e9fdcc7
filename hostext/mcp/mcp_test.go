package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rill-lang/rill/internal/rill/value"
)

func TestRegisterToolAndListTools(t *testing.T) {
	s := NewServer()
	s.RegisterTool(&Tool{Name: "ping", Description: "replies pong"})

	tools := s.listTools()
	assert.Len(t, tools, 1)
	assert.Equal(t, "ping", tools[0]["name"])
	assert.Equal(t, "replies pong", tools[0]["description"])
}

func TestToJSONRoundTripsStructuredValues(t *testing.T) {
	d := value.NewDict()
	d.Set("ok", value.Bool(true))
	d.Set("items", value.Tuple([]value.Value{value.Number(1), value.String("a")}))

	encoded := toJSON(value.DictValue(d))
	decoded := fromJSON(encoded)

	assert.Equal(t, value.KindDict, decoded.Kind())
	ok, found := decoded.AsDict().Get("ok")
	assert.True(t, found)
	assert.True(t, ok.AsBool())

	items, found := decoded.AsDict().Get("items")
	assert.True(t, found)
	assert.Len(t, items.AsTuple(), 2)
	assert.Equal(t, float64(1), items.AsTuple()[0].AsNumber())
	assert.Equal(t, "a", items.AsTuple()[1].AsString())
}

func TestFromJSONNull(t *testing.T) {
	assert.True(t, fromJSON(nil).IsNull())
}
