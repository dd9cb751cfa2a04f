package mirror_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kurble/mirror/mirror"
)

// Invariant 6 from spec.md §8: a Hidden field never appears on the wire,
// regardless of what value it carries.
func TestHiddenJSONRoundTrip(t *testing.T) {
	h := mirror.Hidden[string]{Value: "secret"}

	data, err := json.Marshal(h)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	var decoded mirror.Hidden[string]
	decoded.Value = "leftover"
	require.NoError(t, json.Unmarshal([]byte(`"anything"`), &decoded))
	assert.Empty(t, decoded.Value, "UnmarshalJSON must never populate a Hidden value")
}

type withHidden struct {
	Visible string
	Secret  mirror.Hidden[string]
}

func TestHiddenNestedInStruct(t *testing.T) {
	v := withHidden{Visible: "ok", Secret: mirror.Hidden[string]{Value: "nope"}}
	data, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Visible":"ok","Secret":null}`, string(data))
}
