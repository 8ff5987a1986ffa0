package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	SHA   string  `json:"sha256"`
	Label float64 `json:"label"`
}

func TestCodecs(t *testing.T) {
	for _, c := range []Codec{JSON{}, GoJSON{}} {
		t.Run(c.Name(), func(t *testing.T) {
			in := sample{SHA: "abc", Label: 1}
			data, err := c.Marshal(in)
			require.NoError(t, err)

			var out sample
			require.NoError(t, c.Unmarshal(data, &out))
			assert.Equal(t, in, out)
		})
	}
}

func TestByName(t *testing.T) {
	c, ok := ByName("json")
	require.True(t, ok)
	assert.Equal(t, "json", c.Name())

	c, ok = ByName("go-json")
	require.True(t, ok)
	assert.Equal(t, "go-json", c.Name())

	_, ok = ByName("msgpack")
	assert.False(t, ok)
}
