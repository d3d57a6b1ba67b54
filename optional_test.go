package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpt(t *testing.T) {
	var zero Opt[int]
	assert.False(t, zero.IsSet())
	assert.Equal(t, 7, zero.OrElse(7))

	o := Some(0)
	v, ok := o.Get()
	assert.True(t, ok)
	assert.Equal(t, 0, v)
	assert.Equal(t, 0, o.OrElse(7))

	assert.False(t, None[string]().IsSet())
}

func TestOptJSON(t *testing.T) {
	type patch struct {
		Total  Opt[float64] `json:"total"`
		Status Opt[string]  `json:"status"`
	}

	b, err := json.Marshal(patch{Total: Some(0.0)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":0,"status":null}`, string(b))

	var p patch
	require.NoError(t, json.Unmarshal([]byte(`{"total":0,"status":null}`), &p))
	assert.True(t, p.Total.IsSet())
	assert.False(t, p.Status.IsSet())

	p = patch{}
	require.NoError(t, json.Unmarshal([]byte(`{"status":"shipped"}`), &p))
	assert.False(t, p.Total.IsSet())
	assert.Equal(t, "shipped", p.Status.OrElse(""))

	assert.Error(t, json.Unmarshal([]byte(`{"total":"x"}`), &p))
}
