package mapping_test

import (
	"encoding/json"
	"testing"

	"schema-mapper/internal/mapping"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseLength(t *testing.T) {
	tests := []struct {
		in      interface{}
		want    mapping.Length
		wantErr bool
	}{
		{in: nil, want: mapping.NoLength()},
		{in: "", want: mapping.NoLength()},
		{in: "max", want: mapping.MaxLength()},
		{in: " MAX ", want: mapping.MaxLength()},
		{in: 255, want: mapping.LengthOf(255)},
		{in: "2621440", want: mapping.LengthOf(2621440)},
		{in: int64(1), want: mapping.LengthOf(1)},
		{in: 0, wantErr: true},
		{in: "-4", wantErr: true},
		{in: "wide", wantErr: true},
		{in: "010", want: mapping.LengthOf(10)},
		{in: " 0255", want: mapping.LengthOf(255)},
		{in: "0x10", wantErr: true},
		{in: "0b11", wantErr: true},
		{in: "1_000", wantErr: true},
	}
	for _, tt := range tests {
		got, err := mapping.ParseLength(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, mapping.ErrInvalidLength, "input %v", tt.in)
			continue
		}
		require.NoError(t, err, "input %v", tt.in)
		assert.Equal(t, tt.want, got, "input %v", tt.in)
	}
}

func TestLength_Encoding(t *testing.T) {
	col := mapping.Column{SpID: "c1", SpColName: "name", SpDataType: "STRING", SpColMaxLength: mapping.MaxLength(), SrcColMaxLength: mapping.LengthOf(40)}

	data, err := json.Marshal(col)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"spColMaxLength":"MAX"`)
	assert.Contains(t, string(data), `"srcColMaxLength":40`)

	var fromJSON mapping.Column
	require.NoError(t, json.Unmarshal(data, &fromJSON))
	assert.Equal(t, col, fromJSON)

	out, err := yaml.Marshal(col)
	require.NoError(t, err)
	var fromYAML mapping.Column
	require.NoError(t, yaml.Unmarshal(out, &fromYAML))
	assert.Equal(t, col, fromYAML)
}

func TestLength_JSONNullAndString(t *testing.T) {
	var col mapping.Column
	require.NoError(t, json.Unmarshal([]byte(`{"spId":"c1","spColMaxLength":null,"srcColMaxLength":"100"}`), &col))
	assert.True(t, col.SpColMaxLength.IsZero())
	assert.Equal(t, mapping.LengthOf(100), col.SrcColMaxLength)

	err := json.Unmarshal([]byte(`{"spColMaxLength":-1}`), &col)
	assert.ErrorIs(t, err, mapping.ErrInvalidLength)
}
