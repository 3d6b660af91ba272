package rpc_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianlabs/meridian-go/pkg/rpc"
)

func TestNewRequest(t *testing.T) {
	t.Parallel()

	params, err := rpc.NewParams(map[string]any{"query": "node.event = 'Tx'"})
	require.NoError(t, err)

	req := rpc.NewRequest(7, rpc.MethodSubscribe, params)
	assert.Equal(t, rpc.Version, req.Version)
	assert.Equal(t, uint64(7), req.ID)
	assert.Equal(t, rpc.MethodSubscribe, req.Method)

	data, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":7,"method":"subscribe","params":{"query":"node.event = 'Tx'"}}`, string(data))
}

func TestNewParamsRejectsNonObject(t *testing.T) {
	t.Parallel()

	_, err := rpc.NewParams([]int{1, 2, 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON object")
}

func TestParamsTranslate(t *testing.T) {
	t.Parallel()

	type subscribeParams struct {
		Query string `json:"query"`
	}

	params, err := rpc.NewParams(subscribeParams{Query: "tx.height > 9"})
	require.NoError(t, err)

	var out subscribeParams
	require.NoError(t, params.Translate(&out))
	assert.Equal(t, "tx.height > 9", out.Query)
}

func TestIDUnmarshal(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name     string
		input    string
		isString bool
		str      string
		num      uint64
		errMsg   string
	}{
		{
			name:  "numeric id",
			input: `42`,
			num:   42,
			str:   "42",
		},
		{
			name:     "string id",
			input:    `"0xc5ba5d4e#subs#5"`,
			isString: true,
			str:      "0xc5ba5d4e#subs#5",
		},
		{
			name:   "invalid id",
			input:  `{"nested": true}`,
			errMsg: "invalid message id",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			var id rpc.ID
			err := json.Unmarshal([]byte(tc.input), &id)
			if tc.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.isString, id.IsString())
			assert.Equal(t, tc.str, id.String())
			if !tc.isString {
				num, ok := id.Uint64()
				assert.True(t, ok)
				assert.Equal(t, tc.num, num)
			} else {
				_, ok := id.Uint64()
				assert.False(t, ok)
			}
		})
	}
}

func TestIDMarshalRoundTrip(t *testing.T) {
	t.Parallel()

	for _, id := range []rpc.ID{rpc.NewNumberID(9), rpc.NewStringID("sub-1")} {
		data, err := json.Marshal(id)
		require.NoError(t, err)

		var decoded rpc.ID
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, id, decoded)
	}
}

func TestResponseErr(t *testing.T) {
	t.Parallel()

	var res rpc.Response
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`), &res))

	err := res.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "method not found")
	assert.Contains(t, err.Error(), "-32601")

	ok := rpc.Response{Version: rpc.Version, ID: rpc.NewNumberID(1)}
	assert.NoError(t, ok.Err())
}

func TestResponseDecodeResult(t *testing.T) {
	t.Parallel()

	var res rpc.Response
	require.NoError(t, json.Unmarshal([]byte(`{"jsonrpc":"2.0","id":3,"result":{"height":42}}`), &res))

	var out struct {
		Height int64 `json:"height"`
	}
	require.NoError(t, res.DecodeResult(&out))
	assert.Equal(t, int64(42), out.Height)

	empty := rpc.Response{Version: rpc.Version, ID: rpc.NewNumberID(3)}
	err := empty.DecodeResult(&out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no result")
}
