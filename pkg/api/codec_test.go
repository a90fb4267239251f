package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type sample struct {
	OrderID string `json:"orderId"`
	Amount  string `json:"amount"`
}

func TestJSONCodec(t *testing.T) {
	c := JSONCodec{}
	require.Equal(t, "json", c.Name())

	data, err := c.Marshal(&sample{OrderID: "o-1", Amount: "333.33"})
	require.NoError(t, err)
	require.JSONEq(t, `{"orderId":"o-1","amount":"333.33"}`, string(data))

	var got sample
	require.NoError(t, c.Unmarshal(data, &got))
	require.Equal(t, "333.33", got.Amount)

	var empty sample
	require.NoError(t, c.Unmarshal(nil, &empty))
	require.Error(t, c.Unmarshal([]byte(`{"amount":1`), &empty))
}
