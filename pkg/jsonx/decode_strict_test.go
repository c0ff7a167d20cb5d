package jsonx

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func decode(t *testing.T, body string) (payload, error) {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	var p payload
	err := DecodeStrictBody(req, &p)
	return p, err
}

func TestDecodeStrictBody(t *testing.T) {
	p, err := decode(t, `{"name":"x","count":3}`)
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "x", Count: 3}, p)
}

func TestDecodeStrictBodyEmpty(t *testing.T) {
	_, err := decode(t, "")
	assert.ErrorIs(t, err, ErrEmptyBody)

	_, err = decode(t, "   \n\t")
	assert.ErrorIs(t, err, ErrEmptyBody)
}

func TestDecodeStrictBodyUnknownField(t *testing.T) {
	_, err := decode(t, `{"name":"x","bogus":true}`)
	assert.Error(t, err)
}

func TestDecodeStrictBodyTrailingData(t *testing.T) {
	_, err := decode(t, `{"name":"x"} {"name":"y"}`)
	assert.ErrorIs(t, err, ErrTrailingJSON)
}

func TestDecodeStrictBodyTypeMismatch(t *testing.T) {
	_, err := decode(t, `{"count":"three"}`)
	assert.Error(t, err)
}

func TestDecodeStrictBodyMalformed(t *testing.T) {
	_, err := decode(t, `{"name":`)
	assert.Error(t, err)
}
