package shell

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Line(t *testing.T) {
	out := &bytes.Buffer{}
	p := NewPrompter(strings.NewReader("  hello \n"), out)

	got, err := p.Line("Name: ")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, "Name: ", out.String())

	_, err = p.Line("Again: ")
	assert.ErrorIs(t, err, io.EOF)
}

func TestPrompter_Order(t *testing.T) {
	p := NewPrompter(strings.NewReader("4111111111111111\nvisa\n1 Main St\n\n"), io.Discard)

	req, err := p.Order()
	require.NoError(t, err)
	assert.Equal(t, "4111111111111111", req.Card.Number)
	assert.Equal(t, "visa", req.Card.Brand)
	assert.Equal(t, "1 Main St", req.ShippingAddress)
	assert.Equal(t, "1 Main St", req.BillingAddress)
}

func TestPrompter_Registration(t *testing.T) {
	p := NewPrompter(strings.NewReader("a@b.c\nsecret1\nAnn\n"), io.Discard)

	req, err := p.Registration()
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", req.Email)
	assert.Equal(t, "secret1", req.Password)
	assert.Equal(t, "Ann", req.FullName)

	_, err = NewPrompter(strings.NewReader("a@b.c\n"), io.Discard).Registration()
	assert.ErrorIs(t, err, io.EOF)
}
