package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVariantStringTerminator(t *testing.T) {
	assert.Equal(t, NulTerminator, VariantRS3.StringTerminator())
	assert.Equal(t, NulTerminator, VariantOSRS.StringTerminator())
	assert.Equal(t, NewlineTerminator, VariantLegacy.StringTerminator())
}
