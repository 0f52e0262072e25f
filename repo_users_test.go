package storefront_test

import (
	"testing"

	storefront "github.com/goliatone/go-storefront"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"WES@Example.COM":    "wes@example.com",
		"  wes@example.com ": "wes@example.com",
		"wes@example.com":    "wes@example.com",
		"":                   "",
	}

	for in, want := range cases {
		assert.Equal(t, want, storefront.NormalizeEmail(in))
	}
}
