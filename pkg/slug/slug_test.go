package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"  Wireless Mouse (Black)  ", "wireless-mouse-black"},
		{"Café Crème", "cafe-creme"},
		{"Straße", "strasse"},
		{"Salt & Pepper", "salt-and-pepper"},
		{"USB-C -- Hub!!", "usb-c-hub"},
		{"Çocuk Ürünleri", "cocuk-urunleri"},
		{"Kadın Giyim", "kadin-giyim"},
		{"---", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Generate(tt.input))
		})
	}
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "gaming-mouse-6f9619ff", WithSuffix("Gaming Mouse", "6f9619ff-8b86-d011-b42d-00c04fc964ff"))
	assert.Equal(t, "gaming-mouse", WithSuffix("Gaming Mouse", ""))
	assert.Equal(t, "abc", WithSuffix("!!", "abc"))
}
