package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	got, err := NormalizePhone("+971 (50) 123-4567")
	require.NoError(t, err)
	assert.Equal(t, "971501234567", got)

	for _, bad := range []string{"", "1234", "call me", "+971 50 123 4567 ext 9", "1234567890123456"} {
		_, err := NormalizePhone(bad)
		assert.ErrorIs(t, err, ErrInvalidPhone, bad)
	}
}

func TestWhatsAppLink(t *testing.T) {
	link, err := WhatsAppLink("+971 50 000 0000", "Hello world!", ChannelMobile)
	require.NoError(t, err)
	assert.Equal(t, "https://wa.me/971500000000?text=Hello%20world%21", link)

	link, err = WhatsAppLink("971500000000", "Hello world!", ChannelWeb)
	require.NoError(t, err)
	assert.Equal(t, "https://web.whatsapp.com/send?phone=971500000000&text=Hello+world%21", link)

	_, err = WhatsAppLink("n/a", "hi", ChannelMobile)
	assert.ErrorIs(t, err, ErrInvalidPhone)
}
