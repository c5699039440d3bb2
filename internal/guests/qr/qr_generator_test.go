package qr_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-guests/internal/guests/qr"
)

func TestPortalLink(t *testing.T) {
	gen := qr.NewQRGenerator("https://guests.example.com/")
	assert.Equal(t, "https://guests.example.com/guest/abc-123", gen.PortalLink("abc-123"))
}

func TestGeneratePortalQR(t *testing.T) {
	gen := qr.NewQRGenerator("https://guests.example.com")

	qrBytes, err := gen.GeneratePortalQR("5f0c7a52-8d0e-4d4f-9a57-0c6f1f2b9e11")
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(qrBytes))
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())

	_, err = gen.GeneratePortalQR("  ")
	assert.Error(t, err)
}
