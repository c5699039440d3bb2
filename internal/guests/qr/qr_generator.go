package qr

import (
	"errors"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"
)

// QRGenerator renders portal links as PNG QR codes for printed invitations.
type QRGenerator struct {
	baseURL string
	size    int
}

func NewQRGenerator(baseURL string) *QRGenerator {
	return &QRGenerator{baseURL: strings.TrimRight(baseURL, "/"), size: 256}
}

// PortalLink is the capability URL handed to a guest.
func (q *QRGenerator) PortalLink(accessToken string) string {
	return q.baseURL + "/guest/" + url.PathEscape(accessToken)
}

func (q *QRGenerator) GeneratePortalQR(accessToken string) ([]byte, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, errors.New("access token is empty")
	}
	return qrcode.Encode(q.PortalLink(accessToken), qrcode.Medium, q.size)
}
