package service

import (
	"encoding/base64"
	"net/http"
	"strings"

	"itad_portal_backend/platform/apperr"
)

const maxSignatureBytes = 2 << 20

var signatureContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// DecodeSignature accepts a data URL or bare base64 image as drawn by the
// signature pad and returns the decoded image.
func DecodeSignature(field, raw string) (SignatureImage, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SignatureImage{}, apperr.Validation(field + " is required")
	}

	payload := raw
	if strings.HasPrefix(raw, "data:") {
		_, after, ok := strings.Cut(raw, ",")
		if !ok {
			return SignatureImage{}, invalidSignature(field)
		}
		payload = after
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return SignatureImage{}, invalidSignature(field)
	}
	if len(data) == 0 || len(data) > maxSignatureBytes {
		return SignatureImage{}, invalidSignature(field)
	}

	contentType := http.DetectContentType(data)
	if !signatureContentTypes[contentType] {
		return SignatureImage{}, invalidSignature(field)
	}
	return SignatureImage{ContentType: contentType, Data: data}, nil
}

func invalidSignature(field string) error {
	return apperr.Validation(field + " must be a PNG, JPEG or WebP image").
		WithDetails(map[string]string{"field": field})
}
