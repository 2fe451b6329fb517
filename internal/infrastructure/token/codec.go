// Package token encodes the OAuth bundle to and from the opaque cookie
// value: JSON serialized, then standard base64. Pure data transform, no I/O.
package token

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"strava-directus-layer/internal/domain"
)

// Encode serializes the bundle for cookie transport. Round-trip lossless for
// any well-formed bundle.
func Encode(bundle domain.TokenBundle) string {
	data, _ := json.Marshal(bundle)
	return base64.StdEncoding.EncodeToString(data)
}

// Decode is the inverse of Encode. Corrupt or non-decodable input fails with
// domain.ErrMalformedToken; callers treat that as "no usable session".
func Decode(value string) (domain.TokenBundle, error) {
	var bundle domain.TokenBundle
	if value == "" {
		return bundle, domain.ErrMalformedToken
	}
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return bundle, fmt.Errorf("%w: %v", domain.ErrMalformedToken, err)
	}
	if err := json.Unmarshal(data, &bundle); err != nil {
		return bundle, fmt.Errorf("%w: %v", domain.ErrMalformedToken, err)
	}
	if bundle.AccessToken == "" && bundle.RefreshToken == "" {
		return domain.TokenBundle{}, domain.ErrMalformedToken
	}
	return bundle, nil
}
