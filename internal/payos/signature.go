package payos

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrChecksumKeyMissing means outbound signing was attempted without a
// configured key. Requests are never sent unsigned.
var ErrChecksumKeyMissing = errors.New("payos checksum key is not configured")

// SignPaymentRequest produces the payment-link signature over the fixed
// PayOS field order: amount, cancelUrl, description, orderCode, returnUrl.
func SignPaymentRequest(checksumKey string, amount int64, cancelURL string, description string, orderCode int64, returnURL string) (string, error) {
	if checksumKey == "" {
		return "", ErrChecksumKeyMissing
	}

	payload := fmt.Sprintf(
		"amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		amount, cancelURL, description, orderCode, returnURL,
	)

	mac := hmac.New(sha256.New, []byte(checksumKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifyWebhookSignature checks the webhook body against its embedded
// signature: HMAC-SHA256 over the compact body JSON with the top-level
// signature member removed and every other member left in delivery order,
// hex encoded, compared in constant time. The gateway signs the payload as
// it serializes it, so reordering keys here would reject valid deliveries.
// A body without a signature field never verifies.
func VerifyWebhookSignature(checksumKey string, rawBody []byte) (bool, error) {
	if checksumKey == "" {
		return false, ErrChecksumKeyMissing
	}

	supplied, payload, err := stripSignature(rawBody)
	if err != nil {
		return false, fmt.Errorf("invalid webhook body: %w", err)
	}
	if supplied == "" {
		return false, nil
	}

	mac := hmac.New(sha256.New, []byte(checksumKey))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(supplied)), nil
}

// stripSignature re-encodes the body compactly with the top-level signature
// member removed, preserving the order of the remaining members.
func stripSignature(rawBody []byte) (string, []byte, error) {
	dec := json.NewDecoder(bytes.NewReader(rawBody))

	tok, err := dec.Token()
	if err != nil {
		return "", nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return "", nil, errors.New("not a JSON object")
	}

	var (
		out       bytes.Buffer
		signature string
		first     = true
	)
	out.WriteByte('{')
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return "", nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return "", nil, errors.New("invalid object key")
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return "", nil, err
		}

		if key == "signature" {
			// a non-string signature is treated as absent
			_ = json.Unmarshal(value, &signature)
			continue
		}

		if !first {
			out.WriteByte(',')
		}
		first = false

		keyJSON, err := json.Marshal(key)
		if err != nil {
			return "", nil, err
		}
		out.Write(keyJSON)
		out.WriteByte(':')
		if err := json.Compact(&out, value); err != nil {
			return "", nil, err
		}
	}
	if _, err := dec.Token(); err != nil {
		return "", nil, err
	}
	out.WriteByte('}')

	return signature, out.Bytes(), nil
}

// SignWebhookPayload signs the json.Marshal form of the payload, used by
// tests and by outbound webhook simulation tooling. Verification hashes the
// body in its delivered member order, so the signed body must be serialized
// the same way (json.Marshal of the payload with the signature added).
func SignWebhookPayload(checksumKey string, payload map[string]interface{}) (string, error) {
	if checksumKey == "" {
		return "", ErrChecksumKeyMissing
	}

	canonical, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	mac := hmac.New(sha256.New, []byte(checksumKey))
	mac.Write(canonical)
	return hex.EncodeToString(mac.Sum(nil)), nil
}
