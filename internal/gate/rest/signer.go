package rest

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"strings"
	"time"
)

// Signer produces the Gate v4 authentication headers: an HMAC-SHA512
// signature over method, prefixed path, query string, body hash and a
// unix-second timestamp.
type Signer struct {
	key    string
	secret string
	prefix string
	now    func() time.Time
}

func NewSigner(key, secret, prefix string) *Signer {
	return &Signer{key: key, secret: secret, prefix: prefix, now: time.Now}
}

func (s *Signer) Headers(method, path, query, body string) map[string]string {
	timestamp := strconv.FormatInt(s.now().Unix(), 10)
	return map[string]string{
		"KEY":       s.key,
		"Timestamp": timestamp,
		"SIGN":      s.sign(method, path, query, body, timestamp),
	}
}

func (s *Signer) sign(method, path, query, body, timestamp string) string {
	bodyHash := sha512.Sum512([]byte(body))
	payload := strings.Join([]string{
		strings.ToUpper(method),
		s.prefix + path,
		query,
		hex.EncodeToString(bodyHash[:]),
		timestamp,
	}, "\n")
	mac := hmac.New(sha512.New, []byte(s.secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
