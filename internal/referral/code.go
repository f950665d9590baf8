package referral

import (
	"fmt"
	"net/url"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	Alphabet   = "1234567890abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	CodeLength = 10

	shareText = "I just joined the @neftitxyz waitlist for early access to the new era of Web3 tasks & rewards! Join me:"
)

// NewCode draws a CodeLength code uniformly from Alphabet.
func NewCode() (string, error) {
	code, err := gonanoid.Generate(Alphabet, CodeLength)
	if err != nil {
		return "", fmt.Errorf("generate referral code: %w", err)
	}
	return code, nil
}

// ValidCode reports whether code has the shape NewCode produces.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(Alphabet, r) {
			return false
		}
	}
	return true
}

// Link builds the public referral link: siteURL with ?ref=<code>.
func Link(siteURL, code string) string {
	u, err := url.Parse(siteURL)
	if err != nil || u.Host == "" {
		return strings.TrimRight(siteURL, "/") + "?ref=" + url.QueryEscape(code)
	}
	q := u.Query()
	q.Set("ref", code)
	u.RawQuery = q.Encode()
	return u.String()
}

// ShareURL is the X (Twitter) tweet intent for sharing link.
func ShareURL(link string) string {
	q := url.Values{}
	q.Set("text", shareText+" "+link)
	return "https://x.com/intent/tweet?" + q.Encode()
}
