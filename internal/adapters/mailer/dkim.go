package mailer

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	msgauthdkim "github.com/emersion/go-msgauth/dkim"

	"github.com/mikey/contact-intake/internal/config"
)

// DKIMSigner adds a DKIM-Signature header to composed messages
type DKIMSigner struct {
	domain     string
	selector   string
	key        crypto.Signer
	headerKeys []string
}

var defaultSignedHeaders = []string{
	"from",
	"to",
	"reply-to",
	"subject",
	"date",
	"mime-version",
	"content-type",
	"message-id",
}

// NewDKIMSigner creates a signer from a PEM encoded private key
func NewDKIMSigner(domain, selector string, pemData []byte) (*DKIMSigner, error) {
	if selector == "" {
		return nil, errors.New("dkim: selector is required")
	}
	key, err := parsePrivateKey(pemData)
	if err != nil {
		return nil, fmt.Errorf("dkim: parse private key: %w", err)
	}
	return &DKIMSigner{
		domain:     strings.ToLower(strings.TrimSpace(domain)),
		selector:   selector,
		key:        key,
		headerKeys: defaultSignedHeaders,
	}, nil
}

// LoadDKIMSigner returns nil when signing is disabled
func LoadDKIMSigner(cfg config.DKIMConfig) (*DKIMSigner, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.PrivateKeyPath == "" {
		return nil, errors.New("dkim: private_key_path is required when dkim is enabled")
	}
	pemData, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("dkim: read private key: %w", err)
	}
	return NewDKIMSigner(cfg.Domain, cfg.Selector, pemData)
}

// Sign returns message with a DKIM-Signature prepended. from supplies the
// signing domain when none is configured.
func (s *DKIMSigner) Sign(message []byte, from string) ([]byte, error) {
	if s == nil || s.key == nil || hasSignature(message) {
		return message, nil
	}

	domain := s.domain
	if domain == "" {
		domain = domainOf(from)
	}
	if domain == "" {
		return nil, errors.New("dkim: unable to determine signing domain")
	}

	opts := &msgauthdkim.SignOptions{
		Domain:                 domain,
		Selector:               s.selector,
		Signer:                 s.key,
		HeaderCanonicalization: msgauthdkim.CanonicalizationRelaxed,
		BodyCanonicalization:   msgauthdkim.CanonicalizationRelaxed,
		HeaderKeys:             s.headerKeys,
	}

	var signed bytes.Buffer
	if err := msgauthdkim.Sign(&signed, bytes.NewReader(message), opts); err != nil {
		return nil, fmt.Errorf("dkim: signing failed: %w", err)
	}
	return signed.Bytes(), nil
}

func parsePrivateKey(pemData []byte) (crypto.Signer, error) {
	for {
		block, rest := pem.Decode(pemData)
		if block == nil {
			break
		}
		switch block.Type {
		case "RSA PRIVATE KEY":
			return x509.ParsePKCS1PrivateKey(block.Bytes)
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			if signer, ok := key.(crypto.Signer); ok {
				return signer, nil
			}
			return nil, errors.New("unsupported private key type in PKCS#8 container")
		}
		pemData = rest
	}
	return nil, errors.New("no private key found in PEM data")
}

func hasSignature(message []byte) bool {
	end := bytes.Index(message, []byte("\r\n\r\n"))
	if end < 0 {
		end = len(message)
	}
	for _, line := range bytes.Split(message[:end], []byte("\r\n")) {
		if len(line) > 15 && strings.EqualFold(string(line[:15]), "DKIM-Signature:") {
			return true
		}
	}
	return false
}

func domainOf(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i+1 < len(address) {
		return strings.ToLower(strings.Trim(address[i+1:], "> "))
	}
	return ""
}
