package sign

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/youmark/pkcs8"
)

// LoadPrivateKeyFromFile loads a PEM private key. Supported block types are
// PRIVATE KEY (PKCS#8), RSA PRIVATE KEY (PKCS#1) and ENCRYPTED PRIVATE KEY
// (PKCS#8, requires password).
func LoadPrivateKeyFromFile(path string, password []byte) (crypto.PrivateKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return LoadPrivateKeyFromPEM(b, password)
}

func LoadPrivateKeyFromPEM(pemBytes []byte, password []byte) (crypto.PrivateKey, error) {
	for len(pemBytes) > 0 {
		var block *pem.Block
		block, pemBytes = pem.Decode(pemBytes)
		if block == nil {
			break
		}

		switch block.Type {
		case "PRIVATE KEY":
			return x509.ParsePKCS8PrivateKey(block.Bytes)
		case "RSA PRIVATE KEY":
			return x509.ParsePKCS1PrivateKey(block.Bytes)
		case "ENCRYPTED PRIVATE KEY":
			if len(password) == 0 {
				return nil, errors.New("password is required for ENCRYPTED PRIVATE KEY")
			}
			key, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes, password)
			if err != nil {
				return nil, fmt.Errorf("decrypt PKCS#8 encrypted private key: %w", err)
			}
			return key, nil
		}
	}
	return nil, errors.New("no private key block found in PEM")
}
