package sign

import (
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"time"

	"github.com/hhrutter/pkcs7"
)

// CMSSigner signs documents with an X.509 certificate and its private key,
// producing a DER-encoded PKCS#7 SignedData structure as WSAA expects.
type CMSSigner struct {
	cert *x509.Certificate
	key  crypto.PrivateKey
}

func NewCMSSigner(cert *x509.Certificate, key crypto.PrivateKey) *CMSSigner {
	return &CMSSigner{cert: cert, key: key}
}

// NewCMSSignerFromFiles loads a PEM certificate and private key pair.
// Password may be nil for unencrypted keys.
func NewCMSSignerFromFiles(certPath, keyPath string, password []byte) (*CMSSigner, error) {
	cert, err := LoadCertificateFromFile(certPath)
	if err != nil {
		return nil, err
	}
	key, err := LoadPrivateKeyFromFile(keyPath, password)
	if err != nil {
		return nil, err
	}
	return &CMSSigner{cert: cert, key: key}, nil
}

func (s *CMSSigner) Sign(document []byte) ([]byte, error) {

	if now := time.Now(); now.After(s.cert.NotAfter) {
		return nil, &SigningError{
			Reason: fmt.Sprintf("certificate expired %s", s.cert.NotAfter.Format(time.RFC3339)),
		}
	}

	sd, err := pkcs7.NewSignedData(document)
	if err != nil {
		return nil, &SigningError{Reason: "init signed data", Err: err}
	}

	if err := sd.AddSigner(s.cert, s.key, pkcs7.SignerInfoConfig{}); err != nil {
		return nil, &SigningError{Reason: "add signer", Err: err}
	}

	signed, err := sd.Finish()
	if err != nil {
		return nil, &SigningError{Reason: "finish", Err: err}
	}
	return signed, nil
}

// LoadCertificateFromFile reads the first CERTIFICATE block from a PEM file.
func LoadCertificateFromFile(path string) (*x509.Certificate, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read certificate file: %w", err)
	}
	return LoadCertificateFromPEM(b)
}

func LoadCertificateFromPEM(pemBytes []byte) (*x509.Certificate, error) {
	for len(pemBytes) > 0 {
		var block *pem.Block
		block, pemBytes = pem.Decode(pemBytes)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		return x509.ParseCertificate(block.Bytes)
	}
	return nil, fmt.Errorf("no CERTIFICATE block found in PEM")
}
