// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lentos Contributors

// Package tls loads the HTTPS certificate for lentos and can generate a
// self-signed one when none is configured.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	cryptotls "crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"io/fs"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/oops"
)

// DefaultValidity is the lifetime of a generated self-signed certificate.
const DefaultValidity = 365 * 24 * time.Hour

// ErrCertificateMissing is returned when the certificate files do not exist
// and generation is disabled.
var ErrCertificateMissing = errors.New("tls certificate files missing")

// SelfSigned holds a generated certificate and its private key.
type SelfSigned struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
}

// GenerateSelfSigned creates a P-256 self-signed server certificate valid for
// the given hosts. Hosts that parse as IP addresses become IP SANs, the rest
// DNS SANs. localhost and 127.0.0.1 are always included.
func GenerateSelfSigned(hosts []string, validFor time.Duration) (*SelfSigned, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, oops.Code("TLS_KEY_GENERATE_FAILED").Wrap(err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, oops.Code("TLS_SERIAL_FAILED").Wrap(err)
	}

	if validFor <= 0 {
		validFor = DefaultValidity
	}
	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			Organization: []string{"Lentos"},
			CommonName:   "lentos self-signed",
		},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(validFor),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	addSANs(template, append([]string{"localhost", "127.0.0.1"}, hosts...))

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, oops.Code("TLS_CERT_CREATE_FAILED").Wrap(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, oops.Code("TLS_CERT_PARSE_FAILED").Wrap(err)
	}

	return &SelfSigned{Certificate: cert, PrivateKey: key}, nil
}

func addSANs(template *x509.Certificate, hosts []string) {
	seen := make(map[string]bool, len(hosts))
	for _, h := range hosts {
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		if ip := net.ParseIP(h); ip != nil {
			if !ip.IsUnspecified() {
				template.IPAddresses = append(template.IPAddresses, ip)
			}
			continue
		}
		template.DNSNames = append(template.DNSNames, h)
	}
}

// Save writes the certificate and key as PEM files, creating parent
// directories as needed.
func (s *SelfSigned) Save(certFile, keyFile string) error {
	for _, dir := range []string{filepath.Dir(certFile), filepath.Dir(keyFile)} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return oops.Code("TLS_DIR_CREATE_FAILED").With("dir", dir).Wrap(err)
		}
	}

	if err := writePEM(certFile, "CERTIFICATE", s.Certificate.Raw); err != nil {
		return oops.Code("TLS_CERT_SAVE_FAILED").With("path", certFile).Wrap(err)
	}

	keyBytes, err := x509.MarshalECPrivateKey(s.PrivateKey)
	if err != nil {
		return oops.Code("TLS_KEY_MARSHAL_FAILED").Wrap(err)
	}
	if err := writePEM(keyFile, "EC PRIVATE KEY", keyBytes); err != nil {
		return oops.Code("TLS_KEY_SAVE_FAILED").With("path", keyFile).Wrap(err)
	}
	return nil
}

// Load reads a PEM certificate and key pair from disk.
func Load(certFile, keyFile string) (cryptotls.Certificate, error) {
	cert, err := cryptotls.LoadX509KeyPair(filepath.Clean(certFile), filepath.Clean(keyFile))
	if err != nil {
		return cryptotls.Certificate{}, oops.Code("TLS_LOAD_FAILED").
			With("cert_file", certFile).
			With("key_file", keyFile).
			Wrap(err)
	}
	return cert, nil
}

// LoadOrGenerate loads the configured key pair. When either file is missing
// and selfSigned is set, a certificate for hosts is generated and persisted
// first; otherwise ErrCertificateMissing is returned.
func LoadOrGenerate(certFile, keyFile string, selfSigned bool, hosts []string) (cryptotls.Certificate, error) {
	certExists, err := exists(certFile)
	if err != nil {
		return cryptotls.Certificate{}, err
	}
	keyExists, err := exists(keyFile)
	if err != nil {
		return cryptotls.Certificate{}, err
	}

	if !certExists || !keyExists {
		if !selfSigned {
			return cryptotls.Certificate{}, oops.Code("TLS_CERT_MISSING").
				With("cert_file", certFile).
				With("key_file", keyFile).
				Wrap(ErrCertificateMissing)
		}
		generated, err := GenerateSelfSigned(hosts, DefaultValidity)
		if err != nil {
			return cryptotls.Certificate{}, err
		}
		if err := generated.Save(certFile, keyFile); err != nil {
			return cryptotls.Certificate{}, err
		}
	}

	return Load(certFile, keyFile)
}

// ServerConfig returns a TLS 1.2+ server configuration serving cert.
func ServerConfig(cert cryptotls.Certificate) *cryptotls.Config {
	return &cryptotls.Config{
		Certificates: []cryptotls.Certificate{cert},
		MinVersion:   cryptotls.VersionTLS12,
	}
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, oops.Code("TLS_STAT_FAILED").With("path", path).Wrap(err)
	}
}

func writePEM(path, blockType string, der []byte) error {
	f, err := os.OpenFile(filepath.Clean(path), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err //nolint:wrapcheck // wrapped by caller
	}
	if err := pem.Encode(f, &pem.Block{Type: blockType, Bytes: der}); err != nil {
		_ = f.Close()
		return err //nolint:wrapcheck // wrapped by caller
	}
	return f.Close() //nolint:wrapcheck // wrapped by caller
}
