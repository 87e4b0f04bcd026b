package acceptor

import (
	"crypto/tls"
	"encoding/pem"
	"fmt"
	"net"
	"os"

	apperrors "rillstats/pkg/errors"

	"golang.org/x/crypto/pkcs12"
)

// LoadTLSConfig reads a PKCS#12 keystore holding the server key and its
// certificate chain.
func LoadTLSConfig(path, password string) (*tls.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewConfigError(err, fmt.Sprintf("failed to read keystore %s", path))
	}

	blocks, err := pkcs12.ToPEM(data, password)
	if err != nil {
		return nil, apperrors.NewConfigError(err, fmt.Sprintf("failed to decode keystore %s", path))
	}

	var certPEM, keyPEM []byte
	for _, b := range blocks {
		if b.Type == "CERTIFICATE" {
			certPEM = append(certPEM, pem.EncodeToMemory(b)...)
		} else {
			keyPEM = append(keyPEM, pem.EncodeToMemory(b)...)
		}
	}

	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, apperrors.NewConfigError(err, fmt.Sprintf("keystore %s holds no usable key pair", path))
	}

	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

// Listen binds addr. With a TLS config every accepted connection completes
// the TLS handshake, in blocking mode, before the WebSocket handshake reads
// from it; a failed handshake only drops that connection.
func Listen(addr string, tlsConfig *tls.Config) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, apperrors.NewConfigError(err, fmt.Sprintf("failed to bind %s", addr))
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}
	return ln, nil
}
