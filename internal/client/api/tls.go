package api

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// WithRootCA verifies the backend against the PEM bundle in caFile instead of
// the system pool.
func WithRootCA(caFile string) Option {
	return func(c *Client) error {
		caCert, err := os.ReadFile(caFile)
		if err != nil {
			return fmt.Errorf("failed to read CA cert: %w", err)
		}
		caPool := x509.NewCertPool()
		if !caPool.AppendCertsFromPEM(caCert) {
			return errors.New("failed to parse CA cert")
		}
		c.tlsConfig().RootCAs = caPool
		return nil
	}
}

// WithClientCertificate presents the certificate in certFile and keyFile on
// every TLS handshake.
func WithClientCertificate(certFile, keyFile string) Option {
	return func(c *Client) error {
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return fmt.Errorf("failed to load client cert/key: %w", err)
		}
		cfg := c.tlsConfig()
		cfg.Certificates = append(cfg.Certificates, cert)
		return nil
	}
}

func (c *Client) tlsConfig() *tls.Config {
	if c.tls == nil {
		c.tls = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return c.tls
}
