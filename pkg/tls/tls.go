package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"google.golang.org/grpc/credentials"
)

// Files names the PEM files of one TLS identity
type Files struct {
	CertFile string
	KeyFile  string
	CAFile   string
}

// ServerConfig creates a TLS config for servers. When requireClientCert is set
// and a CA file is given, peers must present a certificate signed by that CA.
func ServerConfig(f Files, requireClientCert bool) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(f.CertFile, f.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load server certificate: %w", err)
	}

	config := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if requireClientCert && f.CAFile != "" {
		pool, err := loadCAPool(f.CAFile)
		if err != nil {
			return nil, err
		}
		config.ClientCAs = pool
		config.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return config, nil
}

// ClientConfig creates a TLS config for clients, presenting a certificate when one is given
func ClientConfig(f Files) (*tls.Config, error) {
	pool, err := loadCAPool(f.CAFile)
	if err != nil {
		return nil, err
	}

	config := &tls.Config{
		RootCAs:    pool,
		MinVersion: tls.VersionTLS12,
	}

	if f.CertFile != "" && f.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(f.CertFile, f.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		config.Certificates = []tls.Certificate{cert}
	}

	return config, nil
}

// GRPCServerCredentials returns mTLS transport credentials for the users gRPC server
func GRPCServerCredentials(f Files) (credentials.TransportCredentials, error) {
	config, err := ServerConfig(f, true)
	if err != nil {
		return nil, err
	}
	return credentials.NewTLS(config), nil
}

// GRPCClientCredentials returns mTLS transport credentials for callers of the users gRPC server
func GRPCClientCredentials(f Files) (credentials.TransportCredentials, error) {
	config, err := ClientConfig(f)
	if err != nil {
		return nil, err
	}
	return credentials.NewTLS(config), nil
}

func loadCAPool(caFile string) (*x509.CertPool, error) {
	caCert, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caCert) {
		return nil, fmt.Errorf("failed to parse CA certificate %s", caFile)
	}
	return pool, nil
}
