package tls

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// DefaultReloadInterval is how often certificate files are checked when
// Config.ReloadInterval is zero.
const DefaultReloadInterval = 5 * time.Minute

// Config describes the gateway's server certificate.
type Config struct {
	// Enabled switches the listener to HTTPS.
	Enabled bool `yaml:"enabled"`

	// CertFile is the PEM-encoded certificate chain.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the PEM-encoded private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.2"
	MinVersion string `yaml:"min_version"`

	// CipherSuites restricts TLS 1.2 suites. Empty uses Go's defaults.
	CipherSuites []string `yaml:"cipher_suites"`

	// ReloadInterval is how often the files are checked for changes.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// Validate checks the fields without touching the filesystem.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	var errs []error
	if c.CertFile == "" {
		errs = append(errs, errors.New("cert_file is required when TLS is enabled"))
	}
	if c.KeyFile == "" {
		errs = append(errs, errors.New("key_file is required when TLS is enabled"))
	}
	if _, err := c.minVersion(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.cipherSuites(); err != nil {
		errs = append(errs, err)
	}
	if c.ReloadInterval < 0 {
		errs = append(errs, errors.New("reload_interval cannot be negative"))
	}
	return errors.Join(errs...)
}

// NewServerConfig loads the certificate and starts a reloader bound to ctx.
// It returns nil when TLS is disabled.
func NewServerConfig(ctx context.Context, c *Config, logger *slog.Logger) (*tls.Config, error) {
	if c == nil || !c.Enabled {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	version, _ := c.minVersion()
	suites, _ := c.cipherSuites()

	interval := c.ReloadInterval
	if interval == 0 {
		interval = DefaultReloadInterval
	}
	reloader := NewCertificateReloader(c.CertFile, c.KeyFile, interval, logger)
	if err := reloader.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}

	// #nosec G402 - MinVersion is restricted to TLS 1.2 or later
	return &tls.Config{
		MinVersion:     version,
		CipherSuites:   suites,
		GetCertificate: reloader.GetCertificateFunc(),
	}, nil
}

func (c *Config) minVersion() (uint16, error) {
	switch c.MinVersion {
	case "", "1.2":
		return tls.VersionTLS12, nil
	case "1.3":
		return tls.VersionTLS13, nil
	default:
		return 0, fmt.Errorf("unsupported min_version %q (want 1.2 or 1.3)", c.MinVersion)
	}
}

func (c *Config) cipherSuites() ([]uint16, error) {
	if len(c.CipherSuites) == 0 {
		return nil, nil
	}
	known := make(map[string]uint16)
	for _, s := range tls.CipherSuites() {
		known[s.Name] = s.ID
	}
	ids := make([]uint16, 0, len(c.CipherSuites))
	for _, name := range c.CipherSuites {
		id, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unknown or insecure cipher suite %q", name)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ValidateCertificate checks that the leaf certificate is currently valid.
func ValidateCertificate(cert *tls.Certificate, now time.Time) (*x509.Certificate, error) {
	if cert == nil || len(cert.Certificate) == 0 {
		return nil, errors.New("certificate chain is empty")
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	if now.Before(leaf.NotBefore) {
		return nil, fmt.Errorf("certificate is not yet valid (valid from %s)", leaf.NotBefore.Format(time.RFC3339))
	}
	if now.After(leaf.NotAfter) {
		return nil, fmt.Errorf("certificate expired on %s", leaf.NotAfter.Format(time.RFC3339))
	}
	return leaf, nil
}
