/*
Package tls terminates HTTPS for the gateway listener.

A Config names a PEM certificate and key. NewServerConfig loads them,
validates the leaf certificate and returns a crypto/tls configuration whose
GetCertificate callback reads from a CertificateReloader, so renewed
certificates are picked up without restarting the gateway:

	tlsCfg, err := tls.NewServerConfig(ctx, &cfg.Server.TLS, logger)
	if err != nil {
		return err
	}
	srv.TLSConfig = tlsCfg

Only TLS 1.2 and 1.3 are accepted.
*/
package tls
