// internal/app/system/certcheck/certcheck.go
package certcheck

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// CertInfo describes the leaf certificate presented by a TLS endpoint.
type CertInfo struct {
	Host      string    `json:"host"`
	Checked   bool      `json:"checked"`
	ExpiresAt time.Time `json:"expires_at"`
	DaysLeft  int       `json:"days_left"`
	Issuer    string    `json:"issuer"`
	IsValid   bool      `json:"is_valid"`
	Error     string    `json:"error,omitempty"`
}

// Checker fetches certificate information for a URL.
type Checker func(ctx context.Context, rawURL string) CertInfo

// Check dials the host of rawURL and reports on its certificate. Plain http
// URLs and loopback hosts are not checked and report Checked=false.
func Check(ctx context.Context, rawURL string) CertInfo {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return CertInfo{Host: rawURL, Error: "invalid URL"}
	}
	host := u.Hostname()
	info := CertInfo{Host: host}
	if u.Scheme != "https" {
		info.IsValid = true
		info.Error = "not https"
		return info
	}
	if isLocalhost(host) {
		info.IsValid = true
		info.Error = "localhost - no TLS"
		return info
	}

	port := u.Port()
	if port == "" {
		port = "443"
	}
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: 5 * time.Second},
		Config:    &tls.Config{ServerName: host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		info.Error = fmt.Sprintf("connection failed: %v", err)
		return info
	}
	defer conn.Close()

	info.Checked = true
	certs := conn.(*tls.Conn).ConnectionState().PeerCertificates
	if len(certs) == 0 {
		info.Error = "no certificates found"
		return info
	}
	return describe(info, certs[0].NotBefore, certs[0].NotAfter, certs[0].Issuer.CommonName, time.Now())
}

func describe(info CertInfo, notBefore, notAfter time.Time, issuer string, now time.Time) CertInfo {
	info.ExpiresAt = notAfter
	info.DaysLeft = int(notAfter.Sub(now).Hours() / 24)
	info.Issuer = issuer
	info.IsValid = now.Before(notAfter) && now.After(notBefore)
	return info
}

func isLocalhost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
