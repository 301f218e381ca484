package security

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// ProxyResolver finds the client address of a request, believing forwarded
// headers only when the direct peer is a trusted proxy.
type ProxyResolver struct {
	trusted []*net.IPNet
}

// NewProxyResolver trusts loopback and the private ranges, plus any extra CIDRs.
func NewProxyResolver(extra ...string) (*ProxyResolver, error) {
	p := &ProxyResolver{}
	for _, cidr := range append([]string{"127.0.0.0/8", "10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16", "::1/128"}, extra...) {
		if err := p.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *ProxyResolver) AddTrustedProxy(cidr string) error {
	_, network, err := net.ParseCIDR(strings.TrimSpace(cidr))
	if err != nil {
		return fmt.Errorf("invalid CIDR %s: %w", cidr, err)
	}
	p.trusted = append(p.trusted, network)
	return nil
}

// ClientIP returns the first X-Forwarded-For address, then X-Real-IP, when the
// peer is trusted; otherwise the peer address.
func (p *ProxyResolver) ClientIP(r *http.Request) string {
	direct, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		direct = r.RemoteAddr
	}
	ip := net.ParseIP(direct)
	if ip == nil || !p.Trusted(ip) {
		return direct
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		first = strings.TrimSpace(first)
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	return direct
}

func (p *ProxyResolver) Trusted(ip net.IP) bool {
	for _, network := range p.trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
