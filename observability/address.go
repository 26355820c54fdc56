// Package observability holds what the metrics and tracing middlewares share,
// and the process logger.
package observability

import "net"

// GetOutboundIP is the address other hosts reach this one at, "" when there
// is no route.
func GetOutboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return ""
	}
	defer func() {
		_ = conn.Close()
	}()
	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}
