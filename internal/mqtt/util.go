package mqtt

import (
	"fmt"
	"strings"
)

// ParseURL splits a broker address such as "mqtt://host:1883" into host and
// port. A missing port yields the default for the scheme.
func ParseURL(urlStr string) (string, int) {
	port := 1883
	if strings.HasPrefix(urlStr, "mqtts://") || strings.HasPrefix(urlStr, "ssl://") {
		port = 8883
	}
	if i := strings.Index(urlStr, "://"); i >= 0 {
		urlStr = urlStr[i+3:]
	}
	parts := strings.Split(urlStr, ":")
	if len(parts) == 1 {
		return parts[0], port
	}
	fmt.Sscanf(parts[1], "%d", &port)
	return parts[0], port
}

// BrokerURL builds the paho server URL for host and port.
func BrokerURL(host string, port int, secure bool) string {
	if strings.Contains(host, "://") {
		h, p := ParseURL(host)
		secure = secure || strings.HasPrefix(host, "mqtts://") || strings.HasPrefix(host, "ssl://")
		host, port = h, p
	}
	scheme := "tcp"
	if secure {
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, host, port)
}
