package craftnft

import (
	"strings"
)

const CollectibleIDLength = 64

// GatewayURL composes the public locator of a content id behind a gateway.
func GatewayURL(gateway, cid string) string {
	return strings.TrimRight(gateway, "/") + "/" + strings.TrimLeft(cid, "/")
}

func isLowerHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

func IsHex(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isLowerHex(s[i]) {
			return false
		}
	}
	return true
}

func IsCollectibleID(id string) bool {
	return len(id) == CollectibleIDLength && IsHex(id)
}
