package core

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed version
var clientVersion string

func ClientVersion() string {
	return strings.TrimSpace(clientVersion)
}

// SdkIdentifier is the value sent in the x-cdp-sdk header.
func SdkIdentifier() string {
	return fmt.Sprintf("%s:%s", DefaultClientName, ClientVersion())
}
