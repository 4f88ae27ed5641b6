package analytics

import (
	"strings"

	"github.com/mssola/useragent"
)

// clientInfo is the parsed user-agent slice the aggregator cares about.
type clientInfo struct {
	Browser        string
	BrowserVersion string
	OS             string
	OSVersion      string
}

// parseUserAgent extracts browser and OS identity from a raw user-agent
// string. Unparsable agents degrade to "Unknown" rather than failing the
// aggregation pass.
func parseUserAgent(raw string) clientInfo {
	ua := useragent.New(raw)

	info := clientInfo{}
	info.Browser, info.BrowserVersion = ua.Browser()
	if info.Browser == "" {
		info.Browser = "Unknown"
	}

	osInfo := ua.OSInfo()
	info.OS = osInfo.Name
	info.OSVersion = osInfo.Version
	if info.OS == "" {
		info.OS = "Unknown"
		info.OSVersion = ""
	}

	return info
}

// signature renders the breakdown key, e.g. "Chrome (Windows 10)".
func (c clientInfo) signature() string {
	return c.Browser + " (" + strings.TrimSpace(c.OS+" "+c.OSVersion) + ")"
}
