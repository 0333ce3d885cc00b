package anchor

import (
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"

	"liyu1981.xyz/iot-anchor-service/pkg/models"
)

const (
	IotaMaxPayloadBytes        = 32 * 1024
	SignumMaxPayloadBytes      = 1000
	SignumFeeBuckets           = 6
	DefaultSignumFeeUnitPlanck = int64(735000)

	maxTagPrefixLen = 16
	tagDateLayout   = "02012006"
)

// SanitizeTagPrefix keeps ASCII letters and digits, at most 16 of them.
func SanitizeTagPrefix(s string) string {
	var b strings.Builder
	for _, r := range s {
		if b.Len() >= maxTagPrefixLen {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Tag is {prefix}@{namespace}_{DDMMYYYY}. The prefix falls back to the user id, then to "user".
func Tag(prefix string, userID string, namespace string, date time.Time) string {
	p := SanitizeTagPrefix(prefix)
	if p == "" {
		p = SanitizeTagPrefix(userID)
	}
	if p == "" {
		p = "user"
	}
	return fmt.Sprintf("%s@%s_%s", p, namespace, date.UTC().Format(tagDateLayout))
}

func MaxPayloadSize(chain models.Chain) int {
	switch chain {
	case models.ChainIota:
		return IotaMaxPayloadBytes
	case models.ChainSignum:
		return SignumMaxPayloadBytes
	default:
		return 0
	}
}

// FeeBucket maps a payload size onto one of six equal slices of 0..1000 bytes:
// ceil(size*6/1000) clamped to [1, 6].
func FeeBucket(size int) int {
	if size <= 0 {
		return 1
	}
	bucket := (size*SignumFeeBuckets + SignumMaxPayloadBytes - 1) / SignumMaxPayloadBytes
	if bucket < 1 {
		return 1
	}
	if bucket > SignumFeeBuckets {
		return SignumFeeBuckets
	}
	return bucket
}

func SignumFee(size int, unitPlanck int64) int64 {
	return int64(FeeBucket(size)) * unitPlanck
}

func ExplorerURL(base string, txID string) string {
	if base == "" || txID == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + txID
}

// CheckNodeURL accepts an empty value, meaning the configured node, or an absolute
// http(s) URL without credentials whose host is not a link-local or unspecified address.
func CheckNodeURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return invalidInput("node url must be an absolute http or https url")
	}
	if u.User != nil {
		return invalidInput("node url must not carry credentials")
	}
	if ip, err := netip.ParseAddr(u.Hostname()); err == nil {
		ip = ip.Unmap()
		if ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return invalidInput("node url host %s is not allowed", u.Hostname())
		}
	}
	return nil
}
