package monitor

import (
	"strings"
	"time"
	"unicode"

	"github.com/digineo/go-netcheck/probe"
)

// UnknownCountry is displayed until a country has been resolved.
const UnknownCountry = "!?"

// Snapshot is the result of one cycle. Snapshots are never modified
// after they have been published.
type Snapshot struct {
	Outcomes  []probe.Outcome `json:"outcomes"`
	PublicIP  string          `json:"public_ip"`
	Country   string          `json:"country"`
	VPNCheck  bool            `json:"vpn_check"`
	VPNAtRisk bool            `json:"vpn_at_risk"`
	OverallUp bool            `json:"overall_up"`
	Failure   FailureClass    `json:"failure"`
	CheckedAt time.Time       `json:"checked_at"`
}

// Title renders the snapshot as a single status line: country flag,
// connectivity and VPN state.
func (s Snapshot) Title() string {
	var b strings.Builder
	b.WriteString(FlagEmoji(s.Country))
	b.WriteByte(' ')

	switch {
	case len(s.Outcomes) == 0:
		b.WriteString("…")
	case s.OverallUp:
		b.WriteString("✅")
	default:
		for _, o := range s.Outcomes {
			if o.Up {
				b.WriteString("🟢")
			} else {
				b.WriteString("💔")
			}
		}
	}

	if s.VPNCheck {
		if s.VPNAtRisk {
			b.WriteString("💀")
		} else {
			b.WriteString("🥽")
		}
	}
	return b.String()
}

// FlagEmoji returns the regional indicator flag for a two letter country
// code, or a white flag.
func FlagEmoji(code string) string {
	const whiteFlag = "🏳️"

	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 2 {
		return whiteFlag
	}

	flag := make([]rune, 0, 2)
	for _, r := range code {
		if r > unicode.MaxASCII || !unicode.IsUpper(r) {
			return whiteFlag
		}
		flag = append(flag, 0x1F1E6+r-'A')
	}
	return string(flag)
}
