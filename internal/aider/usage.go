package aider

import (
	"regexp"
	"strconv"
	"strings"
)

// Usage is the token and cost summary aider prints after a message.
type Usage struct {
	TokensSent     int     `json:"tokens_sent" yaml:"tokens_sent"`
	TokensReceived int     `json:"tokens_received" yaml:"tokens_received"`
	CostUSD        float64 `json:"cost_usd" yaml:"cost_usd"`
	Found          bool    `json:"-" yaml:"-"`
}

var (
	// "Tokens: 2.3k sent, 150 received. Cost: $0.01 message, $0.05 session."
	tokenPattern   = regexp.MustCompile(`Tokens:\s*([\d.]+)([km]?)\s*sent,\s*([\d.]+)([km]?)\s*received`)
	costPattern    = regexp.MustCompile(`Cost:\s*\$?([\d.]+)`)
	bracketPattern = regexp.MustCompile(`\[.*?\]`)
	ansiPattern    = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
	spinnerChars   = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
)

// ParseUsage extracts the last usage report from aider's output.
func ParseUsage(output string) Usage {
	var u Usage
	if all := tokenPattern.FindAllStringSubmatch(output, -1); len(all) > 0 {
		m := all[len(all)-1]
		u.TokensSent = scaledCount(m[1], m[2])
		u.TokensReceived = scaledCount(m[3], m[4])
		u.Found = true
	}
	if m := costPattern.FindStringSubmatch(output); len(m) == 2 {
		if cost, err := strconv.ParseFloat(strings.TrimSuffix(m[1], "."), 64); err == nil {
			u.CostUSD = cost
			u.Found = true
		}
	}
	return u
}

func scaledCount(num, suffix string) int {
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	switch suffix {
	case "k":
		f *= 1_000
	case "m":
		f *= 1_000_000
	}
	return int(f)
}

// CleanOutput strips progress markers, spinner glyphs, and ANSI escapes.
func CleanOutput(output string) string {
	output = ansiPattern.ReplaceAllString(output, "")
	output = bracketPattern.ReplaceAllString(output, "")
	for _, s := range spinnerChars {
		output = strings.ReplaceAll(output, s, "")
	}
	return strings.TrimSpace(output)
}
