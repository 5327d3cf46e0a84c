package aider

import "testing"

func TestParseUsage(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		sent     int
		received int
		cost     float64
		found    bool
	}{
		{"plain", "Tokens: 1200 sent, 300 received. Cost: $0.02 message, $0.10 session.", 1200, 300, 0.02, true},
		{"k suffix", "Tokens: 2.3k sent, 150 received.", 2300, 150, 0, true},
		{"last report wins", "Tokens: 10 sent, 1 received.\nTokens: 20 sent, 2 received.", 20, 2, 0, true},
		{"none", "Applied edit to main.go", 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := ParseUsage(tt.output)
			if u.TokensSent != tt.sent || u.TokensReceived != tt.received || u.CostUSD != tt.cost || u.Found != tt.found {
				t.Fatalf("ParseUsage = %+v", u)
			}
		})
	}
}

func TestCleanOutput(t *testing.T) {
	in := "\x1b[32m⠋ Applied edit\x1b[0m [1/2] to main.go  \n"
	if got := CleanOutput(in); got != "Applied edit  to main.go" {
		t.Fatalf("CleanOutput = %q", got)
	}
}
