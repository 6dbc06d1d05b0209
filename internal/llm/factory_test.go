package llm

import "testing"

func TestNewProvider_Selection(t *testing.T) {
	cases := []struct {
		provider string
		apiKey   string
		wantName string
		wantErr  bool
	}{
		{provider: "openai", apiKey: "sk-test", wantName: "openai"},
		{provider: "anthropic", apiKey: "sk-ant-test", wantName: "anthropic"},
		{provider: "claude", apiKey: "sk-ant-test", wantName: "anthropic"},
		{provider: "ollama", wantName: "ollama"},
		{provider: "openai", wantErr: true},    // missing key
		{provider: "anthropic", wantErr: true}, // missing key
		{provider: "gemini", wantErr: true},    // missing key
		{provider: "magic8ball", apiKey: "x", wantErr: true},
	}

	for _, tc := range cases {
		p, err := NewProvider(Config{Provider: tc.provider, APIKey: tc.apiKey, Model: "m"})
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tc.provider)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tc.provider, err)
			continue
		}
		if p.Name() != tc.wantName {
			t.Errorf("%s: expected name %q, got %q", tc.provider, tc.wantName, p.Name())
		}
	}
}
