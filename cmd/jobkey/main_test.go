package main

import "testing"

func TestResolveKey(t *testing.T) {
	env := map[string]string{"SANDBOX_API_KEY": " sb-env "}
	getenv := func(k string) string { return env[k] }

	tests := []struct {
		name         string
		provider     string
		key          string
		wantProvider string
		wantKey      string
		wantErr      bool
	}{
		{name: "flag key", provider: "video", key: " v-flag ", wantProvider: "video", wantKey: "v-flag"},
		{name: "default provider", provider: "", key: "k", wantProvider: "video", wantKey: "k"},
		{name: "env fallback", provider: "Sandbox", wantProvider: "sandbox", wantKey: "sb-env"},
		{name: "missing key", provider: "video", wantErr: true},
		{name: "unknown provider", provider: "gemini", key: "k", wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			provider, key, err := resolveKey(tc.provider, tc.key, getenv)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("resolveKey() = %q, %q, want error", provider, key)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveKey() error: %v", err)
			}
			if provider != tc.wantProvider || key != tc.wantKey {
				t.Fatalf("resolveKey() = %q, %q, want %q, %q", provider, key, tc.wantProvider, tc.wantKey)
			}
		})
	}
}
