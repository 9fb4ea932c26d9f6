package config

import "testing"

func TestExtractBaseURL(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want string
	}{
		{
			name: "localhost callback",
			uri:  "http://localhost:3000/api/auth/callback",
			want: "http://localhost:3000",
		},
		{
			name: "https with domain",
			uri:  "https://grouppot.example.com/api/auth/callback",
			want: "https://grouppot.example.com",
		},
		{
			name: "invalid URI falls back",
			uri:  "not a url",
			want: "http://localhost:3000",
		},
		{
			name: "empty falls back",
			uri:  "",
			want: "http://localhost:3000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractBaseURL(tt.uri); got != tt.want {
				t.Errorf("extractBaseURL(%q) = %q, want %q", tt.uri, got, tt.want)
			}
		})
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")

	if _, err := Load(); err == nil {
		t.Error("expected error when DATABASE_URL is unset")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/grouppot")
	t.Setenv("GOOGLE_CLIENT_ID", "client")
	t.Setenv("GOOGLE_CLIENT_SECRET", "secret")
	t.Setenv("WEB_BIND", "")
	t.Setenv("GOOGLE_REDIRECT_URI", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DISCORD_TOKEN", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.WebBind != "0.0.0.0:3000" {
		t.Errorf("expected default bind, got %q", cfg.WebBind)
	}
	if cfg.WebUIBaseURL != "http://localhost:3000" {
		t.Errorf("expected default base URL, got %q", cfg.WebUIBaseURL)
	}
	if cfg.DiscordToken != "" {
		t.Errorf("expected bot disabled by default, got token %q", cfg.DiscordToken)
	}
}
