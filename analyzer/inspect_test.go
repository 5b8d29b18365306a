package analyzer

import (
	"reflect"
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestInspectScripts_RetainsMatches(t *testing.T) {
	html := `<html><head>
		<script src="https://cdn.cookie3.co/sdk.js"></script>
		<script src="https://static.example.com/app.js"></script>
		<script>window.analytics = window.analytics || [];</script>
		<script>console.log("hello");</script>
	</head><body></body></html>`

	scripts, err := inspectScripts(html)
	if err != nil {
		t.Fatalf("inspectScripts returned error: %v", err)
	}

	if len(scripts) != 2 {
		t.Fatalf("retained %d scripts, want 2: %+v", len(scripts), scripts)
	}
	if scripts[0].Src != "https://cdn.cookie3.co/sdk.js" {
		t.Errorf("scripts[0].Src = %q", scripts[0].Src)
	}
	if scripts[1].Src != "" || scripts[1].Content == "" {
		t.Errorf("scripts[1] should be inline: %+v", scripts[1])
	}
}

func TestInspectScripts_CaseSensitive(t *testing.T) {
	html := `<html><head>
		<script src="https://x.com/Analytics.js"></script>
		<script src="https://x.com/analytics.js"></script>
	</head></html>`

	scripts, err := inspectScripts(html)
	if err != nil {
		t.Fatalf("inspectScripts returned error: %v", err)
	}

	if len(scripts) != 1 {
		t.Fatalf("retained %d scripts, want 1 (capital A must not match)", len(scripts))
	}
	if scripts[0].Src != "https://x.com/analytics.js" {
		t.Errorf("retained wrong script: %q", scripts[0].Src)
	}
}

func TestInspectScripts_EmptyDocument(t *testing.T) {
	scripts, err := inspectScripts("<html><body><p>no scripts here</p></body></html>")
	if err != nil {
		t.Fatalf("inspectScripts returned error: %v", err)
	}
	if scripts == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(scripts) != 0 {
		t.Errorf("retained %d scripts from scriptless page", len(scripts))
	}
}

func TestFilterCookies(t *testing.T) {
	cookies := []*proto.NetworkCookie{
		{Name: "_ga", Value: "GA1.2.3", Domain: ".example.com", Path: "/"},
		{Name: "session", Value: "abc", Domain: "app.example.com", Path: "/"},
		{Name: "pref", Value: "1", Domain: "analytics.example.com", Path: "/"},
		{Name: "trackid", Value: "55", Domain: "example.com", Path: "/", Secure: true},
		{Name: "theme", Value: "dark", Domain: "example.com", Path: "/"},
	}

	got := filterCookies(cookies)
	want := []string{"_ga", "pref", "trackid"}

	if len(got) != len(want) {
		t.Fatalf("retained %d cookies, want %d: %+v", len(got), len(want), got)
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("cookie[%d].Name = %q, want %q", i, got[i].Name, name)
		}
	}
	if !got[2].Secure {
		t.Error("cookie attributes were not carried over")
	}
}

func TestFilterCookies_NoneMatch(t *testing.T) {
	got := filterCookies([]*proto.NetworkCookie{
		{Name: "theme", Domain: "example.com"},
	})
	if got == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(got) != 0 {
		t.Errorf("retained %d cookies, want 0", len(got))
	}
}

func TestCollectWalletEvidence(t *testing.T) {
	tests := []struct {
		name     string
		provider bool
		html     string
		detected bool
		methods  []string
	}{
		{
			"provider only",
			true,
			"<html><body>plain page</body></html>",
			true,
			[]string{"window.ethereum"},
		},
		{
			"markup only",
			false,
			`<script>ethereum.on('accountsChanged', update)</script>`,
			true,
			[]string{"accountsChanged", "ethereum.on("},
		},
		{
			"provider and markup accumulate",
			true,
			`<script>const w = web3.eth;</script>`,
			true,
			[]string{"window.ethereum", "web3"},
		},
		{
			"nothing",
			false,
			"<html><body>plain page</body></html>",
			false,
			[]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wt := collectWalletEvidence(tt.provider, tt.html)
			if wt.Detected != tt.detected {
				t.Errorf("Detected = %v, want %v", wt.Detected, tt.detected)
			}
			if !reflect.DeepEqual(wt.Methods, tt.methods) {
				t.Errorf("Methods = %v, want %v", wt.Methods, tt.methods)
			}
		})
	}
}
