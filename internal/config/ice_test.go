package config

import (
	"reflect"
	"testing"
)

func TestBuildICEServers_DefaultSTUN(t *testing.T) {
	t.Parallel()

	servers := BuildICEServers("", "", "", "")
	if len(servers) != 1 {
		t.Fatalf("expected 1 server, got %d", len(servers))
	}
	if got := servers[0].URLs; len(got) != 1 || got[0] != DefaultSTUNServer {
		t.Fatalf("unexpected urls: %#v", got)
	}
}

func TestBuildICEServers_OneEntryPerURL(t *testing.T) {
	t.Parallel()

	servers := BuildICEServers("stun:a.example.com:3478, stun:b.example.com:3478", "", "", "")
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %d", len(servers))
	}
	if servers[0].URLs[0] != "stun:a.example.com:3478" || servers[1].URLs[0] != "stun:b.example.com:3478" {
		t.Fatalf("unexpected servers: %#v", servers)
	}
}

func TestBuildICEServers_DropsInvalidAndSubstitutesDefault(t *testing.T) {
	t.Parallel()

	// No host:port separator after the scheme, and a wrong scheme entirely.
	servers := BuildICEServers("stun:hostonly,http://not-stun", "", "", "")
	if len(servers) != 1 {
		t.Fatalf("expected default substitution, got %#v", servers)
	}
	if servers[0].URLs[0] != DefaultSTUNServer {
		t.Fatalf("unexpected urls: %#v", servers[0].URLs)
	}
}

func TestBuildICEServers_TURNRequiresAllThree(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		username string
		cred     string
		want     int
	}{
		{"complete", "user", "pass", 2},
		{"missing username", "", "pass", 1},
		{"missing credential", "user", "", 1},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			servers := BuildICEServers("stun:stun.example.com:3478", "turn:turn.example.com:3478", tc.username, tc.cred)
			if len(servers) != tc.want {
				t.Fatalf("expected %d servers, got %#v", tc.want, servers)
			}
			if tc.want == 2 {
				turn := servers[1]
				if turn.Username != "user" {
					t.Fatalf("unexpected username: %q", turn.Username)
				}
				cred, ok := turn.Credential.(string)
				if !ok || cred != "pass" {
					t.Fatalf("unexpected credential: %#v", turn.Credential)
				}
			}
		})
	}
}

func TestBuildICEServers_InvalidTURNDropped(t *testing.T) {
	t.Parallel()

	servers := BuildICEServers("stun:stun.example.com:3478", "turn:noport,turn:turn.example.com:3478", "user", "pass")
	if len(servers) != 2 {
		t.Fatalf("expected 2 servers, got %#v", servers)
	}
	if servers[1].URLs[0] != "turn:turn.example.com:3478" {
		t.Fatalf("unexpected turn urls: %#v", servers[1].URLs)
	}
}

func TestBuildICEServers_Idempotent(t *testing.T) {
	t.Parallel()

	a := BuildICEServers("stun:a.example.com:3478,stun:b.example.com:3478", "turn:t.example.com:3478", "u", "c")
	b := BuildICEServers("stun:a.example.com:3478,stun:b.example.com:3478", "turn:t.example.com:3478", "u", "c")
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical lists:\n%#v\n%#v", a, b)
	}
}
