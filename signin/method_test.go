package signin

import "testing"

func TestResolveMethod(t *testing.T) {
	tests := []struct {
		name string
		opts MethodOptions
		want Method
	}{
		{
			name: "passkey user with code fallback",
			opts: MethodOptions{HasPasskeys: true, PasskeysEnabled: true, CodeAuthEnabled: true},
			want: MethodPasskeyWithFallback,
		},
		{
			name: "passkey user with magic link fallback",
			opts: MethodOptions{HasPasskeys: true, PasskeysEnabled: true, MagicLinksEnabled: true},
			want: MethodPasskeyWithFallback,
		},
		{
			name: "passkey user in passkeys-only deployment",
			opts: MethodOptions{HasPasskeys: true, PasskeysEnabled: true},
			want: MethodPasskeyOnly,
		},
		{
			name: "passkey user with passkeys disabled",
			opts: MethodOptions{HasPasskeys: true, CodeAuthEnabled: true},
			want: MethodEmailCode,
		},
		{
			name: "no passkey prefers code over magic link",
			opts: MethodOptions{PasskeysEnabled: true, CodeAuthEnabled: true, MagicLinksEnabled: true},
			want: MethodEmailCode,
		},
		{
			name: "no passkey with only magic links",
			opts: MethodOptions{PasskeysEnabled: true, MagicLinksEnabled: true},
			want: MethodEmailOnly,
		},
		{
			name: "no passkey in passkeys-only deployment",
			opts: MethodOptions{PasskeysEnabled: true},
			want: MethodNone,
		},
		{
			name: "nothing enabled",
			opts: MethodOptions{},
			want: MethodNone,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveMethod(tc.opts); got != tc.want {
				t.Fatalf("ResolveMethod(%+v) = %s, want %s", tc.opts, got, tc.want)
			}
		})
	}
}

func TestResolveMethodDeterministic(t *testing.T) {
	opts := MethodOptions{HasPasskeys: true, PasskeysEnabled: true, CodeAuthEnabled: true}
	first := ResolveMethod(opts)
	for i := 0; i < 10; i++ {
		if got := ResolveMethod(opts); got != first {
			t.Fatalf("resolution changed between calls: %s then %s", first, got)
		}
	}
}
