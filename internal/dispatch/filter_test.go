package dispatch

import "testing"

func boolPtr(b bool) *bool { return &b }

func TestEligible(t *testing.T) {
	tests := []struct {
		name   string
		signup Signup
		user   User
		want   bool
	}{
		{
			name:   "opted-in user with token, never notified",
			signup: Signup{EventID: "e1", UserID: "u1"},
			user:   User{ID: "u1", PushToken: "abc", Notify: true},
			want:   true,
		},
		{
			name:   "notified flag explicitly false",
			signup: Signup{EventID: "e1", UserID: "u1", Notified: boolPtr(false)},
			user:   User{ID: "u1", PushToken: "abc", Notify: true},
			want:   true,
		},
		{
			name:   "already notified",
			signup: Signup{EventID: "e1", UserID: "u1", Notified: boolPtr(true)},
			user:   User{ID: "u1", PushToken: "abc", Notify: true},
			want:   false,
		},
		{
			name:   "missing push token",
			signup: Signup{EventID: "e1", UserID: "u1"},
			user:   User{ID: "u1", Notify: true},
			want:   false,
		},
		{
			name:   "opted out",
			signup: Signup{EventID: "e1", UserID: "u1"},
			user:   User{ID: "u1", PushToken: "abc", Notify: false},
			want:   false,
		},
		{
			name:   "opted out and already notified",
			signup: Signup{EventID: "e1", UserID: "u1", Notified: boolPtr(true)},
			user:   User{ID: "u1", PushToken: "abc", Notify: false},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Eligible(tt.signup, tt.user); got != tt.want {
				t.Errorf("Eligible() = %v, want %v", got, tt.want)
			}
		})
	}
}
