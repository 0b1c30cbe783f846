package dispatch

// Eligible reports whether a push should be attempted for this signup:
// the user has a registered device, opted in, and the signup has not been
// notified yet. An absent notified flag counts as not yet notified.
// Pure decision — no side effects.
func Eligible(s Signup, u User) bool {
	if u.PushToken == "" || !u.Notify {
		return false
	}
	return !s.AlreadyNotified()
}
