package media

// Resolve picks the descriptor a command should operate on.
//
// Precedence is fixed: media attached to the command message itself, then
// media on the replied-to message, then the remembered fallback (the user's
// last seen media). The required kind filters the fallback tier only —
// direct and reply candidates win regardless of kind, and the caller is
// responsible for rejecting a mismatched kind with its own message.
//
// Returns nil when no candidate is found.
func Resolve(required Kind, direct, reply, fallback *Descriptor) *Descriptor {
	if direct != nil {
		return direct
	}
	if reply != nil {
		return reply
	}
	if fallback != nil {
		if required == KindAny || fallback.Kind == required {
			return fallback
		}
	}
	return nil
}
