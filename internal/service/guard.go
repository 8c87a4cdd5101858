package service

import "microwallet/internal/domain"

// BindingRequest carries the request attributes the binding guard inspects
type BindingRequest struct {
	SourceIP  string
	DeviceID  string
	UserAgent string
}

// BindingGuard decides whether a sensitive request comes from the network
// or device the account signed up with. Either match is enough. This is an
// account-takeover speed bump, not authentication.
type BindingGuard struct{}

func (BindingGuard) IsBound(user *domain.User, req BindingRequest) bool {
	if req.SourceIP != "" && req.SourceIP == user.SignupIP {
		return true
	}
	return req.DeviceID != "" && req.DeviceID == user.DeviceID
}
