package http

import (
	"github.com/gin-gonic/gin"
)

// NewEngine returns a gin engine that honours X-Forwarded-For only from
// trustedProxies. With none, the peer address is the client IP used by the
// binding guard, the referral IP throttle and the per-IP rate limits.
func NewEngine(trustedProxies []string) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery())
	if err := r.SetTrustedProxies(trustedProxies); err != nil {
		return nil, err
	}
	return r, nil
}
