package grpc

import (
	"golang.org/x/time/rate"
	"liyu1981.xyz/iot-anchor-service/pkg/anchor"
)

type AnchorServer struct {
	Anchor            *anchor.Anchor
	RateLimiterStore  *anchor.RateLimiterStore
	InternalAPISecret string
}

var _ AnchorServiceServer = (*AnchorServer)(nil)

func (s *AnchorServer) GetLimiter(userID string) *rate.Limiter {
	if s.RateLimiterStore == nil {
		return nil
	} else {
		return s.RateLimiterStore.GetLimiter(userID)
	}
}

func (s *AnchorServer) CheckUserLimiter(userID string) bool {
	return s.RateLimiterStore.Allow(userID)
}
