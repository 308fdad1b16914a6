package constants

import "time"

// HTTP Server Timeouts
const (
	HTTPIdleTimeoutSecs   = 120
	HTTPIdleTimeout       = HTTPIdleTimeoutSecs * time.Second
	HTTPReadHeaderTimeout = 10 * time.Second
	MaxJSONBodyBytes      = 1 << 20
)

// Content Types
const (
	ContentTypeJSON   = "application/json"
	ContentTypeText   = "text/plain; charset=utf-8"
	ContentTypeBinary = "application/octet-stream"
)

// HTTP Header Names
const (
	HeaderContentType        = "Content-Type"
	HeaderCacheControl       = "Cache-Control"
	HeaderRequestID          = "X-Request-ID"
	HeaderRetryAfter         = "Retry-After"
	HeaderUserAgent          = "User-Agent"
	HeaderContentDisposition = "Content-Disposition"
	HeaderConnection         = "Connection"
	HeaderXAccelBuffering    = "X-Accel-Buffering"
)

// Server-Sent Events
const (
	ContentTypeSSE     = "text/event-stream"
	SSECacheControl    = "no-cache"
	SSEConnection      = "keep-alive"
	SSEXAccelBuffering = "no"
	SSEKeepAlive       = 30 * time.Second
)

// Rate limiter names (metric label values)
const (
	LimiterLogin  = "login"
	LimiterTicket = "ticket"
)

// WebSocket
const (
	WSReadBufferSize  = 1024
	WSWriteBufferSize = 1024
	WSWriteWait       = 10 * time.Second
	WSPongWait        = 60 * time.Second
	WSPingPeriod      = (WSPongWait * 9) / 10
	WSMaxMessageBytes = 512
)
