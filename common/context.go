package common

type PrContextKey string

const (
	ContextLogger    PrContextKey = "pr.logger"
	ContextAction    PrContextKey = "pr.action"
	ContextRequest   PrContextKey = "pr.request"
	ContextRequestId PrContextKey = "pr.request_id"
)
