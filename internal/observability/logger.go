package observability

import "go.uber.org/zap"

// NewLogger builds the process logger: JSON output in production,
// human-readable everywhere else.
func NewLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
