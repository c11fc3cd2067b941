package types

// Component health states.
const (
	StatusOK        = "ok"
	StatusUnhealthy = "unhealthy"
)

// ComponentHealth is the result of one health probe.
type ComponentHealth struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Health aggregates every probe.
type Health struct {
	DB   ComponentHealth `json:"db"`
	Blob ComponentHealth `json:"blob"`
	KV   ComponentHealth `json:"kv"`
	MQ   ComponentHealth `json:"mq"`
}

// Healthy reports whether every component is ok.
func (h Health) Healthy() bool {
	for _, c := range []ComponentHealth{h.DB, h.Blob, h.KV, h.MQ} {
		if c.Status != StatusOK {
			return false
		}
	}

	return true
}
