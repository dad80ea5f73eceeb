package domain

// HealthStatus is the aggregate health report for /healthz.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth describes one dependency's health.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LastChecked string `json:"last_checked"`
}

// SuccessResponse is a generic confirmation payload.
type SuccessResponse struct {
	Message string `json:"message"`
}
