package server

// APIResponse represents the structure of a standard API response.
// Data is omitted when empty.
type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// HealthData is the payload of GET /health.
type HealthData struct {
	Status    string `json:"status"`
	Storage   string `json:"storage"`
	Uptime    string `json:"uptime"`
	MaxUpload string `json:"max_upload"`
}
