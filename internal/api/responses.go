package api

type ErrorResponse struct {
	Error string `json:"error" example:"deposit balance is insufficient"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
