package handlers

type ErrorResponse struct {
	Error string `json:"error" example:"zone already exists"`
}

type SuccessResponse struct {
	Message string `json:"message" example:"Tracking started"`
}
