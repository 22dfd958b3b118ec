package dto

type ActivityRequest struct {
	UserId string `json:"user_id" validate:"required,notblank,max=255"`
}

type EndSessionRequest struct {
	UserId     string   `json:"user_id" validate:"required,notblank,max=255"`
	SessionIds []string `json:"session_ids" validate:"omitempty,dive,required,max=255"`
}

type ActiveSessionsResponse struct {
	UserIds []string `json:"user_ids"`
	Count   int      `json:"count"`
}
