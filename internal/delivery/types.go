// Package delivery issues the SDK's HTTP calls: device registration, user
// registration (login), analytics events and in-app polling. Calls are
// independent, never retried, and return futures.
package delivery

// Endpoint paths, relative to the API path.
const (
	PathRegister     = "/register"
	PathRegisterUser = "/register/user"
	PathEvents       = "/events"
	PathPollInApp    = "/poll/in-app"
)

// RegisterDeviceRequest is the body of POST /register.
type RegisterDeviceRequest struct {
	Platform  string `json:"platform"`
	Token     string `json:"token"`
	DeviceID  string `json:"device_id"`
	ChannelID string `json:"channel_id"`
}

// RegisterDeviceResponse carries the server-assigned guest id.
type RegisterDeviceResponse struct {
	Device struct {
		UserID string `json:"user_id"`
	} `json:"device"`
}

// RegisterUserRequest is the body of POST /register/user.
type RegisterUserRequest struct {
	UserID    string `json:"user_id"`
	DeviceID  string `json:"device_id"`
	ChannelID string `json:"channel_id"`
}

// EventRequest is the body of POST /events.
type EventRequest struct {
	UserID    string         `json:"user_id"`
	ChannelID string         `json:"channel_id"`
	EventName string         `json:"event_name"`
	EventData map[string]any `json:"event_data"`
}

// PollRequest is the body of POST /poll/in-app.
type PollRequest struct {
	RuleID string `json:"rule_id"`
}

// PollResponse is the in-app poll result. Data is the render payload.
type PollResponse struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
}
