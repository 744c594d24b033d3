package response

import "hotel-booking/internal/usecase/commands"

type CreatePaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

type WebhookResponse struct {
	Received bool   `json:"received"`
	Outcome  string `json:"outcome,omitempty"`
}

func FromEventOutcome(o commands.EventOutcome) *WebhookResponse {
	return &WebhookResponse{Received: true, Outcome: string(o.Kind)}
}
