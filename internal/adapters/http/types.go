package httpadapter

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const maxURLLength = 2048

// DetectRequest is the body of POST /detect.
type DetectRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

func (r *DetectRequest) Validate() error { return validate.Struct(r) }

// validationMessage turns a DetectRequest validation error into the client
// facing message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			if fe.Tag() == "max" {
				return fmt.Sprintf("URL must be at most %d characters", maxURLLength)
			}
		}
	}
	return "URL is required"
}

// envelope wraps every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
	ThreatIntel any       `json:"threatIntelligence,omitempty"`
}
