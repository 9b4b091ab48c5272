package instagram

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateDeviceID returns a fresh upper-case UUID in the form the web
// client stores in its ig_did cookie.
func GenerateDeviceID() string {
	return strings.ToUpper(uuid.NewString())
}
