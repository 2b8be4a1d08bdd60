package health

import (
	"net/http"
	"runtime"

	"github.com/ethanbaker/civicchat/internal/config"
	"github.com/ethanbaker/civicchat/pkg/sdk"
	"github.com/gin-gonic/gin"
)

// Return status of the API and which upstream credentials are present
func getStatus(credentials config.CredentialPresence) gin.HandlerFunc {
	res := sdk.HealthResponse{
		Status:    "ok",
		GoVersion: runtime.Version(),
		EnvVars: sdk.EnvVars{
			OpenAI:     credentials.OpenAI,
			Search:     credentials.Search,
			Translator: credentials.Translator,
		},
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, res)
	}
}
