package main

import (
	"os"
	"path/filepath"

	"github.com/impactlink/impactlink/internal/config"
	"github.com/impactlink/impactlink/internal/pkg/logger"
	"github.com/impactlink/impactlink/internal/server"
)

// @title ImpactLink API
// @version 1.0
// @description API connecting NGOs with experts: opportunities, applications and messaging
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url https://impactlink.app/support
// @contact.email support@impactlink.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	configPath := config.GetEnv("CONFIG_PATH", filepath.Join("configs", "config.yaml"))

	srv, err := server.NewServer(configPath)
	if err != nil {
		// Setup functions log the details
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
