package config

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// ConfigureLogging sends logrus output to stderr, keeping stdout free for
// the MCP protocol, and applies level.
func ConfigureLogging(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(lvl)
	return nil
}
