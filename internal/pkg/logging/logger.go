package logging

import (
	"os"

	"github.com/gofiber/fiber/v2/log"
)

// Setup points the fiber logger at stdout and picks the level.
func Setup(debug bool) {
	log.SetOutput(os.Stdout)
	if debug {
		log.SetLevel(log.LevelDebug)
		return
	}
	log.SetLevel(log.LevelInfo)
}
