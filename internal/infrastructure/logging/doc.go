// Package logging builds the zap loggers used by the server and the CLI.
//
// Two modes:
//   - Production: JSON lines on stdout
//   - Development: colored console output
//
// The landrop CLI logs to stderr at warn level unless -v is given.
//
//	logger, err := logging.New(logging.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	logger.Info("Server starting", zap.String("port", "3001"))
package logging
