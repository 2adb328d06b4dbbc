// Package logger provides structured logging for procspawn using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "debug"
//	  format: "json"
//	  output: "stderr"
//
// # Usage
//
//	log := logger.Get("process")
//	log.Debug("spawned", logger.Fields(logger.FieldPID, pid))
package logger
