// Package config loads layered configuration: a YAML file, a .env file and
// PROCSPAWN_* environment variables, in increasing order of precedence.
//
//	var cfg MyConfig
//	err := config.LoadConfig("procspawn", &cfg, config.WithConfigFile(path))
//
// Nested keys map to environment variables by upper-casing and replacing
// dots with underscores: process.exec_path is PROCSPAWN_PROCESS_EXEC_PATH.
package config
