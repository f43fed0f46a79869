// Package config provides configuration management for the switchboard gateway.
//
// Configuration is read from a YAML file, decoded over the defaults, and
// then overridden by environment variables.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("switchboard.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("switchboard.yaml")
//
// An empty path loads the defaults.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention SWITCHBOARD_SECTION_FIELD:
//
//   - SWITCHBOARD_SERVER_LISTEN_ADDRESS overrides server.listen_address
//   - SWITCHBOARD_DEFINITIONS_DIR overrides definitions.dir
//   - SWITCHBOARD_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Configuration Precedence
//
//  1. Default values (defined in defaults.go)
//  2. Values from YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast if invalid)
//
// # Singleton Pattern
//
//	if err := config.Initialize("switchboard.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// For testing, prefer dependency injection with explicit Config instances
// rather than the global singleton.
//
// # Example Configuration
//
//	server:
//	  listen_address: ":3000"
//	  tls:
//	    enabled: true
//	    cert_file: "/etc/switchboard/tls.crt"
//	    key_file: "/etc/switchboard/tls.key"
//
//	definitions:
//	  dir: "./definitions"
//	  watch: true
//
//	engine:
//	  invoke_timeout_unit: 1s
//	  retry:
//	    max_attempts: 5
//
//	evidence:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/evidence.db"
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
package config
