// Package config handles configuration loading for larpd.
//
// # Overview
//
// Configuration is loaded from YAML files with environment variable
// expansion, then LARPD_* environment variables are applied as overrides.
//
// # Environment Variable Expansion
//
// Configuration values can reference environment variables:
//
//	auth:
//	  jwt_secret: "${LARPD_JWT_SECRET}"
//
// Syntax: ${VAR_NAME}
//
// # Configuration Sections
//
// Server settings:
//
//	server:
//	  http_addr: "0.0.0.0:8080"
//
// Database:
//
//	database:
//	  path: "/var/lib/larpd/larpd.db"
//
// Authentication:
//
//	auth:
//	  jwt_secret: "${LARPD_JWT_SECRET}"  # Required, at least 32 bytes
//	  token_ttl: "24h"                   # Login token lifetime
//
// Logging:
//
//	logging:
//	  level: "info"   # debug, info, warn, error
//	  format: "text"  # text, json
//
// # Environment Overrides
//
// Every file value has a LARPD_* override: LARPD_HTTP_ADDR, LARPD_DB_PATH,
// LARPD_JWT_SECRET, LARPD_TOKEN_TTL, LARPD_LOG_LEVEL, LARPD_LOG_FORMAT.
// FromEnv() builds a Config from these alone for deployments that ship no
// config file.
//
// # Validation
//
// Load() validates:
//
//   - JWT secret minimum length (32 bytes)
//   - Presence of server.http_addr and database.path
//   - Duration format validity
package config
