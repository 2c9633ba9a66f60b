// Package config loads the application configuration.
//
// Values are layered, later layers winning:
//
//  1. Default()
//  2. a YAML file (GNL_CONFIG_FILE, or config.yaml / configs/config.yaml)
//  3. environment variables prefixed with GNL_, for example
//     GNL_SERVER_PORT=8080, GNL_SOURCE_WORKBOOK=/data/master.xlsx,
//     GNL_SOURCE_SPREADSHEET_ID=1AbC..., GNL_LOGGING_LEVEL=debug
//
// The binaries load a .env file into the environment before calling Load.
// The result is validated once; callers never see a half-valid Config.
package config
