package config

import "time"

// Application constants
const (
	AppName    = "GNL Reports"
	AppVersion = "1.0.0"
	AppVendor  = "ANH – Dirección de Distritos Técnica"

	EnvPrefix     = "GNL"
	EnvConfigFile = "GNL_CONFIG_FILE"

	DefaultWorkbook = "1. MASTER_BD_GNL.xlsx"
	DefaultTitle    = "Dashboard de Reportes GNL – ANH"

	DefaultRequestTimeout = 60 * time.Second
)

// Build information, set via -ldflags at release time.
var (
	Version   = AppVersion
	Commit    = "dev"
	BuildTime = "unknown"
)
