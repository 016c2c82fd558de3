// Package config provides configuration management for harvest.
//
// Configuration is loaded from a YAML file, completed with defaults,
// overridden from the environment and validated before use.
//
// # Configuration Loading
//
//  1. From a YAML file only:
//     cfg, err := config.LoadConfig("harvest.yaml")
//
//  2. From a YAML file with environment variable overrides:
//     cfg, err := config.LoadConfigWithEnvOverrides("harvest.yaml")
//
//  3. From defaults and the environment only:
//     cfg, err := config.LoadFromEnv()
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention HARVEST_SECTION_FIELD:
//
//   - HARVEST_EXPORT_HUB_BASE_URL overrides export.hub_base_url
//   - HARVEST_STORAGE_SQLITE_DRIVER overrides storage.sqlite.driver
//   - HARVEST_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// Storage rules and scheduled jobs are only configurable in the file.
//
// # Singleton and Hot Reload
//
//	if err := config.Initialize("harvest.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	cfg := config.GetConfig()
//
// Each loaded Config is an immutable snapshot. A Watcher reloads the file
// when it changes and hands the new snapshot to registered handlers; runs
// already in progress keep the snapshot they started with.
//
// # Example Configuration
//
//	export:
//	  hub_base_url: "https://hub.example.com"
//	  storage_rules:
//	    - host: "acct.blob.core.windows.net"
//	      container: "user-files"
//	  default_format: "csv"
//	  output_dir: "exports"
//
//	storage:
//	  backend: "sqlite"
//	  sqlite:
//	    path: "data/submissions.db"
//	    driver: "sqlite"
//
//	schedule:
//	  jobs:
//	    - name: "nightly-form-7"
//	      cron: "0 3 * * *"
//	      form_id: 7
//	      completed_only: true
//
//	telemetry:
//	  logging:
//	    level: "info"
//	    format: "json"
//	  metrics:
//	    enabled: true
//	    listen_address: "127.0.0.1:9090"
package config
