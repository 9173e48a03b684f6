// Package config provides configuration loading and validation for the
// AudioLink gateway. It handles YAML-based configuration with struct
// validation and supports environment variable overrides for deployment.
package config
