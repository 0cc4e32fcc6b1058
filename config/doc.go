// Package config loads console settings with viper.
//
// Settings come from an optional YAML file and from COURSEOPS_ environment
// variables, where a dot in the key becomes an underscore
// (api.base_url is COURSEOPS_API_BASE_URL). Every string value may reference
// environment variables as ${VAR}; a reference to a variable that is not set
// is an error rather than an empty string.
package config
