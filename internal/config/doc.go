// Package config provides configuration structures and utilities for sitehash.
// It defines the server, fetch, freshness oracle and webhook settings, loads
// them from the optional .sitehash YAML file and the environment, and
// validates the result before anything starts.
package config
