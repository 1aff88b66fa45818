// Package config loads and validates the client configuration: server
// origin, namespace/dataset defaults, session-cache location, and log
// level, layered from flags over environment over config files over
// defaults. It also manages the multi-profile YAML file under ~/.hoss.
package config
