// Package config defines the deployment settings and provides helpers to load,
// validate and save them in YAML format.
//
// Without a settings file the built-in defaults deploy the 32-bit and 64-bit
// graphite builds to the public flibidydibidy.com bucket.
package config
