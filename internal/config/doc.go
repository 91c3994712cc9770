// Package config loads, normalizes, and validates listingcast configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// GOOGLE_API_KEY and LISTINGCAST_DATABASE_DSN. A `.env` file in the working
// directory is loaded first so credentials can be kept out of the TOML file.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical backend names, and clear validation errors.
package config
