// Package config loads, normalizes, and validates meetnotes configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// HF_TOKEN, GROQ_API_KEY, and MEETNOTES_SMTP_PASSWORD. The Config type
// centralizes every knob the daemon and CLI need so directories and external
// service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
