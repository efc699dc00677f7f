// Package config provides configuration structures and utilities for siteaudit.
// It defines the crawl settings, the audit checks to run, and report output
// preferences, and loads them from a YAML file layered over defaults.
package config
