// Package main provides the entry point for the siteaudit CLI.
//
// siteaudit crawls a website from a start URL and reports broken links,
// missing SEO metadata, placeholder text and malformed tel: links.
//
// Usage:
//
//	siteaudit audit https://example.com/
//	siteaudit history https://example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}
