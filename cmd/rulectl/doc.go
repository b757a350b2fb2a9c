// Command rulectl evaluates rulekit rules from the command line.
//
// Usage:
//
//	rulectl eval page.html --rule 'class.item@a@text' --op list
//	rulectl source rules.yaml page.html
//	rulectl batch rules.yaml ./pages --pattern '**/*.htm*' --workers 8
//
// Engine settings (script pool, fetch timeouts, cache sizes) are read from
// the same environment variables as the server.
package main
