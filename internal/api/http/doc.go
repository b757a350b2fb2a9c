/*
Package http exposes the rule engine over JSON.

	POST /v1/extract          evaluate one rule (op: string, list, element, elements)
	POST /v1/sources/extract  apply a rule set and return records
	GET  /health              engine cache and pool state
	GET  /v1/stats            request and extraction counters

Documents are passed inline as content or fetched from an absolute
http(s) url. Rule syntax errors and invalid rule sets answer 400.
*/
package http
