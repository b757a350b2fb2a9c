/*
Package analyzer evaluates extraction rules against a document.

An Analyzer holds one current document (HTML text, parsed nodes or JSON)
plus a base URL, and answers four questions about it:

  - GetString: one string, HTML-escaped unless Unescaped is given
  - GetStringList: a list of strings
  - GetElement / GetElements: intermediate values to feed later rules

Rules are compiled by the rule package into stages joined by a mode
(selector, CSS, XPath, JSONPath, regex, script). Each stage reads the
previous stage's output. Puts run before their stage and write to the
innermost attached scope; templates read stage captures, nested rules,
scripts and variables.

Backend failures (invalid selectors, unparsable JSON, script errors) are
logged and make the stage empty. Rule syntax errors are returned.
*/
package analyzer
