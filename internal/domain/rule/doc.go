// Package rule implements the extraction rule language.
//
// This package is organized into modules:
//   - scanner: balanced splitting on combinators and chain separators, templating
//   - index: the .N / !N / [a,b:c:d] index and slice grammar
//   - combinator: && (concat), || (first non-empty), %% (zip) merging
//   - compiler: mode detection, @put and ## directives, templates, program cache
//
// Rule syntax:
//   - Prefixes: @CSS:, @XPath:, @Json:, leading $. / $[ / / and, for element
//     rules, a leading ':' for the regex chain
//   - Script spans: @@...@@, <js>...</js>, trailing @js:
//   - Directives: @put:{"key":"rule"}, ##pattern##replacement[##first]
//   - Templates: {{rule or script}}, @get:{key}, $N
//
// Example Usage:
//
//	c, _ := rule.NewCompiler(0)
//	prog, err := c.Compile(".list@tag.a@href##\\?.*##", false, false)
package rule
