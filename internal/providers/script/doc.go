/*
Package script evaluates rule script stages on goja.

Runtimes are pooled and rebuilt after every evaluation, so bindings never
leak between calls. Each evaluation:
  - sets the caller's bindings as globals, with Go field and method names
    uncapitalized (java.getString, book.name)
  - removes require, process, module and exports
  - interrupts the script on timeout or context cancellation
  - returns the exported completion value
*/
package script
