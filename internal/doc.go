// Package internal contains the implementation packages of templmd.
//
// # Package Organization
//
// A document flows through the packages in this order:
//
//   - tags and shield: rewrite registered custom tags into their canonical
//     lowercase form, leaving inline code spans and fenced blocks alone
//   - pipeline: parses markdown with goldmark, sanitizes the HTML with
//     bluemonday and produces a lazily dispatched Document
//   - sanitize: the allow-list schema extended with component tags
//   - renderer: binds elements to components, style classes, code
//     highlighting and link rewriting, then dispatches the HTML tree
//   - registry and components: the component table and the built-in
//     component set
//   - styles, highlight and mathext: classes, chroma highlighting and the
//     $math$ goldmark extension
//
// Around the pipeline sit the command-line layers:
//
//   - config: viper backed configuration with validation
//   - watcher: debounced fsnotify watching of documents and styles files
//   - server and middleware: the live preview over HTTP and websockets
//   - validation: path and origin checks
//   - errors and logging: structured errors and slog based logging
//   - version: build information
//
// # Safety
//
// Markdown is untrusted. Raw HTML is parsed, then sanitized against the
// allow-list before any component sees it, and component props are always
// escaped when written back out. The preview server only accepts websocket
// connections from its own origin.
package internal
