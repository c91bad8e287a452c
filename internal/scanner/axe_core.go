package scanner

import _ "embed"

// axeCoreScript is the vendored axe-core distribution (see
// vendor/README.md), injected into the page once per navigation
// before axe.run() is invoked.
//
//go:embed vendor/axe.min.js
var axeCoreScript string

// axeRunScript invokes axe-core against the current document,
// restricted to violations (the scanner has no use for passes/
// incomplete/inapplicable results).
const axeRunScript = `axe.run(document, { resultTypes: ['violations'] })`
