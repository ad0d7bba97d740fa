// Package web embeds the single-page café UI.
package web

import _ "embed"

// Index is the UI page served at "/".
//
//go:embed index.html
var Index []byte
