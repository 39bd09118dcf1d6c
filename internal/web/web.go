// Package web embeds the single-page UI served at /.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var static embed.FS

// Index returns the contents of index.html
func Index() []byte {
	data, err := static.ReadFile("static/index.html")
	if err != nil {
		panic("web: index.html missing from embedded assets")
	}
	return data
}

// Assets returns the static asset tree rooted at static/
func Assets() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
