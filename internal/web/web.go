// Package web serves the login and main pages. The pages are embedded in the
// binary; a directory on disk can replace them.
package web

import (
	"bytes"
	"embed"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
)

const (
	LoginPage = "login.html"
	MainPage  = "index.html"
)

//go:embed static/*
var embedded embed.FS

// Pages returns the page file system: dir when set, the embedded pages
// otherwise.
func Pages(dir string) (fs.FS, error) {
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, errors.Wrap(err, "static dir")
		}
		if !info.IsDir() {
			return nil, errors.Errorf("static dir %s is not a directory", dir)
		}
		return os.DirFS(dir), nil
	}
	sub, err := fs.Sub(embedded, "static")
	if err != nil {
		return nil, errors.Wrap(err, "embedded pages")
	}
	return sub, nil
}

// ServePage writes the named file from fsys. Unlike http.ServeFile it does
// not redirect requests for index.html.
func ServePage(w http.ResponseWriter, r *http.Request, fsys fs.FS, name string) {
	f, err := fsys.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	var content io.ReadSeeker
	if rs, ok := f.(io.ReadSeeker); ok {
		content = rs
	} else {
		data, err := io.ReadAll(f)
		if err != nil {
			http.Error(w, "could not read file", http.StatusInternalServerError)
			return
		}
		content = bytes.NewReader(data)
	}

	http.ServeContent(w, r, name, info.ModTime(), content)
}

// Handler serves any file in fsys by its URL path.
func Handler(fsys fs.FS) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
		if name == "" || !fs.ValidPath(name) {
			http.NotFound(w, r)
			return
		}
		ServePage(w, r, fsys, name)
	})
}
