package main

import (
	"embed"
	"io/fs"
	"path"
)

//go:embed migrations
var migrations embed.FS

//go:embed locales
var locales embed.FS

//go:embed views
var views embed.FS

//go:embed public
var public embed.FS

func sub(fsys fs.FS, dir string) fs.FS {
	s, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return s
}

// migrationsFor returns the migrations written for driver.
func migrationsFor(driver string) fs.FS {
	return sub(migrations, path.Join("migrations", driver))
}
