// Package web holds the pages of the monitoring server.
package web

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
)

//go:embed dist/*
var staticAssets embed.FS

// Environment variables that switch the pages to files on disk.
const (
	// DevEnv serves the dist directory next to this source file.
	DevEnv = "LIFPACE_MONITOR_DEV"
	// DistEnv serves the pages from the named directory.
	DistEnv = "LIFPACE_MONITOR_DIST"
)

// GetAssets returns the pages. The embedded copy is used unless one of the
// environment variables points to a directory on disk.
func GetAssets() http.FileSystem {
	if dir := assetDir(); dir != "" {
		log.Printf("Serving monitoring pages from %s", dir)
		return http.Dir(dir)
	}

	sub, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(sub)
}

func assetDir() string {
	if dir := os.Getenv(DistEnv); dir != "" {
		return dir
	}

	dev, err := strconv.ParseBool(os.Getenv(DevEnv))
	if err != nil || !dev {
		return ""
	}

	_, file, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot locate the monitoring pages")
	}

	return filepath.Join(filepath.Dir(file), "dist")
}
