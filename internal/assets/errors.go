package assets

import "errors"

var (
	// ErrBuildFailed indicates esbuild reported errors, they are logged as they occur
	ErrBuildFailed = errors.New("esbuild failed with errors")
	// ErrNotBuilt indicates metadata was requested before a build completed
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
	// ErrNoEntryOutput indicates a chunk has no output in the build metadata
	ErrNoEntryOutput = errors.New("entrypoint not found in metadata")
	// ErrNoDevServer indicates Serve was called with a configuration built without a dev server
	ErrNoDevServer = errors.New("configuration has no dev server")
)
