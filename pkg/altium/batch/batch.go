// Package batch runs a per-file operation over many files in parallel.
// Files are independent: a failure on one file is reported in its result
// and does not stop the others.
package batch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/creachadair/taskgroup"
)

// Result is the outcome of one file.
type Result struct {
	Path string
	Err  error
}

// Run calls fn for every file with at most workers calls in flight.
// Results come back in the order of files.
func Run(ctx context.Context, files []string, workers int, fn func(ctx context.Context, path string) error) []Result {
	if workers < 1 {
		workers = 1
	}
	results := make([]Result, len(files))
	g, start := taskgroup.New(nil).Limit(workers)
	for i, path := range files {
		results[i].Path = path
		start(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Err = fn(ctx, path)
			return nil
		})
	}
	g.Wait()
	return results
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

var extensions = map[string]bool{
	".schlib": true,
	".schdoc": true,
	".pcblib": true,
	".pcbdoc": true,
}

// Collect expands args into the list of Altium files to process.
// Directories are walked recursively; plain files are taken as given.
func Collect(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && extensions[strings.ToLower(filepath.Ext(path))] {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}
