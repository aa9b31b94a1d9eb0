package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/vantauri/h5table/h5attrs"
	"github.com/vantauri/h5table/h5read"
	"github.com/vantauri/h5table/h5tree"
	"github.com/vantauri/h5table/scan"
	"github.com/vantauri/h5table/storage"
	"github.com/vantauri/h5table/storage/diskds"
)

// timeCycle logs a single timed operation's duration.
func timeCycle(label string, cb func() error) error {
	before := time.Now()
	err := cb()
	log.Printf("%s took %s", label, time.Since(before))
	return err
}

func main() {
	var (
		file    = flag.String("file", "", "path to a diskds fixture file")
		columns = flag.String("columns", "", "comma-separated dataset paths to project with read()")
		tree    = flag.Bool("tree", false, "list the file's group tree instead of scanning")
		attrs   = flag.String("attrs", "", "list attributes of this object path instead of scanning")
		workers = flag.Int("workers", 4, "scan worker pool size")
		verbose = flag.Bool("verbose", false, "dump every materialized batch with spew")
	)
	flag.Parse()

	if *file == "" {
		log.Fatal("h5tablectl: -file is required")
	}

	lib := diskds.NewLibrary()
	lock := storage.NewLock()

	switch {
	case *tree:
		runTree(lib, lock, *file)
	case *attrs != "":
		runAttrs(lib, lock, *file, *attrs)
	default:
		runScan(lib, lock, *file, splitNonEmpty(*columns), *workers, *verbose)
	}
}

func runTree(lib storage.Library, lock *storage.Lock, file string) {
	bind, err := h5tree.Bind(lib, lock, file)
	if err != nil {
		log.Fatalf("h5tablectl: bind: %v", err)
	}
	var rows []h5tree.Row
	if err := timeCycle("tree list", func() error {
		var err error
		rows, err = h5tree.List(bind, lock, "/")
		return err
	}); err != nil {
		log.Fatalf("h5tablectl: list: %v", err)
	}
	for _, r := range rows {
		log.Printf("%s\t%s\t%v\t%s", r.Kind, r.Path, r.Shape, r.DType)
	}
}

func runAttrs(lib storage.Library, lock *storage.Lock, file, object string) {
	bind, err := h5attrs.Bind(lib, lock, file, object)
	if err != nil {
		log.Fatalf("h5tablectl: bind: %v", err)
	}
	rows, err := h5attrs.Read(bind, lock)
	if err != nil {
		log.Fatalf("h5tablectl: read attrs: %v", err)
	}
	for _, r := range rows {
		log.Printf("%s.%s = %v", r.ObjectPath, r.Name, r.Value)
	}
}

func runScan(lib storage.Library, lock *storage.Lock, file string, paths []string, workers int, verbose bool) {
	if len(paths) == 0 {
		log.Fatal("h5tablectl: -columns is required for a scan")
	}

	args := make([]h5read.ColumnArg, len(paths))
	for i, p := range paths {
		args[i] = h5read.ColumnArg{Path: p}
	}

	bind, err := h5read.Bind(lib, lock, file, args)
	if err != nil {
		log.Fatalf("h5tablectl: bind: %v", err)
	}
	log.Printf("bound %s: handle=%s rows=%d", file, bind.Handle, bind.NumRows)

	projected := make([]int, len(bind.Columns))
	for i := range projected {
		projected[i] = i
	}

	var totalRows int64
	err = timeCycle("scan", func() error {
		return h5read.Scan(context.Background(), bind, lock, projected, nil, 4096, workers, func(b scan.RowBatch) error {
			totalRows += b.Length
			if verbose {
				spew.Dump(b)
			}
			return nil
		})
	})
	if err != nil {
		log.Fatalf("h5tablectl: scan: %v", err)
	}
	log.Printf("scanned %d rows", totalRows)
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if i > start {
				out = append(out, s[start:i])
			}
			start = i + 1
		}
	}
	return out
}
