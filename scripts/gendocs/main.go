// Package main generates markdown reference documentation for the fuzzrule
// command line and its configuration file.
//
// Usage:
//
//	go run ./scripts/gendocs -gen=cli -outdir=docs/cli
//	go run ./scripts/gendocs -gen=config -outdir=docs/config
//	go run ./scripts/gendocs -gen=all
package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"path/filepath"
	"slices"
)

// generators write into docs/<name> unless -outdir is set.
var generators = []struct {
	name string
	run  func(outDir string) error
}{
	{"cli", generateCLIDocs},
	{"config", generateConfigDocs},
}

func main() {
	gen := flag.String("gen", "all", "what to generate: cli, config, all")
	outDir := flag.String("outdir", "", "output directory; only honored for a single -gen target")
	flag.Parse()

	valid := []string{"all"}
	for _, g := range generators {
		valid = append(valid, g.name)
	}
	if !slices.Contains(valid, *gen) {
		log.Fatalf("unknown -gen value %q (use one of %v)", *gen, valid)
	}

	root, err := moduleRoot()
	if err != nil {
		log.Fatalf("failed to find module root: %v", err)
	}
	log.Printf("Module root: %s", root)

	for _, g := range generators {
		if *gen != "all" && *gen != g.name {
			continue
		}
		dir := filepath.Join(root, "docs", g.name)
		if *outDir != "" && *gen != "all" {
			dir = *outDir
		}
		if err := g.run(dir); err != nil {
			log.Fatalf("gendocs %s: %v", g.name, err)
		}
	}
	log.Println("Done!")
}

// moduleRoot returns the nearest ancestor of the working directory that
// holds a go.mod.
func moduleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("no go.mod above the working directory")
		}
		dir = parent
	}
}
