// daogen generates daolite field-descriptor tables from struct
// definitions, so descriptors need not be written by hand.
//
// It loads a Go package, finds the struct types embedding daolite.Base,
// and emits one descriptor per type together with its Descriptor method,
// a constructor returning a record with an unassigned id, and an init
// function registering the descriptor.
//
// Usage:
//
//	daogen [-config daogen.yaml]
//	daogen -pkg ./models -out descriptors_gen.go [-types Item,Parent]
//
// The YAML config mirrors the flags:
//
//	package: ./models
//	output: descriptors_gen.go
//	types: [Item, Parent]
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config selects the package to scan and where the generated file goes.
type Config struct {
	// Package is the package pattern passed to the loader.
	Package string `yaml:"package"`
	// Output is the generated file path, relative to the scanned package
	// directory unless absolute.
	Output string `yaml:"output"`
	// Types restricts generation to the named struct types. Empty means
	// every struct embedding daolite.Base.
	Types []string `yaml:"types"`
}

func main() {
	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		pkgPattern = flag.String("pkg", "", "package pattern to scan")
		output     = flag.String("out", "descriptors_gen.go", "generated file name")
		typeList   = flag.String("types", "", "comma-separated type names (default: all)")
	)
	flag.Parse()

	cfg := Config{Package: *pkgPattern, Output: *output}
	if *typeList != "" {
		cfg.Types = strings.Split(*typeList, ",")
	}
	if *configPath != "" {
		raw, err := os.ReadFile(*configPath)
		if err != nil {
			fatal(err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			fatal(fmt.Errorf("parse %s: %w", *configPath, err))
		}
	}
	if cfg.Package == "" {
		fatal(fmt.Errorf("no package to scan; pass -pkg or a config file"))
	}
	if cfg.Output == "" {
		cfg.Output = "descriptors_gen.go"
	}

	if err := generate(cfg); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "daogen:", err)
	os.Exit(1)
}
