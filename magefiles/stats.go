//go:build mage

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// pkgStats is one line of Stats output.
type pkgStats struct {
	Package   string `json:"package"`
	ProdLines int    `json:"go_loc_prod"`
	TestLines int    `json:"go_loc_test"`
	Tests     int    `json:"tests"`
	Examples  int    `json:"examples"`
	Sentinels int    `json:"sentinel_errors"`
}

// Stats prints one JSON line per package under pkg, internal and cmd, then a
// totals line that also counts the types declared in the manifest.
func Stats() error {
	byPkg := map[string]*pkgStats{}
	fset := token.NewFileSet()

	for _, root := range []string{"pkg", "internal", "cmd"} {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") {
				return nil
			}
			dir := filepath.ToSlash(filepath.Dir(path))
			st, ok := byPkg[dir]
			if !ok {
				st = &pkgStats{Package: dir}
				byPkg[dir] = st
			}
			return st.add(fset, path)
		})
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	dirs := make([]string, 0, len(byPkg))
	for dir := range byPkg {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	total := pkgStats{Package: "total"}
	enc := json.NewEncoder(os.Stdout)
	for _, dir := range dirs {
		st := byPkg[dir]
		total.ProdLines += st.ProdLines
		total.TestLines += st.TestLines
		total.Tests += st.Tests
		total.Examples += st.Examples
		total.Sentinels += st.Sentinels
		if err := enc.Encode(st); err != nil {
			return err
		}
	}

	types, err := manifestTypes()
	if err != nil {
		return err
	}
	return enc.Encode(struct {
		pkgStats
		Packages      int `json:"packages"`
		ManifestTypes int `json:"manifest_types"`
	}{total, len(dirs), types})
}

// add counts the lines of one file and classifies its top-level
// declarations.
func (st *pkgStats) add(fset *token.FileSet, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	lines := bytes.Count(src, []byte("\n"))
	isTest := strings.HasSuffix(path, "_test.go")
	if isTest {
		st.TestLines += lines
	} else {
		st.ProdLines += lines
	}

	f, err := parser.ParseFile(fset, path, src, parser.SkipObjectResolution)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if !isTest || d.Recv != nil {
				continue
			}
			switch name := d.Name.Name; {
			case strings.HasPrefix(name, "Test") && name != "TestMain":
				st.Tests++
			case strings.HasPrefix(name, "Example"):
				st.Examples++
			}
		case *ast.GenDecl:
			if isTest || d.Tok != token.VAR {
				continue
			}
			for _, spec := range d.Specs {
				for _, id := range spec.(*ast.ValueSpec).Names {
					if strings.HasPrefix(id.Name, "Err") {
						st.Sentinels++
					}
				}
			}
		}
	}
	return nil
}

// manifestTypes counts the types in the manifest named by CAPCAST_MANIFEST,
// or capcast.yaml in the working directory. A missing manifest counts zero.
func manifestTypes() (int, error) {
	path := os.Getenv("CAPCAST_MANIFEST")
	if path == "" {
		path = "capcast.yaml"
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var doc struct {
		Types []yaml.Node `yaml:"types"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return len(doc.Types), nil
}
