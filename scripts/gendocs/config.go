package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/leapstack-labs/fuzzrule/internal/config"
)

// configKeyDocs describes each key of fuzzrule.yaml.
var configKeyDocs = map[string]string{
	"program":    "Program compiled when a command gets no file argument",
	"facts":      "Facts grounded before every run, as a map of variable to value",
	"facts_file": "YAML file of facts, merged below facts and --set",
	"state_path": "SQLite database holding the run history",
	"record":     "Record every run in the history database",
	"output":     "Output format: auto, text, markdown or json",
	"verbose":    "Verbose output, implies log_level debug",
	"log_level":  "Log level: debug, info, warn or error",
	"profile":    "Profile applied on top of the top-level settings",
	"profiles":   "Named overrides of program, facts_file and facts",
	"lint":       "Lint rules to disable and per-rule severity overrides",
}

// generateConfigDocs documents the config file keys.
func generateConfigDocs(outDir string) error {
	log.Printf("Generating config docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Configuration", "Reference for "+config.ConfigFileName)
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph(fmt.Sprintf("fuzzrule reads %s (or %s) from the working directory, or the file given with --config. "+
		"Relative paths in the file resolve against its directory.",
		InlineCode(config.ConfigFileName), InlineCode(config.ConfigFileNameAlt)))

	w.Header(2, "Keys")
	w.Table([]string{"Key", "Type", "Default", "Environment", "Description"}, configRows())

	w.Header(2, "Example")
	w.CodeBlock("yaml", `program: rules/pump.fz
facts_file: facts.yaml
facts:
  water: 10
record: true
profiles:
  night:
    facts:
      water: 80`)

	filename := filepath.Join(outDir, "index.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}

func configRows() [][]string {
	defaults := reflect.ValueOf(config.Default()).Elem()
	typ := defaults.Type()

	var rows [][]string
	for i := range typ.NumField() {
		field := typ.Field(i)
		key := field.Tag.Get("koanf")
		if key == "" || key == "-" {
			continue
		}

		def := ""
		if v := defaults.Field(i); !v.IsZero() && v.Kind() != reflect.Map {
			def = InlineCode(fmt.Sprint(v.Interface()))
		}

		rows = append(rows, []string{
			InlineCode(key),
			field.Type.String(),
			def,
			InlineCode(config.EnvPrefix + strings.ToUpper(key)),
			cleanDescription(configKeyDocs[key]),
		})
	}
	return rows
}
