package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/bindgen/bindgen"
	"github.com/wippyai/bindgen/descriptor"
	"github.com/wippyai/bindgen/descriptor/descriptortest"
)

type config struct {
	witFile     string
	iface       string
	pkg         string
	prefix      string
	outDir      string
	list        bool
	interactive bool
	verbose     bool
	example     bool
}

func main() {
	var cfg config
	flag.StringVar(&cfg.witFile, "wit", "", "Path to WIT JSON (wasm-tools component wit --json)")
	flag.StringVar(&cfg.iface, "interface", "", "WIT interface to bind")
	flag.StringVar(&cfg.pkg, "package", "", "Go package of the generated glue")
	flag.StringVar(&cfg.prefix, "prefix", "", "C symbol prefix (defaults to the package)")
	flag.StringVar(&cfg.outDir, "out", ".", "Output directory")
	flag.BoolVar(&cfg.list, "list", false, "List descriptor items and exit")
	flag.BoolVar(&cfg.interactive, "i", false, "Interactive mode with TUI")
	flag.BoolVar(&cfg.verbose, "v", false, "Verbose logging")
	flag.BoolVar(&cfg.example, "example", false, "Use the built-in counter descriptor instead of -wit")
	flag.Parse()

	if cfg.witFile == "" && !cfg.example {
		fmt.Fprintln(os.Stderr, "Usage: bindgen -wit <file.json> -interface <name> -package <pkg> [-prefix p] [-out dir]")
		fmt.Fprintln(os.Stderr, "       bindgen -wit <file.json> -interface <name> -list")
		fmt.Fprintln(os.Stderr, "       bindgen -wit <file.json> -interface <name> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       bindgen -example [-list|-i]")
		os.Exit(1)
	}

	if cfg.verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync() //nolint:errcheck
		bindgen.SetLogger(logger.Named("bindgen"))
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config) error {
	d, err := loadDescriptor(cfg)
	if err != nil {
		return err
	}

	opts := bindgen.DefaultOptions()
	opts.Prefix = cfg.prefix

	if cfg.interactive {
		if !isTTY() {
			return fmt.Errorf("interactive mode needs a terminal")
		}
		return runInteractive(d, opts)
	}

	if cfg.list {
		printItems(d)
		return nil
	}

	out, err := bindgen.Generate(d, opts)
	if err != nil {
		return fmt.Errorf("generate: %w", err)
	}

	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files := out.Files()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		path := filepath.Join(cfg.outDir, name)
		if err := os.WriteFile(path, files[name], 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", path, len(files[name]))
	}
	return nil
}

func loadDescriptor(cfg config) (*descriptor.Descriptor, error) {
	if cfg.example {
		d := descriptortest.Counter()
		if cfg.pkg != "" {
			d.Package = cfg.pkg
		}
		return d, nil
	}

	if cfg.iface == "" {
		return nil, fmt.Errorf("-interface is required with -wit")
	}
	f, err := os.Open(cfg.witFile)
	if err != nil {
		return nil, fmt.Errorf("open WIT: %w", err)
	}
	defer f.Close()

	pkg := cfg.pkg
	if pkg == "" {
		pkg = strings.ReplaceAll(cfg.iface, "-", "")
	}
	d, err := descriptor.DecodeWIT(f, cfg.iface, pkg)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", cfg.iface, err)
	}
	return d, nil
}

func printItems(d *descriptor.Descriptor) {
	fmt.Printf("Package: %s\n", d.Package)
	fmt.Printf("Prefix: %s\n", d.SymbolPrefix())
	fmt.Printf("Items: %d\n\n", len(d.Items))
	for _, it := range d.Items {
		fmt.Printf("  %-12s %s\n", it.ItemKind(), describeItem(it))
	}
}

// describeItem renders an item on one line for listings.
func describeItem(it descriptor.Item) string {
	switch it := it.(type) {
	case *descriptor.Function:
		var params []string
		for _, p := range it.Params {
			s := p.Name + ": " + p.Type.String()
			if p.Ownership == descriptor.Owned {
				s += " (owned)"
			}
			params = append(params, s)
		}
		sig := it.ItemName() + "(" + strings.Join(params, ", ") + ")"
		if !it.Result.IsVoid() {
			sig += " -> " + it.Result.String()
		}
		if it.Fallible() {
			sig += " ! " + it.Errors
		}
		return sig
	case *descriptor.Record:
		var fields []string
		for _, f := range it.Fields {
			fields = append(fields, f.Name+": "+f.Type.String())
		}
		return it.Name + " { " + strings.Join(fields, ", ") + " }"
	case *descriptor.Enum:
		return it.Name + " { " + strings.Join(it.Cases, ", ") + " }"
	case *descriptor.ErrorType:
		return it.Name + " { " + strings.Join(it.Kinds, ", ") + " }"
	case *descriptor.Virtual:
		return it.Name + " [" + strings.Join(it.Methods, ", ") + "]"
	case *descriptor.Callback:
		var methods []string
		for _, m := range it.Methods {
			methods = append(methods, m.Name)
		}
		return it.Name + " [" + strings.Join(methods, ", ") + "]"
	default:
		return it.ItemName()
	}
}
