package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/ownablekit/studio/bridge"
	"github.com/ownablekit/studio/builder"
	"github.com/ownablekit/studio/compiler"
	"github.com/ownablekit/studio/gateway"
	"github.com/ownablekit/studio/orchestrator"
	"github.com/ownablekit/studio/project"
	"github.com/ownablekit/studio/store"
	"github.com/ownablekit/studio/wasmvm"
)

func main() {
	var (
		projectDir  = flag.String("project", "", "Path to the project directory to build")
		name        = flag.String("name", "", "Package name (defaults to the project directory name)")
		version     = flag.String("version", "0.1.0", "Package version")
		description = flag.String("description", "", "Package description")
		out         = flag.String("out", "", "Output path for the package archive")
		configFile  = flag.String("config", "", "Build config file (YAML)")
		serve       = flag.Bool("serve", false, "Run the HTTP gateway instead of building")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	if *serve {
		if err := runServe(*verbose); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *projectDir == "" {
		fmt.Fprintln(os.Stderr, "Usage: studio -project <dir> [-name n] [-version v] [-out file.zip]")
		fmt.Fprintln(os.Stderr, "       studio -project <dir> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       studio -serve             (HTTP gateway)")
		os.Exit(1)
	}

	cfg, err := buildConfig(*configFile, *projectDir, *name, *version, *description)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	p, err := project.FromDir(cfg.PackageName, *projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive && term.IsTerminal(int(os.Stdout.Fd())) {
		if err := runInteractive(p, cfg, *out); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runBuild(p, cfg, *out, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildConfig merges the YAML config file, if any, with flag values.
// Flags win over the file; the directory name is the fallback package
// name.
func buildConfig(configFile, projectDir, name, version, description string) (builder.Config, error) {
	var cfg builder.Config

	if configFile != "" {
		data, err := os.ReadFile(configFile)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if name != "" {
		cfg.PackageName = name
	}
	if cfg.PackageName == "" {
		cfg.PackageName = filepath.Base(filepath.Clean(projectDir))
	}
	if version != "" {
		cfg.Version = version
	}
	if description != "" {
		cfg.Description = description
	}
	return cfg, nil
}

func runBuild(p *project.Project, cfg builder.Config, out string, verbose bool) error {
	log := zap.NewNop()
	if verbose {
		var err error
		log, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
	}

	orch := orchestrator.New(compiler.NewSimulated(), cfg, orchestrator.WithLogger(log))
	orch.OnSteps(func(steps []builder.Step) {
		for _, s := range steps {
			if s.Status == builder.StatusRunning && s.Progress == 0 {
				fmt.Printf("  %s...\n", s.Label)
			}
		}
	})

	res, err := orch.Build(context.Background(), p)
	if err != nil {
		return err
	}

	if out == "" {
		out = res.Filename
	}
	if err := os.WriteFile(out, res.Archive, 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	fmt.Printf("\nPackage: %s\n", out)
	fmt.Printf("CID:     %s\n", res.CID)
	fmt.Printf("Entries: %d\n", res.Artifact.Len())
	return nil
}

func runServe(verbose bool) error {
	cfg, err := gateway.LoadConfig()
	if err != nil {
		return err
	}

	log := zap.NewNop()
	if verbose || cfg.LogLevel == "debug" {
		log, err = zap.NewDevelopment()
		if err != nil {
			return err
		}
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}

	srv := gateway.NewServer(cfg, db, compiler.NewSimulated(), log)

	// module hosting procedures ride the same RPC surface
	b := bridge.New(wasmvm.Factory(wasmvm.WithLogger(log)), bridge.WithLogger(log))
	defer b.Close(context.Background())
	b.RegisterProcedures(srv.RPC())

	fmt.Printf("studio gateway listening on %s\n", cfg.ListenAddr)
	return srv.Listen()
}
