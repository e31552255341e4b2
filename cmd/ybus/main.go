package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/edp1096/toy-ybus/internal/consts"
	"github.com/edp1096/toy-ybus/pkg/circuit"
	"github.com/edp1096/toy-ybus/pkg/config"
	"github.com/edp1096/toy-ybus/pkg/logging"
	"github.com/edp1096/toy-ybus/pkg/netlist"
	"github.com/edp1096/toy-ybus/pkg/topology"
	"github.com/edp1096/toy-ybus/pkg/util"
	"github.com/edp1096/toy-ybus/pkg/watcher"
	"github.com/edp1096/toy-ybus/pkg/web"
)

func loadCircuit(path string) (*circuit.Circuit, *circuit.YBus, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading case file: %v", err)
	}

	data, err := netlist.Parse(string(content))
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing case file: %v", err)
	}

	ckt, err := circuit.FromNetlist(data)
	if err != nil {
		return nil, nil, fmt.Errorf("error creating circuit: %w", err)
	}

	y, err := ckt.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("error building admittance matrix: %w", err)
	}

	for _, name := range topology.Isolated(ckt) {
		logging.Warn("bus has no branch, admittance matrix is singular", "bus", name)
	}
	if islands := topology.Islands(ckt); len(islands) > 1 {
		logging.Warn("network is split", "islands", len(islands))
	}

	return ckt, y, nil
}

func printTable(w io.Writer, ckt *circuit.Circuit, y *circuit.YBus, precision int) error {
	fmt.Fprintf(w, "%s\n", ckt)
	fmt.Fprintln(w, strings.Repeat("=", 40))

	fmt.Fprintln(w, "\nBuses:")
	for _, b := range ckt.Buses() {
		fmt.Fprintf(w, "  %2d  %-10s %s\n", b.Index(), b.Name(), util.FormatValueFactor(b.NominalKV()*consts.KiloVolt, "V"))
	}

	if gens, loads := ckt.Generators(), ckt.Loads(); len(gens)+len(loads) > 0 {
		fmt.Fprintln(w, "\nInjections:")
		for _, g := range gens {
			fmt.Fprintf(w, "  %-6s @ %-10s P=%s V=%g pu\n", g.GetName(), g.BusName(),
				util.FormatValueFactor(g.MWSetpoint*consts.MegaWatt, "W"), g.VSetpoint)
		}
		for _, l := range loads {
			fmt.Fprintf(w, "  %-6s @ %-10s P=%s Q=%s\n", l.GetName(), l.BusName(),
				util.FormatValueFactor(l.MW*consts.MegaWatt, "W"), util.FormatValueFactor(l.MVAr*consts.MegaWatt, "VAr"))
		}
	}

	fmt.Fprintln(w, "\nBranches:")
	for _, br := range ckt.Branches() {
		terminals := br.GetNodeNames()
		yPrim := br.Admittance()
		fmt.Fprintf(w, "  %-6s %-10s %-10s %s  %s\n", br.GetName(), terminals[0], terminals[1],
			br.Params(), util.FormatMagnitudePhase("y", -yPrim.Y[0][1]))
	}

	fmt.Fprintf(w, "\nAdmittance matrix (%dx%d, build %s):\n", y.Size(), y.Size(), y.ID)
	return util.FormatMatrix(w, y.Names(), y.Rows(), precision)
}

func printResult(w io.Writer, cfg *config.Config, ckt *circuit.Circuit, y *circuit.YBus) error {
	if cfg.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(web.NewYBusResponse(y))
	}
	return printTable(w, ckt, y, cfg.Precision)
}

func setupLogging(cfg *config.Config) error {
	level, err := logging.ParseLevel(cfg.Verbosity)
	if err != nil {
		return err
	}
	if cfg.JSONLog {
		logging.SetJSONOutput(level)
	} else {
		logging.SetLevel(level)
	}
	return nil
}

func main() {
	flags := pflag.NewFlagSet("ybus", pflag.ExitOnError)
	config.Flags(flags)
	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: ybus [flags] <case-file>\n\n")
		flags.PrintDefaults()
	}
	flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if flags.NArg() > 0 {
		cfg.Case = flags.Arg(0)
	}
	if cfg.Case == "" {
		flags.Usage()
		os.Exit(2)
	}
	if err := setupLogging(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ckt, y, err := loadCircuit(cfg.Case)
	if err != nil {
		logging.Fatal("load failed", "case", cfg.Case, "error", err)
	}
	if err := printResult(os.Stdout, cfg, ckt, y); err != nil {
		logging.Fatal("output failed", "error", err)
	}

	if !cfg.Serve && !cfg.Watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewServer()
	server.SetCircuit(ckt)

	if cfg.Watch {
		fw, err := watcher.NewFileWatcher(cfg.Case, watcher.DefaultQuietPeriod)
		if err != nil {
			logging.Fatal("watch failed", "error", err)
		}
		if err := fw.Start(ctx); err != nil {
			logging.Fatal("watch failed", "error", err)
		}
		go func() {
			for ev := range fw.Events() {
				next, y, err := loadCircuit(ev.Path)
				if err != nil {
					// keep serving the last good circuit
					logging.Error("reload failed", "case", ev.Path, "error", err)
					continue
				}
				server.SetCircuit(next)
				logging.Info("case reloaded", "circuit", next.Name(), "id", y.ID.String())
				if !cfg.Serve {
					if err := printResult(os.Stdout, cfg, next, y); err != nil {
						logging.Error("output failed", "error", err)
					}
				}
			}
		}()
	}

	if cfg.Serve {
		if err := server.Run(ctx, fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logging.Fatal("server failed", "error", err)
		}
		return
	}

	<-ctx.Done()
}
